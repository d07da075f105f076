package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillskit/skillskit/pkg/api"
	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/skills"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host  string
	Port  int
	Watch bool
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{Host: "localhost", Port: 8080}
}

func (c *ServeConfig) server() *api.ServerConfig {
	return &api.ServerConfig{Host: c.Host, Port: c.Port}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the loaded skills over a JSON API",
	Long: `Start a local HTTP server exposing the loaded skills:

  GET  /api/skills[?category=&tag=]
  GET  /api/skills/{name}
  GET  /api/categories
  GET  /api/search-mapping
  GET  /api/version
  POST /api/reload

Host and port also come from serve.host and serve.port in the config file or
SKILLSKIT_SERVE_HOST and SKILLSKIT_SERVE_PORT. With --watch the cache is
dropped whenever the skills root changes, so the next request rescans it.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getServeConfigFromFlags(cmd)
		if err := runServe(cmd.Context(), config); err != nil {
			presenter.Error(err, "API server failed")
			os.Exit(1)
		}
		presenter.Info("API server stopped")
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the API server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the API server to")
	serveCmd.Flags().Bool("watch", defaults.Watch, "Invalidate the skill cache when the skills root changes")

	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()
	if host := viper.GetString("serve.host"); host != "" {
		config.Host = host
	}
	if port := viper.GetInt("serve.port"); port != 0 {
		config.Port = port
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	return config
}

// validateServeConfig applies the server's own checks and rejects hosts that
// already carry a port or contain spaces.
func validateServeConfig(config *ServeConfig) error {
	if err := config.server().Validate(); err != nil {
		return err
	}

	if net.ParseIP(config.Host) == nil && strings.ContainsAny(config.Host, " :") {
		return errors.Errorf("invalid host: %s", config.Host)
	}

	if config.Port < 1024 {
		logger.G(context.Background()).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}
	return nil
}

// runServe blocks serving the API until ctx is cancelled or SIGINT/SIGTERM
// arrives.
func runServe(ctx context.Context, config *ServeConfig) error {
	if err := validateServeConfig(config); err != nil {
		return errors.Wrap(err, "invalid server configuration")
	}

	loader, err := newLoader()
	if err != nil {
		return err
	}

	server, err := api.NewServer(config.server(), loader)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if config.Watch {
		go func() {
			onChange := func(ctx context.Context, changed []string) {
				logger.G(ctx).WithField("changed", len(changed)).Info("skills changed, cache invalidated")
			}
			if err := loader.Watch(ctx, skills.DefaultDebounce, onChange); err != nil {
				logger.G(ctx).WithError(err).Error("skills watcher stopped")
			}
		}()
	}

	presenter.Success(fmt.Sprintf("Serving %s on http://%s:%d", loader.SkillsDir(), config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	return server.Start(ctx)
}
