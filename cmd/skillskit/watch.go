package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/skills"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	DebounceTime int
	Generate     bool
	Generator    *GenerateConfig
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		DebounceTime: int(skills.DefaultDebounce / time.Millisecond),
		Generate:     false,
		Generator:    NewGenerateConfig(),
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	if c.Generate && c.Generator.Output == "" {
		return errors.New("output path cannot be empty")
	}
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the skills directory and report changes",
	Long: `Continuously monitors the skills root. Bursts of changes are collapsed
into one notification. With --generate the snapshot (and any configured search
mapping or catalog) is regenerated after every change.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		config := getWatchConfigFromFlags(cmd)
		if err := runWatch(ctx, config); err != nil {
			presenter.Error(err, "Watch failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
	watchCmd.Flags().BoolP("generate", "g", defaults.Generate, "Regenerate the snapshot after each change")
	watchCmd.Flags().StringP("output", "o", defaults.Generator.Output, "Snapshot file written with --generate")
	watchCmd.Flags().String("search-mapping", defaults.Generator.SearchMapping, "Search mapping file written with --generate")
	watchCmd.Flags().String("catalog", defaults.Generator.Catalog, "SQLite catalog rebuilt with --generate")
}

func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounce
	}
	if generate, err := cmd.Flags().GetBool("generate"); err == nil {
		config.Generate = generate
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Generator.Output = output
	}
	if mapping, err := cmd.Flags().GetString("search-mapping"); err == nil {
		config.Generator.SearchMapping = mapping
	}
	if catalogPath, err := cmd.Flags().GetString("catalog"); err == nil {
		config.Generator.Catalog = catalogPath
	}
	return config
}

func runWatch(ctx context.Context, config *WatchConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	loader, err := newLoader()
	if err != nil {
		return err
	}

	if config.Generate {
		if _, err := runGenerate(ctx, os.Stdout, config.Generator); err != nil {
			return err
		}
	}

	presenter.Info(fmt.Sprintf("Watching %s for changes. Press Ctrl+C to stop.", loader.SkillsDir()))

	debounce := time.Duration(config.DebounceTime) * time.Millisecond
	return loader.Watch(ctx, debounce, func(ctx context.Context, changed []string) {
		for _, path := range changed {
			presenter.Info(fmt.Sprintf("changed: %s", path))
		}

		if !config.Generate {
			return
		}
		stats, err := runGenerate(ctx, os.Stdout, config.Generator)
		if err != nil {
			logger.G(ctx).WithError(err).Error("failed to regenerate skills")
			return
		}
		presenter.Success("Regenerated skills snapshot")
		presenter.Stats(stats)
	})
}
