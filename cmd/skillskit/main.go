package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/skills"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLSKIT")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillskit")
	viper.AddConfigPath(".")

	viper.SetDefault("skills_dir", skills.DefaultSkillsDir)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillskit",
	Short: "Load, validate and publish a directory of agent skills",
	Long: `skillskit reads a directory of skill folders, each holding a SKILL.md
document with frontmatter and an optional metadata file, and turns them into
a snapshot, a search mapping, a SQLite catalog or a JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}

		colorMode, err := presenter.ParseColorMode(viper.GetString("color"))
		if err != nil {
			return err
		}
		if colorMode != presenter.ColorAuto {
			presenter.SetColorMode(colorMode)
		}
		presenter.SetQuiet(viper.GetBool("quiet"))

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to initialize tracing")
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if err := shutdownTracing(cmd.Context()); err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to shut down tracing")
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("skills-dir", skills.DefaultSkillsDir, "Skills root directory")
	flags.String("snapshot", "", "Pre-generated snapshot consulted before scanning")
	flags.String("dialect", "", "Frontmatter dialect (compat or yaml)")
	flags.StringSlice("exclude", nil, "Directory name patterns to skip (replaces the defaults)")
	flags.String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", "fmt", "Log format (fmt or json)")
	flags.BoolP("quiet", "q", false, "Only print errors")
	flags.String("color", "", "Color output (auto, always or never)")

	viper.BindPFlag("skills_dir", flags.Lookup("skills-dir"))
	viper.BindPFlag("snapshot", flags.Lookup("snapshot"))
	viper.BindPFlag("dialect", flags.Lookup("dialect"))
	viper.BindPFlag("exclude", flags.Lookup("exclude"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("quiet", flags.Lookup("quiet"))
	viper.BindPFlag("color", flags.Lookup("color"))

	rootCmd.AddCommand(withTracing(listCmd))
	rootCmd.AddCommand(withTracing(showCmd))
	rootCmd.AddCommand(withTracing(generateCmd))
	rootCmd.AddCommand(withTracing(validateCmd))
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
