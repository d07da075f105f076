package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillskit/skillskit/pkg/catalog"
	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/searchindex"
	"github.com/skillskit/skillskit/pkg/skills"
	"github.com/skillskit/skillskit/pkg/telemetry"
)

// defaultCatalogPath selects db.DefaultDBPath for --catalog
const defaultCatalogPath = "default"

// errSnapshotOutdated is returned by --check when the snapshot differs
var errSnapshotOutdated = errors.New("snapshot is out of date, run 'skillskit generate'")

// GenerateConfig holds configuration for the generate command
type GenerateConfig struct {
	Output        string
	SearchMapping string
	Catalog       string
	Check         bool
	Strict        bool
}

// NewGenerateConfig creates a new GenerateConfig with default values
func NewGenerateConfig() *GenerateConfig {
	return &GenerateConfig{
		Output: skills.DefaultSnapshotName,
	}
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the skills snapshot and derived artifacts",
	Long: `Scan the skills root and write the JSON snapshot that loaders read instead
of scanning. Optionally also write the search mapping and rebuild the SQLite
catalog.

With --check nothing is written; the command prints a unified diff and fails
when the existing snapshot differs from a fresh scan.

Examples:
  skillskit generate
  skillskit generate --output public/skills.json --search-mapping public/search-mapping.json
  skillskit generate --catalog default
  skillskit generate --check`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getGenerateConfigFromFlags(cmd)

		var diff bytes.Buffer
		stats, err := runGenerate(ctx, &diff, config)
		if err != nil {
			if errors.Is(err, errSnapshotOutdated) {
				presenter.Diff(diff.String())
				presenter.Error(err, "Snapshot check failed")
			} else {
				presenter.Error(err, "Failed to generate skills")
			}
			os.Exit(1)
		}

		if config.Check {
			presenter.Success(fmt.Sprintf("%s is up to date", config.Output))
			return
		}
		presenter.Success("Generated skills snapshot")
		presenter.Stats(stats)
	},
}

func init() {
	defaults := NewGenerateConfig()
	generateCmd.Flags().StringP("output", "o", defaults.Output, "Snapshot file to write")
	generateCmd.Flags().String("search-mapping", defaults.SearchMapping, "Also write the search mapping to this file")
	generateCmd.Flags().String("catalog", defaults.Catalog, "Also rebuild the SQLite catalog at this path ('default' for ~/.skillskit/catalog.db)")
	generateCmd.Flags().Bool("check", defaults.Check, "Fail if the existing snapshot differs instead of writing it")
	generateCmd.Flags().Bool("strict", defaults.Strict, "Fail when a skill has no name or description or a name is duplicated")

	viper.BindPFlag("catalog", generateCmd.Flags().Lookup("catalog"))
}

func getGenerateConfigFromFlags(cmd *cobra.Command) *GenerateConfig {
	config := NewGenerateConfig()
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	if mapping, err := cmd.Flags().GetString("search-mapping"); err == nil {
		config.SearchMapping = mapping
	}
	config.Catalog = viper.GetString("catalog")
	if check, err := cmd.Flags().GetBool("check"); err == nil {
		config.Check = check
	}
	if strict, err := cmd.Flags().GetBool("strict"); err == nil {
		config.Strict = strict
	}
	return config
}

// runGenerate scans the skills root and writes the configured artifacts.
// Diff output of --check goes to w.
func runGenerate(ctx context.Context, w io.Writer, config *GenerateConfig) (*presenter.CatalogStats, error) {
	if config.Output == "" {
		return nil, errors.New("output path cannot be empty")
	}

	loader, err := newLoader()
	if err != nil {
		return nil, err
	}

	list, err := loader.Scan(ctx)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.SkillsCountKey.Int(len(list)))

	if config.Strict {
		if err := skills.Validate(list); err != nil {
			return nil, err
		}
	}

	mapping := searchindex.Build(list)
	stats := &presenter.CatalogStats{
		Skills:     len(list),
		Categories: len(mapping.Categories),
		Tags:       len(mapping.Tags),
		Output:     config.Output,
	}

	if config.Check {
		diff, err := skills.DiffSnapshot(config.Output, list)
		if err != nil {
			return nil, err
		}
		if diff != "" {
			fmt.Fprint(w, diff)
			return nil, errSnapshotOutdated
		}
		return stats, nil
	}

	if err := skills.WriteSnapshot(config.Output, list); err != nil {
		return nil, err
	}
	logger.G(ctx).WithField("path", config.Output).WithField("skills", len(list)).Info("wrote skills snapshot")

	if config.SearchMapping != "" {
		if err := mapping.Write(config.SearchMapping); err != nil {
			return nil, err
		}
		logger.G(ctx).WithField("path", config.SearchMapping).Info("wrote search mapping")
	}

	if config.Catalog != "" {
		if err := rebuildCatalog(ctx, config.Catalog, list, loader.SkillsDir()); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func rebuildCatalog(ctx context.Context, path string, list []*skills.ParsedSkill, source string) error {
	resolved, err := resolveCatalogPath(path)
	if err != nil {
		return err
	}

	return telemetry.WithSpan(ctx, "catalog.rebuild", func(ctx context.Context) error {
		store, err := catalog.Open(ctx, resolved)
		if err != nil {
			return err
		}
		defer store.Close()

		return store.Rebuild(ctx, list, source)
	}, telemetry.SourceDirKey.String(source), telemetry.SkillsCountKey.Int(len(list)))
}
