package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillskit/skillskit/pkg/catalog"
	"github.com/skillskit/skillskit/pkg/db"
	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/skills"
)

// CatalogConfig holds configuration for the catalog subcommands
type CatalogConfig struct {
	Path       string
	Category   string
	Tag        string
	JSONOutput bool
}

// NewCatalogConfig creates a new CatalogConfig with default values
func NewCatalogConfig() *CatalogConfig {
	return &CatalogConfig{Path: defaultCatalogPath}
}

// catalogInfo is the summary printed by catalog info
type catalogInfo struct {
	Path          string                  `json:"path"`
	SchemaVersion int64                   `json:"schemaVersion"`
	Skills        int                     `json:"skills"`
	LastBuild     *catalog.Build          `json:"lastBuild,omitempty"`
	Categories    []catalog.CategoryCount `json:"categories"`
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the SQLite skill catalog",
	Long: `Query the catalog written by 'skillskit generate --catalog' without
rescanning the skills root.`,
}

var catalogInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the catalog location, schema version, last build and categories",
	Run: func(cmd *cobra.Command, _ []string) {
		config := getCatalogConfigFromFlags(cmd)
		if err := runCatalogInfo(cmd.Context(), os.Stdout, config); err != nil {
			presenter.Error(err, "Failed to read catalog")
			os.Exit(1)
		}
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog skills, optionally by category or exact tag",
	Run: func(cmd *cobra.Command, _ []string) {
		config := getCatalogConfigFromFlags(cmd)
		if err := runCatalogList(cmd.Context(), os.Stdout, config); err != nil {
			presenter.Error(err, "Failed to list catalog")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewCatalogConfig()
	catalogCmd.PersistentFlags().String("path", "", "Catalog database ('default' for ~/.skillskit/catalog.db; falls back to the catalog setting)")
	catalogCmd.PersistentFlags().Bool("json", defaults.JSONOutput, "Output in JSON format")
	catalogListCmd.Flags().String("category", defaults.Category, "Only list skills in this category (case-insensitive)")
	catalogListCmd.Flags().String("tag", defaults.Tag, "Only list skills carrying exactly this tag")

	catalogCmd.AddCommand(withTracing(catalogInfoCmd))
	catalogCmd.AddCommand(withTracing(catalogListCmd))
}

func getCatalogConfigFromFlags(cmd *cobra.Command) *CatalogConfig {
	config := NewCatalogConfig()
	if path, err := cmd.Flags().GetString("path"); err == nil && path != "" {
		config.Path = path
	} else if configured := viper.GetString("catalog"); configured != "" {
		config.Path = configured
	}
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if tag, err := cmd.Flags().GetString("tag"); err == nil {
		config.Tag = tag
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	return config
}

// resolveCatalogPath expands defaultCatalogPath
func resolveCatalogPath(path string) (string, error) {
	if path == defaultCatalogPath {
		return db.DefaultDBPath()
	}
	return path, nil
}

// openExistingCatalog refuses to create an empty database as a side effect
// of a read.
func openExistingCatalog(ctx context.Context, path string) (*catalog.Store, error) {
	resolved, err := resolveCatalogPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(resolved); err != nil {
		return nil, errors.Wrapf(err, "catalog %s not found, run 'skillskit generate --catalog'", resolved)
	}
	return catalog.Open(ctx, resolved)
}

func runCatalogInfo(ctx context.Context, w io.Writer, config *CatalogConfig) error {
	store, err := openExistingCatalog(ctx, config.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Verify(); err != nil {
		return err
	}

	info := catalogInfo{Path: store.Path()}
	if info.SchemaVersion, err = store.SchemaVersion(ctx); err != nil {
		return err
	}
	build, err := store.LastBuild(ctx)
	switch {
	case err == nil:
		info.LastBuild = &build
		info.Skills = build.SkillCount
	case !errors.Is(err, catalog.ErrNotFound):
		return err
	}
	if info.Categories, err = store.Categories(ctx); err != nil {
		return err
	}

	if config.JSONOutput {
		return writeJSON(w, info)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Path:\t%s\n", info.Path)
	fmt.Fprintf(tw, "Schema:\t%d\n", info.SchemaVersion)
	if info.LastBuild == nil {
		fmt.Fprintln(tw, "Last build:\tnever")
	} else {
		fmt.Fprintf(tw, "Last build:\t%s from %s\n", info.LastBuild.BuiltAt.Local().Format(time.RFC3339), info.LastBuild.Source)
		fmt.Fprintf(tw, "Skills:\t%d\n", info.Skills)
	}
	for _, c := range info.Categories {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Name, c.Count)
	}
	return tw.Flush()
}

func runCatalogList(ctx context.Context, w io.Writer, config *CatalogConfig) error {
	if config.Category != "" && config.Tag != "" {
		return errors.New("--category and --tag cannot be combined")
	}

	store, err := openExistingCatalog(ctx, config.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	var list []*skills.ParsedSkill
	switch {
	case config.Category != "":
		list, err = store.ByCategory(ctx, config.Category)
	case config.Tag != "":
		list, err = store.ByTag(ctx, config.Tag)
	default:
		list, err = store.List(ctx)
	}
	if err != nil {
		return err
	}

	if config.JSONOutput {
		return renderSkillsJSON(w, list)
	}
	return renderSkillsTable(w, list)
}
