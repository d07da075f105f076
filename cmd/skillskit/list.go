package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/skills"
)

// ListConfig holds configuration for the list command
type ListConfig struct {
	Category   string
	Tag        string
	SourceDir  string
	JSONOutput bool
}

// NewListConfig creates a new ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded skills",
	Long: `List the skills in the configured skills root (or snapshot) with their
category, tags and description.

Examples:
  skillskit list
  skillskit list --category documents
  skillskit list --tag 'pdf*'
  skillskit list --source ./other-skills --json`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getListConfigFromFlags(cmd)
		if err := runList(cmd.Context(), os.Stdout, config); err != nil {
			presenter.Error(err, "Failed to list skills")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().String("category", defaults.Category, "Only list skills in this category (case-insensitive)")
	listCmd.Flags().String("tag", defaults.Tag, "Only list skills with a tag matching this glob")
	listCmd.Flags().String("source", defaults.SourceDir, "Scan this directory instead of the configured skills root")
	listCmd.Flags().Bool("json", defaults.JSONOutput, "Output in JSON format")
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if tag, err := cmd.Flags().GetString("tag"); err == nil {
		config.Tag = tag
	}
	if source, err := cmd.Flags().GetString("source"); err == nil {
		config.SourceDir = source
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	return config
}

func runList(ctx context.Context, w io.Writer, config *ListConfig) error {
	loader, err := newLoader()
	if err != nil {
		return err
	}

	var list []*skills.ParsedSkill
	if config.Category != "" {
		list, err = loader.GetSkillsByCategory(ctx, config.Category, config.SourceDir)
	} else {
		list, err = loader.LoadAll(ctx, config.SourceDir)
	}
	if err != nil {
		return err
	}

	list, err = filterByTagGlob(list, config.Tag)
	if err != nil {
		return err
	}

	if config.JSONOutput {
		return renderSkillsJSON(w, list)
	}
	return renderSkillsTable(w, list)
}

// filterByTagGlob keeps skills with at least one tag matching pattern. An
// empty pattern keeps everything.
func filterByTagGlob(list []*skills.ParsedSkill, pattern string) ([]*skills.ParsedSkill, error) {
	if pattern == "" {
		return list, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid tag pattern %q", pattern)
	}

	matched := []*skills.ParsedSkill{}
	for _, skill := range list {
		for _, tag := range skill.Metadata.Tags {
			if g.Match(tag) {
				matched = append(matched, skill)
				break
			}
		}
	}
	return matched, nil
}

func renderSkillsJSON(w io.Writer, list []*skills.ParsedSkill) error {
	if list == nil {
		list = []*skills.ParsedSkill{}
	}
	return writeJSON(w, list)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSkillsTable(w io.Writer, list []*skills.ParsedSkill) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No skills found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tTAGS\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t--------\t----\t-----------")

	for _, skill := range list {
		md := skill.Metadata
		description := md.Description
		if len(description) > 60 {
			description = strings.TrimSpace(description[:57]) + "..."
		}
		category := md.Category
		if category == "" {
			category = "-"
		}
		tags := strings.Join(md.Tags, ",")
		if tags == "" {
			tags = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", md.Name, category, tags, description)
	}

	return tw.Flush()
}
