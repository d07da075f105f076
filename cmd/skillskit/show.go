package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/skills"
)

// ShowConfig holds configuration for the show command
type ShowConfig struct {
	SourceDir  string
	JSONOutput bool
	NoContent  bool
}

// NewShowConfig creates a new ShowConfig with default values
func NewShowConfig() *ShowConfig {
	return &ShowConfig{}
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a single skill",
	Long:  `Show the merged metadata and markdown body of the skill with the given name.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getShowConfigFromFlags(cmd)
		if err := runShow(cmd.Context(), os.Stdout, args[0], config); err != nil {
			presenter.Error(err, "Failed to show skill")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewShowConfig()
	showCmd.Flags().String("source", defaults.SourceDir, "Scan this directory instead of the configured skills root")
	showCmd.Flags().Bool("json", defaults.JSONOutput, "Output in JSON format")
	showCmd.Flags().Bool("no-content", defaults.NoContent, "Omit the markdown body")
}

func getShowConfigFromFlags(cmd *cobra.Command) *ShowConfig {
	config := NewShowConfig()
	if source, err := cmd.Flags().GetString("source"); err == nil {
		config.SourceDir = source
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	if noContent, err := cmd.Flags().GetBool("no-content"); err == nil {
		config.NoContent = noContent
	}
	return config
}

func runShow(ctx context.Context, w io.Writer, name string, config *ShowConfig) error {
	loader, err := newLoader()
	if err != nil {
		return err
	}

	skill, err := loader.GetSkillByName(ctx, name, config.SourceDir)
	if err != nil {
		return err
	}

	if config.NoContent {
		copied := *skill
		copied.Content = ""
		skill = &copied
	}

	if config.JSONOutput {
		return writeJSON(w, skill)
	}
	renderSkillDetail(w, skill)
	return nil
}

func renderSkillDetail(w io.Writer, skill *skills.ParsedSkill) {
	md := skill.Metadata

	fields := []struct {
		label string
		value string
	}{
		{"Name", md.Name},
		{"Description", md.Description},
		{"Category", md.Category},
		{"Tags", strings.Join(md.Tags, ", ")},
		{"Version", md.Version},
		{"License", md.License},
		{"Author", md.Author},
		{"Link", md.Link},
		{"Owner", md.Owner},
		{"Original Source", md.OriginalSource},
		{"Path", skill.Path},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(w, "%-16s %s\n", f.label+":", f.value)
		}
	}

	if len(md.Extra) > 0 {
		keys := make([]string, 0, len(md.Extra))
		for k := range md.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%-16s %v\n", k+":", md.Extra[k])
		}
	}

	if skill.Content != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, skill.Content)
		if !strings.HasSuffix(skill.Content, "\n") {
			fmt.Fprintln(w)
		}
	}
}
