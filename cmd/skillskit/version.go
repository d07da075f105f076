package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Long:  `Print the release, commit, build time and Go version as JSON, or one line with --short.`,
	Run: func(cmd *cobra.Command, _ []string) {
		short, _ := cmd.Flags().GetBool("short")
		if err := runVersion(os.Stdout, version.Get(), short); err != nil {
			presenter.Error(err, "Failed to print version")
			os.Exit(1)
		}
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print a single line instead of JSON")
}

func runVersion(w io.Writer, info version.Info, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, info.String())
		return err
	}
	out, err := info.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
