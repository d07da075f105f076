package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/skills"
	"github.com/skillskit/skillskit/pkg/telemetry"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check skills for missing or duplicate names and descriptions",
	Long: `Scan the skills root and report every skill without a name or description
and every name defined more than once. Loading itself never rejects such
skills; this command is meant for CI.`,
	Run: func(cmd *cobra.Command, _ []string) {
		count, err := runValidate(cmd.Context())
		if err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				issues := make([]string, 0, len(merr.Errors))
				for _, e := range merr.Errors {
					issues = append(issues, e.Error())
				}
				presenter.Issues(fmt.Sprintf("Problems in %d scanned skills", count), issues)
				err = errors.Errorf("%d problems found", len(issues))
			}
			presenter.Error(err, "Validation failed")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("%d skills are valid", count))
	},
}

func runValidate(ctx context.Context) (int, error) {
	loader, err := newLoader()
	if err != nil {
		return 0, err
	}

	list, err := loader.Scan(ctx)
	if err != nil {
		return 0, err
	}

	err = telemetry.WithSpan(ctx, "skills.validate", func(context.Context) error {
		return skills.Validate(list)
	}, telemetry.SkillsCountKey.Int(len(list)))
	return len(list), err
}
