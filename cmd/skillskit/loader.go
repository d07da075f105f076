package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/skillskit/skillskit/pkg/frontmatter"
	"github.com/skillskit/skillskit/pkg/skills"
)

// LoaderConfig holds the loader settings shared by all commands
type LoaderConfig struct {
	SkillsDir string
	Snapshot  string
	Dialect   string
	Excludes  []string
}

// NewLoaderConfig creates a LoaderConfig from viper, which merges flags,
// SKILLSKIT_* environment variables and the config file.
func NewLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		SkillsDir: viper.GetString("skills_dir"),
		Snapshot:  viper.GetString("snapshot"),
		Dialect:   viper.GetString("dialect"),
		Excludes:  viper.GetStringSlice("exclude"),
	}
}

// Options converts the configuration into loader options
func (c *LoaderConfig) Options() ([]skills.Option, error) {
	dialect, err := frontmatter.ParseDialectName(c.Dialect)
	if err != nil {
		return nil, err
	}

	skillsDir := c.SkillsDir
	if skillsDir == "" {
		skillsDir = skills.DefaultSkillsDir
	}

	opts := []skills.Option{
		skills.WithSkillsDir(skillsDir),
		skills.WithSnapshotPath(c.Snapshot),
		skills.WithDialect(dialect),
	}
	if len(c.Excludes) > 0 {
		opts = append(opts, skills.WithExcludes(c.Excludes...))
	}
	return opts, nil
}

// newLoader builds a loader from the merged configuration
func newLoader() (*skills.Loader, error) {
	opts, err := NewLoaderConfig().Options()
	if err != nil {
		return nil, errors.Wrap(err, "invalid loader configuration")
	}
	return skills.NewLoader(opts...)
}
