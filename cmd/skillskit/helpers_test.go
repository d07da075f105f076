package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// setConfig overrides a viper key for the duration of the test
func setConfig(t *testing.T, key string, value any) {
	t.Helper()
	previous := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, previous) })
}

func writeSkill(t *testing.T, root, dir, content string) {
	t.Helper()
	path := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "SKILL.md"), []byte(content), 0o644))
}

// skillsFixture creates a skills root with three skills and points the
// loader configuration at it
func skillsFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeSkill(t, root, "pdf", "---\nname: pdf\ndescription: Extract text from PDF files\ncategory: Documents\ntags:\n  - pdf\n  - extract\n---\n# PDF\n")
	writeSkill(t, root, "review", "---\nname: review\ndescription: Review pull requests\nmetadata:\n  category: dev\n  tags:\n    - git\n---\n# Review\n")
	writeSkill(t, root, "docx", "---\nname: docx\ndescription: Edit Word documents\ncategory: documents\ntags:\n  - docx\n---\n# DOCX\n")

	setConfig(t, "skills_dir", root)
	setConfig(t, "snapshot", "")
	setConfig(t, "dialect", "")
	setConfig(t, "exclude", []string{})
	return root
}
