package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillskit/skillskit/pkg/catalog"
	"github.com/skillskit/skillskit/pkg/searchindex"
	"github.com/skillskit/skillskit/pkg/skills"
)

func TestRunGenerate_WritesArtifacts(t *testing.T) {
	root := skillsFixture(t)
	out := t.TempDir()
	ctx := context.Background()

	config := &GenerateConfig{
		Output:        filepath.Join(out, "skills.json"),
		SearchMapping: filepath.Join(out, "search-mapping.json"),
		Catalog:       filepath.Join(out, "catalog.db"),
	}

	stats, err := runGenerate(ctx, &bytes.Buffer{}, config)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Skills)
	assert.Equal(t, 3, stats.Categories)
	assert.Equal(t, 4, stats.Tags)
	assert.Equal(t, config.Output, stats.Output)

	snapshot, err := skills.ReadSnapshot(config.Output)
	require.NoError(t, err)
	assert.Len(t, snapshot, 3)

	raw, err := os.ReadFile(config.SearchMapping)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"extract"`)

	store, err := catalog.Open(ctx, config.Catalog)
	require.NoError(t, err)
	defer store.Close()

	build, err := store.LastBuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, root, build.Source)
	assert.Equal(t, 3, build.SkillCount)

	docs, err := store.ByCategory(ctx, "documents")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestRunGenerate_Check(t *testing.T) {
	root := skillsFixture(t)
	ctx := context.Background()
	output := filepath.Join(t.TempDir(), "skills.json")

	var diff bytes.Buffer
	_, err := runGenerate(ctx, &diff, &GenerateConfig{Output: output, Check: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errSnapshotOutdated))
	assert.Contains(t, diff.String(), "+++ "+output+" (generated)")
	assert.NoFileExists(t, output)

	_, err = runGenerate(ctx, &bytes.Buffer{}, &GenerateConfig{Output: output})
	require.NoError(t, err)

	diff.Reset()
	_, err = runGenerate(ctx, &diff, &GenerateConfig{Output: output, Check: true})
	require.NoError(t, err)
	assert.Empty(t, diff.String())

	writeSkill(t, root, "new", "---\nname: new\ndescription: Added later\n---\n")

	diff.Reset()
	_, err = runGenerate(ctx, &diff, &GenerateConfig{Output: output, Check: true})
	require.Error(t, err)
	assert.Contains(t, diff.String(), `"name": "new"`)
}

func TestRunGenerate_Strict(t *testing.T) {
	root := skillsFixture(t)
	writeSkill(t, root, "nameless", "---\ndescription: no name\n---\n")
	output := filepath.Join(t.TempDir(), "skills.json")

	_, err := runGenerate(context.Background(), &bytes.Buffer{}, &GenerateConfig{Output: output, Strict: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill name is required")
	assert.NoFileExists(t, output)

	_, err = runGenerate(context.Background(), &bytes.Buffer{}, &GenerateConfig{Output: output})
	require.NoError(t, err)
	assert.FileExists(t, output)
}

func TestRunGenerate_Errors(t *testing.T) {
	skillsFixture(t)

	_, err := runGenerate(context.Background(), &bytes.Buffer{}, &GenerateConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output path cannot be empty")

	setConfig(t, "skills_dir", filepath.Join(t.TempDir(), "missing"))
	_, err = runGenerate(context.Background(), &bytes.Buffer{}, &GenerateConfig{Output: filepath.Join(t.TempDir(), "x.json")})
	require.Error(t, err)
}

func TestRunGenerate_SnapshotFeedsLoader(t *testing.T) {
	skillsFixture(t)
	output := filepath.Join(t.TempDir(), "skills.json")

	_, err := runGenerate(context.Background(), &bytes.Buffer{}, &GenerateConfig{Output: output})
	require.NoError(t, err)

	setConfig(t, "skills_dir", filepath.Join(t.TempDir(), "missing"))
	setConfig(t, "snapshot", output)

	loader, err := newLoader()
	require.NoError(t, err)
	list, err := loader.LoadAll(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	mapping := searchindex.Build(list)
	assert.Equal(t, []string{"review"}, mapping.Tags["git"].Skills)
}
