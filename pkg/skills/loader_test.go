package skills

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillskit/skillskit/pkg/frontmatter"
)

const pdfSkill = `---
name: pdf
description: Extract text and tables from PDF files
category: Documents
tags:
  - pdf
  - extraction
---

# PDF

Use pdfplumber for tables.
`

const reviewSkill = `---
name: code-review
description: Review pull requests
metadata:
  category: development
  tags:
    - review
---
# Code Review
`

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	l, err := NewLoader(opts...)
	require.NoError(t, err)
	return l
}

func TestNewLoader(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		l := newTestLoader(t)
		assert.Equal(t, DefaultSkillsDir, l.SkillsDir())
		assert.Empty(t, l.SnapshotPath())
		assert.Equal(t, frontmatter.DialectCompat, l.dialect)
		assert.Equal(t, DefaultExcludes, l.excludes)
	})

	t.Run("options", func(t *testing.T) {
		l := newTestLoader(t,
			WithSkillsDir("/srv/skills"),
			WithSnapshotPath("/srv/skills.json"),
			WithDialect(frontmatter.DialectYAML),
			WithExcludes("tmp-*"),
		)
		assert.Equal(t, "/srv/skills", l.SkillsDir())
		assert.Equal(t, "/srv/skills.json", l.SnapshotPath())
		assert.Equal(t, frontmatter.DialectYAML, l.dialect)
		assert.Equal(t, []string{"tmp-*"}, l.excludes)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewLoader(WithSkillsDir(""))
		assert.Error(t, err)

		_, err = NewLoader(WithDialect("toml"))
		assert.Error(t, err)

		_, err = NewLoader(WithExcludes("[unclosed"))
		assert.Error(t, err)
	})
}

func TestLoadAll_ScansSkillsRoot(t *testing.T) {
	root := t.TempDir()
	pdfDir := writeSkill(t, root, "pdf", pdfSkill)
	writeSkill(t, root, "review", reviewSkill)

	l := newTestLoader(t, WithSkillsDir(root))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, skills, 2)

	assert.ElementsMatch(t, []string{"pdf", "code-review"}, skillNames(skills))

	var pdf *ParsedSkill
	for _, s := range skills {
		if s.Metadata.Name == "pdf" {
			pdf = s
		}
	}
	require.NotNil(t, pdf)
	assert.Equal(t, "Extract text and tables from PDF files", pdf.Metadata.Description)
	assert.Equal(t, "Documents", pdf.Metadata.Category)
	assert.Equal(t, []string{"pdf", "extraction"}, pdf.Metadata.Tags)
	assert.Equal(t, "# PDF\n\nUse pdfplumber for tables.\n", pdf.Content)
	assert.Equal(t, pdfDir, pdf.Path)
}

func TestLoadAll_FaultTolerance(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "good", pdfSkill)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-skill-file"), 0o755))
	writeFile(t, filepath.Join(root, "README.md"), "not a directory")
	writeSkill(t, root, "node_modules", "---\nname: dependency\n---\n")
	writeSkill(t, root, ".hidden", "---\nname: hidden\n---\n")
	writeSkill(t, root, "plain", "# No frontmatter at all\n")

	l := newTestLoader(t, WithSkillsDir(root))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"pdf", ""}, skillNames(skills))
	for _, s := range skills {
		if s.Metadata.Name == "" {
			assert.Equal(t, "# No frontmatter at all\n", s.Content)
			assert.Equal(t, []string{}, s.Metadata.Tags)
		}
	}
}

func TestLoadAll_FollowsSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "skills")
	require.NoError(t, os.MkdirAll(root, 0o755))

	actual := writeSkill(t, tmpDir, filepath.Join("elsewhere", "pdf"), pdfSkill)
	link := filepath.Join(root, "pdf")
	require.NoError(t, os.Symlink(actual, link))

	targetFile := filepath.Join(tmpDir, "somefile.txt")
	writeFile(t, targetFile, "just a file")
	require.NoError(t, os.Symlink(targetFile, filepath.Join(root, "file-link")))
	require.NoError(t, os.Symlink("/non/existent/path", filepath.Join(root, "broken-link")))

	l := newTestLoader(t, WithSkillsDir(root))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "pdf", skills[0].Metadata.Name)
	assert.Equal(t, link, skills[0].Path)
}

func TestLoadAll_FolderMetadataOverrides(t *testing.T) {
	root := t.TempDir()
	dir := writeSkill(t, root, "pdf", pdfSkill)
	writeFile(t, filepath.Join(dir, "metadata.yaml"), "category: Office\ntags:\n  - documents\nowner: team-docs\n")

	l := newTestLoader(t, WithSkillsDir(root))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, skills, 1)

	assert.Equal(t, "Office", skills[0].Metadata.Category)
	assert.Equal(t, []string{"documents"}, skills[0].Metadata.Tags)
	assert.Equal(t, "team-docs", skills[0].Metadata.Owner)
}

func TestLoadAll_NestedMetadataIsLifted(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "review", reviewSkill)

	l := newTestLoader(t, WithSkillsDir(root))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, skills, 1)

	assert.Equal(t, "development", skills[0].Metadata.Category)
	assert.Equal(t, []string{"review"}, skills[0].Metadata.Tags)
}

func TestLoadAll_Cache(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	l := newTestLoader(t, WithSkillsDir(root))
	first, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)

	writeSkill(t, root, "review", reviewSkill)

	second, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Same(t, first[0], second[0])

	reloaded, err := l.Reload(context.Background())
	require.NoError(t, err)
	assert.Len(t, reloaded, 2)
}

func TestLoadAll_EmptyRootIsCached(t *testing.T) {
	root := t.TempDir()
	l := newTestLoader(t, WithSkillsDir(root))

	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, skills)

	writeSkill(t, root, "pdf", pdfSkill)

	skills, err = l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, skills)
}

func TestLoadAll_UnreadableRoot(t *testing.T) {
	l := newTestLoader(t, WithSkillsDir(filepath.Join(t.TempDir(), "missing")))

	_, err := l.LoadAll(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read skills directory")

	_, loaded := l.cachedSkills()
	assert.False(t, loaded)
}

func TestLoadAll_SourceDirOverride(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	override := t.TempDir()
	writeSkill(t, override, "review", reviewSkill)

	snapshot := filepath.Join(t.TempDir(), DefaultSnapshotName)
	require.NoError(t, WriteSnapshot(snapshot, []*ParsedSkill{{Metadata: Metadata{Name: "from-snapshot"}}}))

	l := newTestLoader(t, WithSkillsDir(root), WithSnapshotPath(snapshot))

	skills, err := l.LoadAll(context.Background(), override)
	require.NoError(t, err)
	assert.Equal(t, []string{"code-review"}, skillNames(skills))

	_, loaded := l.cachedSkills()
	assert.False(t, loaded, "override scans must not populate the cache")

	t.Run("unreadable override yields empty list", func(t *testing.T) {
		skills, err := l.LoadAll(context.Background(), filepath.Join(override, "missing"))
		require.NoError(t, err)
		assert.NotNil(t, skills)
		assert.Empty(t, skills)
	})
}

func TestLoadAll_PrefersSnapshot(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	snapshot := filepath.Join(t.TempDir(), DefaultSnapshotName)
	require.NoError(t, WriteSnapshot(snapshot, []*ParsedSkill{
		{Metadata: Metadata{Name: "from-snapshot", Tags: []string{"cached"}}, Content: "body", Path: "/gone"},
	}))

	l := newTestLoader(t, WithSkillsDir(root), WithSnapshotPath(snapshot))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "from-snapshot", skills[0].Metadata.Name)
	assert.Equal(t, []string{"cached"}, skills[0].Metadata.Tags)
}

func TestLoadAll_CorruptSnapshotFallsBack(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	snapshot := filepath.Join(t.TempDir(), DefaultSnapshotName)
	writeFile(t, snapshot, "{not json")

	l := newTestLoader(t, WithSkillsDir(root), WithSnapshotPath(snapshot))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf"}, skillNames(skills))
}

func TestLoadAll_NullSnapshotEntryFallsBack(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	snapshot := filepath.Join(t.TempDir(), DefaultSnapshotName)
	writeFile(t, snapshot, `[null, {"metadata": {"name": "a", "description": "d"}, "content": "", "path": "a"}]`)

	l := newTestLoader(t, WithSkillsDir(root), WithSnapshotPath(snapshot))

	skill, err := l.GetSkillByName(context.Background(), "pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "pdf", skill.Metadata.Name)

	_, err = l.GetSkillByName(context.Background(), "a", "")
	assert.ErrorIs(t, err, ErrSkillNotFound)

	matched, err := l.GetSkillsByCategory(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestLoadAll_MissingSnapshotFallsBack(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	l := newTestLoader(t, WithSkillsDir(root), WithSnapshotPath(filepath.Join(root, "absent.json")))
	skills, err := l.LoadAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf"}, skillNames(skills))
}

func TestLoadAll_ConcurrentFirstCalls(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeSkill(t, root, name, "---\nname: "+name+"\ndescription: d\n---\n")
	}

	l := newTestLoader(t, WithSkillsDir(root))

	const callers = 16
	results := make([][]*ParsedSkill, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			skills, err := l.LoadAll(context.Background(), "")
			assert.NoError(t, err)
			results[i] = skills
		}()
	}
	wg.Wait()

	for _, skills := range results {
		require.Len(t, skills, 4)
		for j := range skills {
			assert.Same(t, results[0][j], skills[j])
		}
	}
}

func TestScan_IgnoresCacheAndSnapshot(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)

	snapshot := filepath.Join(t.TempDir(), DefaultSnapshotName)
	require.NoError(t, WriteSnapshot(snapshot, []*ParsedSkill{{Metadata: Metadata{Name: "stale"}}}))

	l := newTestLoader(t, WithSkillsDir(root), WithSnapshotPath(snapshot))

	skills, err := l.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf"}, skillNames(skills))

	_, loaded := l.cachedSkills()
	assert.False(t, loaded)

	_, err = newTestLoader(t, WithSkillsDir(filepath.Join(root, "missing"))).Scan(context.Background())
	assert.Error(t, err)
}

func TestGetSkillByName(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)
	writeSkill(t, root, "review", reviewSkill)

	l := newTestLoader(t, WithSkillsDir(root))

	skill, err := l.GetSkillByName(context.Background(), "code-review", "")
	require.NoError(t, err)
	assert.Equal(t, "Review pull requests", skill.Metadata.Description)

	_, err = l.GetSkillByName(context.Background(), "Code-Review", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSkillNotFound))

	skill, err = l.GetSkillByName(context.Background(), "pdf", root)
	require.NoError(t, err)
	assert.Equal(t, "pdf", skill.Metadata.Name)
}

func TestGetSkillsByCategory(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)
	writeSkill(t, root, "review", reviewSkill)
	writeSkill(t, root, "uncategorised", "---\nname: loose\n---\n")

	l := newTestLoader(t, WithSkillsDir(root))

	for _, category := range []string{"documents", "DOCUMENTS", "Documents"} {
		skills, err := l.GetSkillsByCategory(context.Background(), category, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"pdf"}, skillNames(skills), category)
	}

	skills, err := l.GetSkillsByCategory(context.Background(), "unknown", "")
	require.NoError(t, err)
	assert.NotNil(t, skills)
	assert.Empty(t, skills)

	skills, err = l.GetSkillsByCategory(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, skills)
}

func TestLoadSkill_YAMLDialect(t *testing.T) {
	root := t.TempDir()
	dir := writeSkill(t, root, "flow", "---\nname: flow\ntags: [a, b]\n---\nbody\n")

	compat := newTestLoader(t)
	skill, err := compat.LoadSkill(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"[a, b]"}, skill.Metadata.Tags)

	yamlLoader := newTestLoader(t, WithDialect(frontmatter.DialectYAML))
	skill, err = yamlLoader.LoadSkill(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, skill.Metadata.Tags)

	writeFile(t, filepath.Join(dir, "SKILL.md"), "---\nname: [broken\n---\nbody\n")
	_, err = yamlLoader.LoadSkill(context.Background(), dir)
	assert.Error(t, err)
}
