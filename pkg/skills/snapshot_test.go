package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf", pdfSkill)
	writeSkill(t, root, "review", reviewSkill)

	l := newTestLoader(t, WithSkillsDir(root))
	skills, err := l.Scan(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", DefaultSnapshotName)
	require.NoError(t, WriteSnapshot(path, skills))

	decoded, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, skills, decoded)
}

func TestSnapshot_Format(t *testing.T) {
	data, err := EncodeSnapshot([]*ParsedSkill{{
		Metadata: Metadata{Name: "x", Description: "a <b> & c", Tags: []string{"t"}},
		Content:  "body",
		Path:     "skills/x",
	}})
	require.NoError(t, err)

	expected := `[
  {
    "metadata": {
      "description": "a <b> & c",
      "name": "x",
      "tags": [
        "t"
      ]
    },
    "content": "body",
    "path": "skills/x"
  }
]
`
	assert.Equal(t, expected, string(data))
}

func TestSnapshot_Empty(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	path := filepath.Join(t.TempDir(), "null.json")
	writeFile(t, path, "null")
	skills, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.NotNil(t, skills)
	assert.Empty(t, skills)
}

func TestReadSnapshot_Errors(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, path, `{"metadata": {}}`)
	_, err = ReadSnapshot(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode snapshot")

	path = filepath.Join(t.TempDir(), "null-entry.json")
	writeFile(t, path, `[null, {"metadata": {"name": "a", "description": "d"}, "content": "", "path": "a"}]`)
	_, err = ReadSnapshot(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 0 is null")
}

func TestDiffSnapshot(t *testing.T) {
	skills := []*ParsedSkill{{Metadata: Metadata{Name: "pdf", Description: "old"}}}
	path := filepath.Join(t.TempDir(), DefaultSnapshotName)

	diff, err := DiffSnapshot(path, skills)
	require.NoError(t, err)
	assert.Contains(t, diff, `+      "name": "pdf",`)

	require.NoError(t, WriteSnapshot(path, skills))

	diff, err = DiffSnapshot(path, skills)
	require.NoError(t, err)
	assert.Empty(t, diff)

	skills[0].Metadata.Description = "new"
	diff, err = DiffSnapshot(path, skills)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(diff, "--- "+path), diff)
	assert.Contains(t, diff, `-      "description": "old",`)
	assert.Contains(t, diff, `+      "description": "new",`)
}
