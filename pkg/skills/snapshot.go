package skills

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) ([]*ParsedSkill, error) {
	data, err := lockedfile.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read snapshot %s", path)
	}

	var skills []*ParsedSkill
	if err := json.Unmarshal(data, &skills); err != nil {
		return nil, errors.Wrapf(err, "failed to decode snapshot %s", path)
	}
	if skills == nil {
		skills = []*ParsedSkill{}
	}
	for i, skill := range skills {
		if skill == nil {
			return nil, errors.Errorf("failed to decode snapshot %s: entry %d is null", path, i)
		}
	}

	return skills, nil
}

// EncodeSnapshot renders skills as two-space indented JSON.
func EncodeSnapshot(skills []*ParsedSkill) ([]byte, error) {
	if skills == nil {
		skills = []*ParsedSkill{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(skills); err != nil {
		return nil, errors.Wrap(err, "failed to encode snapshot")
	}

	return buf.Bytes(), nil
}

// WriteSnapshot writes skills to path while holding the file lock, creating
// parent directories as needed.
func WriteSnapshot(path string, skills []*ParsedSkill) error {
	data, err := EncodeSnapshot(skills)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create snapshot directory")
	}

	if err := lockedfile.Write(path, bytes.NewReader(data), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write snapshot %s", path)
	}

	return nil
}

// DiffSnapshot returns a unified diff between the snapshot at path and the
// one skills would produce. It is empty when they match; a missing file
// diffs against nothing.
func DiffSnapshot(path string, skills []*ParsedSkill) (string, error) {
	fresh, err := EncodeSnapshot(skills)
	if err != nil {
		return "", err
	}

	existing, err := lockedfile.Read(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", errors.Wrapf(err, "failed to read snapshot %s", path)
	}

	if bytes.Equal(existing, fresh) {
		return "", nil
	}

	return udiff.Unified(path, path+" (generated)", string(existing), string(fresh)), nil
}
