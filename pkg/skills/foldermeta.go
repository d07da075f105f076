package skills

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/skillskit/skillskit/pkg/logger"
)

// folderMetadataFiles are tried in order; the first one present wins.
var folderMetadataFiles = []string{
	"metadata.yaml",
	"metadata.yml",
	"metadata.json",
	"metadata.ts",
}

var (
	scriptExportPattern = regexp.MustCompile(
		`export\s+(?:const\s+metadata(?:\s*:\s*[\w.<>\[\]]+)?\s*=|default)\s*(\{[\s\S]*?\})(?:\s+as\s+const)?;`)
	scriptTagsPattern = regexp.MustCompile(`\btags\s*:\s*\[([^\]]+)\]`)
	scriptListSplit   = regexp.MustCompile(`[,\n]`)
	scriptFields      = map[string]*regexp.Regexp{
		"link":           scriptStringField("link"),
		"category":       scriptStringField("category"),
		"owner":          scriptStringField("owner"),
		"originalSource": scriptStringField("originalSource"),
	}
)

func scriptStringField(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + name + "\\s*:\\s*['\"`]([^'\"`]+)['\"`]")
}

// ReadFolderMetadata returns the folder metadata declared in dir, or nil when
// the directory has no declaration file. Unreadable or malformed files are
// logged and treated as absent.
func ReadFolderMetadata(ctx context.Context, dir string) *FolderMetadata {
	for _, name := range folderMetadataFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		fm, err := readFolderMetadataFile(path)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("path", path).Warn("failed to load folder metadata")
			return nil
		}
		return fm
	}

	return nil
}

func readFolderMetadataFile(path string) (*FolderMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read folder metadata")
	}

	var fm FolderMetadata
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fm); err != nil {
			return nil, errors.Wrap(err, "failed to decode YAML folder metadata")
		}
	case ".json":
		if err := json.Unmarshal(data, &fm); err != nil {
			return nil, errors.Wrap(err, "failed to decode JSON folder metadata")
		}
	case ".ts":
		script := parseMetadataScript(string(data))
		if script == nil {
			return nil, errors.New("no exported metadata object found")
		}
		return script, nil
	default:
		return nil, errors.Errorf("unsupported folder metadata file %s", filepath.Base(path))
	}

	fm.Tags = cleanTags(fm.Tags)
	return &fm, nil
}

// parseMetadataScript pulls the metadata object out of a legacy metadata.ts
// file without evaluating it. The object ends at the first "};" (or
// "} as const;"), so inner objects do not cut it short. Only string fields
// and a flat tags array are recognised.
func parseMetadataScript(src string) *FolderMetadata {
	match := scriptExportPattern.FindStringSubmatch(src)
	if match == nil {
		return nil
	}
	object := match[1]

	fm := &FolderMetadata{}
	for name, pattern := range scriptFields {
		m := pattern.FindStringSubmatch(object)
		if m == nil {
			continue
		}
		switch name {
		case "link":
			fm.Link = m[1]
		case "category":
			fm.Category = m[1]
		case "owner":
			fm.Owner = m[1]
		case "originalSource":
			fm.OriginalSource = m[1]
		}
	}

	if m := scriptTagsPattern.FindStringSubmatch(object); m != nil {
		var tags []string
		for _, item := range scriptListSplit.Split(m[1], -1) {
			item = strings.TrimSpace(item)
			item = strings.NewReplacer(`'`, "", `"`, "", "`", "").Replace(item)
			item = strings.TrimLeft(strings.TrimPrefix(item, "-"), " \t")
			tags = append(tags, item)
		}
		fm.Tags = cleanTags(tags)
	}

	return fm
}

func cleanTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
