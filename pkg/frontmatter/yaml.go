package frontmatter

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	yamlv2 "gopkg.in/yaml.v2"
)

// ParseYAML parses raw with the yaml dialect. Body extraction is identical to
// Parse; the block itself goes through goldmark-meta, so anything YAML accepts
// is accepted here. Values are normalised to the same shapes Parse produces:
// numbers become strings, sequences become []string and mappings become
// map[string]any.
func ParseYAML(raw string) (*Document, error) {
	block, body, ok := split(raw)
	if !ok {
		return &Document{Frontmatter: map[string]any{}, Body: raw}, nil
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	source := []byte("---\n" + block + "\n---\n")

	if err := md.Convert(source, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse frontmatter")
	}

	data, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid YAML frontmatter")
	}

	fm := make(map[string]any, len(data))
	for k, v := range data {
		fm[k] = normalize(v)
	}

	return &Document{Frontmatter: fm, Body: body}, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return t
	case yamlv2.MapSlice:
		m := make(map[string]any, len(t))
		for _, item := range t {
			m[fmt.Sprint(item.Key)] = normalize(item.Value)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}
		return m
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			if s := fmt.Sprint(item); s != "" {
				items = append(items, s)
			}
		}
		return items
	default:
		return fmt.Sprint(t)
	}
}
