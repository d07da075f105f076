package skills

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// stringFields are the metadata keys decoded into string fields. A
// non-scalar value under one of them is kept in Extra instead.
var stringFields = map[string]bool{
	"name":           true,
	"description":    true,
	"category":       true,
	"version":        true,
	"license":        true,
	"author":         true,
	"link":           true,
	"owner":          true,
	"originalSource": true,
}

// optionalFields are written to JSON only when set.
var optionalFields = []string{"category", "version", "license", "author", "link", "owner", "originalSource"}

func decodeMetadata(raw map[string]any) (Metadata, error) {
	input := make(map[string]any, len(raw))
	overflow := make(map[string]any)

	for k, v := range raw {
		switch {
		case k == "tags":
			input[k] = coerceTags(v)
		case stringFields[k] && !isScalar(v):
			overflow[k] = v
		default:
			input[k] = v
		}
	}

	var md Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &md,
		WeaklyTypedInput: true,
		DecodeHook:       boolToString,
	})
	if err != nil {
		return Metadata{}, errors.Wrap(err, "failed to create metadata decoder")
	}
	if err := decoder.Decode(input); err != nil {
		return Metadata{}, errors.Wrap(err, "failed to decode metadata")
	}

	if md.Tags == nil {
		md.Tags = []string{}
	}
	for k, v := range overflow {
		if md.Extra == nil {
			md.Extra = make(map[string]any, len(overflow))
		}
		md.Extra[k] = v
	}

	return md, nil
}

// boolToString keeps frontmatter booleans readable ("true") where a string
// field is expected; the weak decoder alone would produce "1".
var boolToString mapstructure.DecodeHookFuncKind = func(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.Bool && to == reflect.String {
		return strconv.FormatBool(data.(bool)), nil
	}
	return data, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// coerceTags turns a frontmatter tags value into a list. A bare string
// becomes a one-item list; anything unrecognised yields an empty list.
func coerceTags(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case []any:
		tags := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			if s := fmt.Sprint(item); s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{}
	}
}

// MarshalJSON writes the known keys and Extra as one flat object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+len(optionalFields)+3)
	for k, v := range m.Extra {
		out[k] = v
	}

	out["name"] = m.Name
	out["description"] = m.Description
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	out["tags"] = tags

	for _, key := range optionalFields {
		if value := m.field(key); value != "" {
			out[key] = value
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts the flat object produced by MarshalJSON.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for k, v := range raw {
		raw[k] = normalizeNode(v)
	}

	md, err := decodeMetadata(raw)
	if err != nil {
		return err
	}
	*m = md
	return nil
}

func (m Metadata) field(key string) string {
	switch key {
	case "category":
		return m.Category
	case "version":
		return m.Version
	case "license":
		return m.License
	case "author":
		return m.Author
	case "link":
		return m.Link
	case "owner":
		return m.Owner
	case "originalSource":
		return m.OriginalSource
	}
	return ""
}

// normalizeNode converts decoded JSON back into frontmatter node shapes so a
// snapshot round trip reproduces what the loader built.
func normalizeNode(v any) any {
	switch t := v.(type) {
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return t
			}
			items = append(items, s)
		}
		return items
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeNode(val)
		}
		return t
	default:
		return v
	}
}
