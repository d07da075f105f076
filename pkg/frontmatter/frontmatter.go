// Package frontmatter splits skill documents into their delimited metadata
// block and markdown body, and parses the block into nested values.
//
// The default dialect is a restricted YAML subset walked line by line with a
// stack of open mappings keyed by indentation. It understands scalars,
// booleans, block sequences of scalars and nested mappings, and nothing else:
// flow collections, multi-line scalars, anchors and tags are not supported.
// Parsed values are always one of string, bool, []string or map[string]any.
package frontmatter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Dialect selects how the frontmatter block is parsed.
type Dialect string

const (
	// DialectCompat is the indentation walker described in the package docs.
	DialectCompat Dialect = "compat"
	// DialectYAML parses the block with a full YAML parser.
	DialectYAML Dialect = "yaml"
)

// documentPattern matches a leading "---" line, the block, a closing "---"
// line and the body. Whitespace after either delimiter is absorbed up to the
// last newline of the run, so blank lines between the closing delimiter and
// the body are dropped.
var documentPattern = regexp.MustCompile(`^---\s*\n([\s\S]*?)\n---\s*\n([\s\S]*)$`)

// Document is a parsed skill document.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// ParseDialectName validates a dialect name from configuration. The empty
// string selects DialectCompat.
func ParseDialectName(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case "", DialectCompat:
		return DialectCompat, nil
	case DialectYAML:
		return DialectYAML, nil
	default:
		return "", errors.Errorf("unknown frontmatter dialect %q (expected %q or %q)", name, DialectCompat, DialectYAML)
	}
}

// ParseDialect parses raw with the given dialect.
func ParseDialect(raw string, dialect Dialect) (*Document, error) {
	switch dialect {
	case "", DialectCompat:
		return Parse(raw), nil
	case DialectYAML:
		return ParseYAML(raw)
	default:
		return nil, errors.Errorf("unknown frontmatter dialect %q", dialect)
	}
}

// Parse parses raw with the compat dialect. It never fails: a document
// without a well-formed delimited block is returned whole as the body with an
// empty frontmatter map.
func Parse(raw string) *Document {
	block, body, ok := split(raw)
	if !ok {
		return &Document{Frontmatter: map[string]any{}, Body: raw}
	}
	return &Document{Frontmatter: parseBlock(block), Body: body}
}

func split(raw string) (block, body string, ok bool) {
	m := documentPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

type frame struct {
	node   map[string]any
	indent int
}

func parseBlock(block string) map[string]any {
	root := map[string]any{}
	lines := strings.Split(block, "\n")
	stack := []frame{{node: root, indent: -1}}

	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if insignificant(trimmed) {
			i++
			continue
		}

		indent := indentOf(line)
		for len(stack) > 1 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}
		current := stack[len(stack)-1].node

		// Sequence items are only consumed by collectSequence.
		if strings.HasPrefix(trimmed, "-") {
			i++
			continue
		}

		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			i++
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if value == "" {
			if next, ok := nextSignificant(lines, i+1); ok && indentOf(lines[next]) > indent {
				if strings.HasPrefix(strings.TrimSpace(lines[next]), "-") {
					items, end := collectSequence(lines, next, indent)
					current[key] = items
					i = end
					continue
				}

				nested := map[string]any{}
				current[key] = nested
				stack = append(stack, frame{node: nested, indent: indent})
				i++
				continue
			}
		}

		current[key] = scalar(value)
		i++
	}

	return root
}

// collectSequence gathers dash items starting at lines[start]. It stops at
// the first non-empty, non-dash line that is at or below keyIndent, or
// shallower than the first item. The returned index is the first line not
// consumed.
func collectSequence(lines []string, start, keyIndent int) ([]string, int) {
	itemIndent := indentOf(lines[start])
	items := []string{}

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		isItem := strings.HasPrefix(trimmed, "-")

		if trimmed != "" && !isItem {
			indent := indentOf(lines[i])
			if indent <= keyIndent || indent < itemIndent {
				break
			}
			continue
		}

		if isItem {
			if item := sequenceItem(trimmed); item != "" {
				items = append(items, item)
			}
		}
	}

	return items, i
}

func sequenceItem(trimmed string) string {
	item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
	if item != "" && isQuote(item[0]) {
		item = item[1:]
	}
	if item != "" && isQuote(item[len(item)-1]) {
		item = item[:len(item)-1]
	}
	return item
}

func nextSignificant(lines []string, from int) (int, bool) {
	for j := from; j < len(lines); j++ {
		if !insignificant(strings.TrimSpace(lines[j])) {
			return j, true
		}
	}
	return 0, false
}

func insignificant(trimmed string) bool {
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
}

func unquote(v string) string {
	if len(v) >= 2 && isQuote(v[0]) && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func scalar(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	default:
		return v
	}
}
