package frontmatter

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Render serialises fm between delimiter lines followed by body. Parsing the
// result with Parse yields an equivalent frontmatter map for any value Parse
// itself can produce. The body survives unchanged as long as it does not start
// with whitespace, which the delimiter absorbs.
func Render(fm map[string]any, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	if len(fm) == 0 {
		buf.WriteString("\n")
	} else {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(fm); err != nil {
			return "", errors.Wrap(err, "failed to encode frontmatter")
		}
		if err := enc.Close(); err != nil {
			return "", errors.Wrap(err, "failed to flush frontmatter")
		}
	}

	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.String(), nil
}
