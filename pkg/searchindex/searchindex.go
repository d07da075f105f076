// Package searchindex builds the tag and category lookup tables that
// client-side search uses to find skills without loading their content.
package searchindex

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"

	"github.com/skillskit/skillskit/pkg/skills"
)

// DefaultFileName is the conventional name of the written mapping
const DefaultFileName = "search-mapping.json"

// Entry lists the skills carrying a tag or category
type Entry struct {
	Count  int      `json:"count"`
	Skills []string `json:"skills"`
}

// Summary is the subset of skill metadata needed to render a search hit
type Summary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags"`
}

// Mapping is the search mapping artifact
type Mapping struct {
	Tags       map[string]Entry   `json:"tags"`
	Categories map[string]Entry   `json:"categories"`
	Skills     map[string]Summary `json:"skills"`
}

// Build indexes skills by tag and category. Skills without a name cannot be
// referenced and are left out. Skill lists are sorted and counts are
// distinct skills; a later skill with a duplicate name replaces the earlier
// summary.
func Build(list []*skills.ParsedSkill) *Mapping {
	tagSets := make(map[string]map[string]struct{})
	categorySets := make(map[string]map[string]struct{})
	summaries := make(map[string]Summary, len(list))

	for _, skill := range list {
		md := skill.Metadata
		if md.Name == "" {
			continue
		}

		tags := md.Tags
		if tags == nil {
			tags = []string{}
		}
		summaries[md.Name] = Summary{
			Name:        md.Name,
			Description: md.Description,
			Category:    md.Category,
			Tags:        append([]string{}, tags...),
		}

		for _, tag := range tags {
			if tag != "" {
				addTo(tagSets, tag, md.Name)
			}
		}
		if md.Category != "" {
			addTo(categorySets, md.Category, md.Name)
		}
	}

	return &Mapping{
		Tags:       toEntries(tagSets),
		Categories: toEntries(categorySets),
		Skills:     summaries,
	}
}

func addTo(sets map[string]map[string]struct{}, key, name string) {
	set, ok := sets[key]
	if !ok {
		set = make(map[string]struct{})
		sets[key] = set
	}
	set[name] = struct{}{}
}

func toEntries(sets map[string]map[string]struct{}) map[string]Entry {
	entries := make(map[string]Entry, len(sets))
	for key, set := range sets {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		entries[key] = Entry{Count: len(names), Skills: names}
	}
	return entries
}

// Encode renders the mapping as two-space indented JSON
func (m *Mapping) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(err, "failed to encode search mapping")
	}
	return buf.Bytes(), nil
}

// Write stores the mapping at path under the file lock
func (m *Mapping) Write(path string) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create search mapping directory")
	}

	if err := lockedfile.Write(path, bytes.NewReader(data), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write search mapping %s", path)
	}
	return nil
}

// Match returns the sorted names of skills tagged with or categorised as
// term. Tag and category hits are combined.
func (m *Mapping) Match(term string) []string {
	set := make(map[string]struct{})
	for _, name := range m.Tags[term].Skills {
		set[name] = struct{}{}
	}
	for _, name := range m.Categories[term].Skills {
		set[name] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
