// Package skills turns a directory of skill folders into structured records.
// Each folder holds a SKILL.md document with a frontmatter block and may carry
// a companion metadata file whose fields take precedence over the frontmatter.
package skills

// ParsedSkill is a loaded skill: merged metadata, the markdown body and the
// directory it was read from.
type ParsedSkill struct {
	Metadata Metadata `json:"metadata"`
	Content  string   `json:"content"`
	Path     string   `json:"path"`
}

// FolderMetadata is the optional per-folder declaration that overrides
// frontmatter for linking, grouping and ownership.
type FolderMetadata struct {
	Link           string   `json:"link,omitempty" yaml:"link,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category       string   `json:"category,omitempty" yaml:"category,omitempty"`
	Owner          string   `json:"owner,omitempty" yaml:"owner,omitempty"`
	OriginalSource string   `json:"originalSource,omitempty" yaml:"originalSource,omitempty"`
}

// Metadata is the canonical skill metadata after merging. Keys without a
// dedicated field are kept in Extra and serialised alongside the known ones.
type Metadata struct {
	Name           string         `mapstructure:"name"`
	Description    string         `mapstructure:"description"`
	Category       string         `mapstructure:"category"`
	Tags           []string       `mapstructure:"tags"`
	Version        string         `mapstructure:"version"`
	License        string         `mapstructure:"license"`
	Author         string         `mapstructure:"author"`
	Link           string         `mapstructure:"link"`
	Owner          string         `mapstructure:"owner"`
	OriginalSource string         `mapstructure:"originalSource"`
	Extra          map[string]any `mapstructure:",remain"`
}
