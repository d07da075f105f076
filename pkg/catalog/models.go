package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/skillskit/skillskit/pkg/skills"
)

// JSONField stores T as a JSON text column.
type JSONField[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface
func (j *JSONField[T]) Scan(value any) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.Errorf("cannot scan %T into JSONField", value)
		}
		bytes = []byte(str)
	}

	return json.Unmarshal(bytes, &j.Data)
}

// Value implements the driver.Valuer interface
func (j JSONField[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// dbSkill represents the skills table structure
type dbSkill struct {
	ID             int64                      `db:"id"`
	Position       int                        `db:"position"`
	Name           string                     `db:"name"`
	Description    string                     `db:"description"`
	Category       string                     `db:"category"`
	Version        string                     `db:"version"`
	License        string                     `db:"license"`
	Author         string                     `db:"author"`
	Link           string                     `db:"link"`
	Owner          string                     `db:"owner"`
	OriginalSource string                     `db:"original_source"`
	Metadata       JSONField[skills.Metadata] `db:"metadata"`
	Content        string                     `db:"content"`
	Path           string                     `db:"path"`
}

// dbSkillTag represents the skill_tags table structure
type dbSkillTag struct {
	SkillID  int64  `db:"skill_id"`
	Position int    `db:"position"`
	Tag      string `db:"tag"`
}

// dbBuild represents the catalog_builds table structure
type dbBuild struct {
	ID         int64     `db:"id"`
	Source     string    `db:"source"`
	SkillCount int       `db:"skill_count"`
	BuiltAt    time.Time `db:"built_at"`
}

func fromParsedSkill(position int, s *skills.ParsedSkill) dbSkill {
	m := s.Metadata
	return dbSkill{
		Position:       position,
		Name:           m.Name,
		Description:    m.Description,
		Category:       m.Category,
		Version:        m.Version,
		License:        m.License,
		Author:         m.Author,
		Link:           m.Link,
		Owner:          m.Owner,
		OriginalSource: m.OriginalSource,
		Metadata:       JSONField[skills.Metadata]{Data: m},
		Content:        s.Content,
		Path:           s.Path,
	}
}

// ToParsedSkill converts the row back into the loader's record. The metadata
// column is authoritative; the flattened columns exist for querying.
func (d *dbSkill) ToParsedSkill() *skills.ParsedSkill {
	return &skills.ParsedSkill{
		Metadata: d.Metadata.Data,
		Content:  d.Content,
		Path:     d.Path,
	}
}

func (d *dbBuild) toBuild() Build {
	return Build{
		Source:     d.Source,
		SkillCount: d.SkillCount,
		BuiltAt:    d.BuiltAt,
	}
}
