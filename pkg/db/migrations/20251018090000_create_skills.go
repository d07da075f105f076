package migrations

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/skillskit/skillskit/pkg/db"
)

// Migration20251018090000CreateSkills creates one row per loaded skill plus
// its ordered tags. Optional metadata columns default to the empty string so
// absent values read back unset.
func Migration20251018090000CreateSkills() db.Migration {
	statements := []struct {
		table string
		ddl   string
	}{
		{"skills", `
			CREATE TABLE IF NOT EXISTS skills (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				position INTEGER NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				version TEXT NOT NULL DEFAULT '',
				license TEXT NOT NULL DEFAULT '',
				author TEXT NOT NULL DEFAULT '',
				link TEXT NOT NULL DEFAULT '',
				owner TEXT NOT NULL DEFAULT '',
				original_source TEXT NOT NULL DEFAULT '',
				metadata TEXT NOT NULL,
				content TEXT NOT NULL,
				path TEXT NOT NULL
			)`},
		{"skill_tags", `
			CREATE TABLE IF NOT EXISTS skill_tags (
				skill_id INTEGER NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				tag TEXT NOT NULL,
				PRIMARY KEY (skill_id, position)
			)`},
	}

	return db.Migration{
		Version:     20251018090000,
		Description: "Create skills and skill_tags tables",
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			for _, s := range statements {
				if _, err := tx.ExecContext(ctx, s.ddl); err != nil {
					return errors.Wrapf(err, "failed to create %s table", s.table)
				}
			}
			return nil
		},
	}
}
