package migrations

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/skillskit/skillskit/pkg/db"
)

// Migration20251018090001AddCatalogIndexes indexes the name, category and
// tag lookups.
func Migration20251018090001AddCatalogIndexes() db.Migration {
	indexes := map[string]string{
		"idx_skills_name":     "skills(name)",
		"idx_skills_category": "skills(category COLLATE NOCASE)",
		"idx_skill_tags_tag":  "skill_tags(tag)",
	}

	return db.Migration{
		Version:     20251018090001,
		Description: "Add catalog lookup indexes",
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			for name, on := range indexes {
				if _, err := tx.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS "+name+" ON "+on); err != nil {
					return errors.Wrapf(err, "failed to create index %s", name)
				}
			}
			return nil
		},
	}
}
