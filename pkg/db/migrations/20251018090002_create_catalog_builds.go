package migrations

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/skillskit/skillskit/pkg/db"
)

// Migration20251018090002CreateCatalogBuilds adds the rebuild history.
func Migration20251018090002CreateCatalogBuilds() db.Migration {
	return db.Migration{
		Version:     20251018090002,
		Description: "Create catalog_builds table",
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS catalog_builds (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					source TEXT NOT NULL,
					skill_count INTEGER NOT NULL,
					built_at DATETIME NOT NULL
				)
			`)
			return errors.Wrap(err, "failed to create catalog_builds table")
		},
	}
}
