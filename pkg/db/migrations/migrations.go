// Package migrations lists the catalog schema migrations.
package migrations

import (
	"github.com/skillskit/skillskit/pkg/db"
)

// All returns every catalog migration. New migrations are appended here.
func All() []db.Migration {
	return []db.Migration{
		Migration20251018090000CreateSkills(),
		Migration20251018090001AddCatalogIndexes(),
		Migration20251018090002CreateCatalogBuilds(),
	}
}
