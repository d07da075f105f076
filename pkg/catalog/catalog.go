// Package catalog persists a loaded skill collection into SQLite so it can be
// queried by name, category and tag without rescanning the skills directory.
package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/skillskit/skillskit/pkg/db"
	"github.com/skillskit/skillskit/pkg/db/migrations"
	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/skills"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const skillColumns = `id, position, name, description, category, version, license,
	author, link, owner, original_source, metadata, content, path`

// Build describes one catalog rebuild.
type Build struct {
	Source     string    `json:"source"`
	SkillCount int       `json:"skillCount"`
	BuiltAt    time.Time `json:"builtAt"`
}

// CategoryCount is a category together with the number of skills in it.
type CategoryCount struct {
	Name  string `db:"name" json:"name"`
	Count int    `db:"count" json:"count"`
}

// Store is the SQLite-backed catalog.
type Store struct {
	db     *sqlx.DB
	dbPath string
}

// Open opens the catalog at dbPath, creating and migrating it as needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	conn, err := db.OpenMigrated(ctx, dbPath, migrations.All())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open catalog")
	}
	return &Store{db: conn, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Verify reports connection settings that drifted from what db.Open applies
func (s *Store) Verify() error {
	return errors.Wrap(db.VerifyConfiguration(s.db), "catalog database misconfigured")
}

// SchemaVersion returns the newest applied migration version
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	versions, err := db.NewMigrationRunner(s.db).AppliedVersions(ctx)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, nil
	}
	return versions[len(versions)-1], nil
}

// Rebuild replaces the catalog contents with list in a single transaction and
// records the build. Collection order is preserved.
func (s *Store) Rebuild(ctx context.Context, list []*skills.ParsedSkill, source string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM skill_tags"); err != nil {
		return errors.Wrap(err, "failed to clear skill tags")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM skills"); err != nil {
		return errors.Wrap(err, "failed to clear skills")
	}

	skillQuery := `
		INSERT INTO skills (
			position, name, description, category, version, license,
			author, link, owner, original_source, metadata, content, path
		) VALUES (
			:position, :name, :description, :category, :version, :license,
			:author, :link, :owner, :original_source, :metadata, :content, :path
		)
	`
	tagQuery := `INSERT INTO skill_tags (skill_id, position, tag) VALUES (:skill_id, :position, :tag)`

	for i, skill := range list {
		res, err := tx.NamedExecContext(ctx, skillQuery, fromParsedSkill(i, skill))
		if err != nil {
			return errors.Wrapf(err, "failed to insert skill '%s'", skill.Metadata.Name)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "failed to read skill id")
		}

		for j, tag := range skill.Metadata.Tags {
			row := dbSkillTag{SkillID: id, Position: j, Tag: tag}
			if _, err := tx.NamedExecContext(ctx, tagQuery, row); err != nil {
				return errors.Wrapf(err, "failed to insert tag '%s' for skill '%s'", tag, skill.Metadata.Name)
			}
		}
	}

	build := dbBuild{Source: source, SkillCount: len(list), BuiltAt: time.Now().UTC()}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO catalog_builds (source, skill_count, built_at) VALUES (:source, :skill_count, :built_at)`,
		build); err != nil {
		return errors.Wrap(err, "failed to record catalog build")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit catalog")
	}

	logger.G(ctx).WithField("skills", len(list)).WithField("source", source).Info("catalog rebuilt")
	return nil
}

// List returns every skill in collection order.
func (s *Store) List(ctx context.Context) ([]*skills.ParsedSkill, error) {
	return s.selectSkills(ctx, "SELECT "+skillColumns+" FROM skills ORDER BY position")
}

// Get returns the first skill with the given name.
func (s *Store) Get(ctx context.Context, name string) (*skills.ParsedSkill, error) {
	var row dbSkill
	query := "SELECT " + skillColumns + " FROM skills WHERE name = ? ORDER BY position LIMIT 1"
	if err := s.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "skill '%s'", name)
		}
		return nil, errors.Wrap(err, "failed to load skill")
	}
	return row.ToParsedSkill(), nil
}

// ByCategory returns skills whose category matches case-insensitively.
func (s *Store) ByCategory(ctx context.Context, category string) ([]*skills.ParsedSkill, error) {
	if category == "" {
		return []*skills.ParsedSkill{}, nil
	}
	query := "SELECT " + skillColumns + " FROM skills WHERE category = ? COLLATE NOCASE ORDER BY position"
	return s.selectSkills(ctx, query, category)
}

// ByTag returns skills carrying the exact tag.
func (s *Store) ByTag(ctx context.Context, tag string) ([]*skills.ParsedSkill, error) {
	query := "SELECT " + skillColumns + ` FROM skills
		WHERE EXISTS (SELECT 1 FROM skill_tags t WHERE t.skill_id = skills.id AND t.tag = ?)
		ORDER BY position`
	return s.selectSkills(ctx, query, tag)
}

// Categories returns the non-empty categories in first-seen order with their
// skill counts.
func (s *Store) Categories(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	query := `SELECT category AS name, COUNT(*) AS count FROM skills
		WHERE category != ''
		GROUP BY category
		ORDER BY MIN(position)`
	if err := s.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, errors.Wrap(err, "failed to query categories")
	}
	if counts == nil {
		counts = []CategoryCount{}
	}
	return counts, nil
}

// LastBuild returns the most recent rebuild record.
func (s *Store) LastBuild(ctx context.Context) (Build, error) {
	var row dbBuild
	query := "SELECT id, source, skill_count, built_at FROM catalog_builds ORDER BY id DESC LIMIT 1"
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Build{}, errors.Wrap(ErrNotFound, "catalog has never been built")
		}
		return Build{}, errors.Wrap(err, "failed to load last build")
	}
	return row.toBuild(), nil
}

func (s *Store) selectSkills(ctx context.Context, query string, args ...any) ([]*skills.ParsedSkill, error) {
	var rows []dbSkill
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to query skills")
	}

	result := make([]*skills.ParsedSkill, len(rows))
	for i := range rows {
		result[i] = rows[i].ToParsedSkill()
	}
	return result, nil
}
