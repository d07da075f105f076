// Package db opens the SQLite file behind the skill catalog and brings its
// schema up to date.
package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	dbFileName = "catalog.db"

	// BasePathEnv relocates the default catalog directory
	BasePathEnv = "SKILLSKIT_BASE_PATH"
)

// pragma is applied on open and checked by VerifyConfiguration. want is the
// value SQLite reports back, which for enums is not the value that was set.
type pragma struct {
	name  string
	value string
	want  string
}

var pragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"foreign_keys", "ON", "1"},
	{"busy_timeout", "5000", "5000"},
	{"temp_store", "MEMORY", "2"},
	{"cache_size", "1000", ""},
}

// DefaultDBPath returns $SKILLSKIT_BASE_PATH/catalog.db, or
// ~/.skillskit/catalog.db when the variable is unset.
func DefaultDBPath() (string, error) {
	if base := os.Getenv(BasePathEnv); base != "" {
		return filepath.Join(base, dbFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".skillskit", dbFileName), nil
}

// Open opens or creates the database at path, creating parent directories,
// and applies the connection pragmas.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	conn, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "failed to ping database %s", path)
	}
	if err := Configure(ctx, conn); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}
	return conn, nil
}

// Configure pins the pool to one connection, since pragmas are per
// connection and a single writer never waits on the file lock, then applies
// the pragmas and confirms WAL took effect.
func Configure(ctx context.Context, conn *sqlx.DB) error {
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	for _, p := range pragmas {
		stmt := "PRAGMA " + p.name + "=" + p.value
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute %s", stmt)
		}
	}

	mode, err := readPragma(ctx, conn, "journal_mode")
	if err != nil {
		return err
	}
	if !strings.EqualFold(mode, "wal") {
		return errors.Errorf("WAL mode not enabled, journal mode is %s", mode)
	}
	return nil
}

// OpenMigrated opens the database at path and applies pending migrations.
func OpenMigrated(ctx context.Context, path string, migrations []Migration) (*sqlx.DB, error) {
	conn, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := NewMigrationRunner(conn).Run(ctx, migrations); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// VerifyConfiguration reports the first pragma whose current value differs
// from what Configure sets.
func VerifyConfiguration(conn *sqlx.DB) error {
	ctx := context.Background()
	for _, p := range pragmas {
		if p.want == "" {
			continue
		}
		got, err := readPragma(ctx, conn, p.name)
		if err != nil {
			return err
		}
		if !strings.EqualFold(got, p.want) {
			return errors.Errorf("expected %s %s, got %s", p.name, p.want, got)
		}
	}
	return nil
}

func readPragma(ctx context.Context, conn *sqlx.DB, name string) (string, error) {
	var value string
	if err := conn.GetContext(ctx, &value, "PRAGMA "+name); err != nil {
		return "", errors.Wrapf(err, "failed to query %s", name)
	}
	return value, nil
}
