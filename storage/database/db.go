package database

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

const driverName = "sqlite3"

// dsn builds the go-sqlite3 connection string for path:
// foreign keys on, WAL journal, busy timeout and immediate write transactions.
func dsn(path string) string {
	q := make(url.Values)
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_txlock", "immediate")

	u := url.URL{
		Scheme:   "file",
		Opaque:   path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open opens (or creates) the SQLite file at conf.Database.Path, creating its directory if missing.
func Open(conf *core.Config) (*sqlx.DB, error) {
	path := conf.Database.Path
	if path == "" {
		return nil, errors.New("empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	db, err := sqlx.Open(driverName, dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// SQLite allows a single writer; one connection keeps writers queued in the pool
	// instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return db, nil
}

// Migrate creates the schema if it does not exist yet. It is idempotent.
func Migrate(db *sqlx.DB) error {
	ctx := context.Background()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrating database")
		}
	}
	return nil
}

// Setup opens the database and makes sure its schema exists.
func Setup(conf *core.Config) (*sqlx.DB, error) {
	db, err := Open(conf)
	if err != nil {
		return nil, err
	}
	if err = Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
