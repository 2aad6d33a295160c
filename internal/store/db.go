package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/oops"
)

// DB wraps the SQLite connection for the scan journal, tgscan.db.
type DB struct {
	*sql.DB
	path string
}

// Open connects to the journal at path with WAL mode, a busy timeout and
// foreign keys enabled. Call Migrate before use.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, oops.With("path", path).Wrapf(err, "open db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, oops.With("path", path).Wrapf(err, "ping db")
	}
	return &DB{DB: db, path: path}, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
