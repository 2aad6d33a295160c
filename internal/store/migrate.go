package store

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/matheus3301/tgscan/internal/store/migrations"
	"github.com/samber/oops"
)

// MigrateResult reports the schema version after Migrate.
type MigrateResult struct {
	Version uint
	Dirty   bool
	Changed bool
}

// Migrate applies pending embedded migrations. A dirty schema is an error;
// it needs manual repair.
func (db *DB) Migrate() (*MigrateResult, error) {
	errb := oops.With("path", db.path)

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, errb.Wrapf(err, "migration source")
	}
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, errb.Wrapf(err, "migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, errb.Wrapf(err, "migration instance")
	}

	changed := true
	if err := m.Up(); errors.Is(err, migrate.ErrNoChange) {
		changed = false
	} else if err != nil {
		return nil, errb.Wrapf(err, "migration up")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, errb.Wrapf(err, "migration version")
	}
	if dirty {
		return nil, errb.With("version", version).Errorf("schema is dirty at version %d", version)
	}
	return &MigrateResult{Version: version, Dirty: dirty, Changed: changed}, nil
}
