package db

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// PostgresSchema is the idempotent Postgres DDL.
//
//go:embed migrations/postgres/schema.sql
var PostgresSchema string

// MigrateSQLite applies every pending embedded SQLite migration. A database
// already at the latest version is not an error.
func MigrateSQLite(conn *sql.DB) error {
	m, err := newSQLiteMigrate(conn)
	if err != nil {
		return err
	}
	// m is not closed: closing it would close conn.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return eris.Wrap(err, "db: sqlite migrate up")
	}
	return nil
}

// SQLiteSchemaVersion returns the applied migration version and dirty flag.
// A fresh database reports version 0.
func SQLiteSchemaVersion(conn *sql.DB) (uint, bool, error) {
	m, err := newSQLiteMigrate(conn)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrap(err, "db: sqlite migrate version")
	}
	return version, dirty, nil
}

func newSQLiteMigrate(conn *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(sqliteMigrations, "migrations/sqlite")
	if err != nil {
		return nil, eris.Wrap(err, "db: open embedded migrations")
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return nil, eris.Wrap(err, "db: sqlite migrate driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, eris.Wrap(err, "db: new migrate instance")
	}
	m.Log = migrateLogger{log: zap.L().Named("migrate")}
	return m, nil
}

// migrateLogger adapts zap to migrate.Logger.
type migrateLogger struct {
	log *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Sugar().Debugf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
