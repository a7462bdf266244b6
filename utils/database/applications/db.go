package applications

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationsFS embed.FS

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Target describes how to reach the database behind a DATABASE_URL value.
type Target struct {
	Driver     string
	DSN        string
	MigrateURL string
}

// ResolveTarget maps a DATABASE_URL onto a driver. postgres:// and postgresql://
// URLs use pgx; anything else is treated as a SQLite file path.
func ResolveTarget(databaseURL string) Target {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		rest := databaseURL[strings.Index(databaseURL, "://")+3:]
		return Target{
			Driver:     DriverPostgres,
			DSN:        databaseURL,
			MigrateURL: "pgx5://" + rest,
		}
	}

	path := strings.TrimPrefix(databaseURL, "sqlite3://")
	return Target{
		Driver: DriverSQLite,
		// immediate tx locking serialises concurrent submissions on the write lock
		DSN:        fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", path),
		MigrateURL: "sqlite3://" + path,
	}
}

// Init connects to the database, applies pending migrations and returns the handle.
func Init(databaseURL string) (*sqlx.DB, error) {
	target := ResolveTarget(databaseURL)

	if target.Driver == DriverSQLite {
		dir := filepath.Dir(strings.TrimPrefix(databaseURL, "sqlite3://"))
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	if err := Migrate(target); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to applications database: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration for the target's dialect.
func Migrate(target Target) error {
	dir := "migrations/sqlite"
	if target.Driver == DriverPostgres {
		dir = "migrations/postgres"
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, target.MigrateURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.WithFields(log.Fields{
		"driver":  target.Driver,
		"version": version,
		"dirty":   dirty,
	}).Info("Database migrations applied")
	return nil
}
