package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	// Registered so a plain database/sql.Open("postgres", dsn) path is
	// available to the migration CLI command alongside the pgx-backed
	// runtime pool.
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending migration in migrations/ against db
// using goose, in embedded-filesystem mode so the binary carries its own
// schema.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// OpenForMigration opens a plain database/sql connection via the
// lib/pq-registered "postgres" driver, for use by the migration CLI command
// which runs independently of the long-lived pgx pool.
func OpenForMigration(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database for migration: %w", err)
	}

	return db, nil
}
