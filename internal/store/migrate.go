package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// EnsureSchemaAccess checks the database is reachable and that the current
// user may create the favorites table. A user without CREATE on the public
// schema is accepted when the table already exists, so a DBA can pre-create
// it for a restricted role.
func EnsureSchemaAccess(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	var canCreate bool
	if err := db.QueryRow(`SELECT has_schema_privilege(current_user, 'public', 'CREATE')`).Scan(&canCreate); err != nil {
		return fmt.Errorf("check schema privilege: %w", err)
	}
	if canCreate {
		return nil
	}
	var exists bool
	if err := db.QueryRow(`SELECT to_regclass('public.favorites') IS NOT NULL`).Scan(&exists); err != nil {
		return fmt.Errorf("check favorites table: %w", err)
	}
	if !exists {
		return errors.New("favorites table is missing and the current database user lacks CREATE on schema public; " +
			"ask your database admin to run the migrations in ./migrations")
	}
	return nil
}

// RunMigrations runs SQL migrations from the given directory (e.g. "file://migrations") against the DSN.
func RunMigrations(dsn string, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate.Up: %w", err)
	}
	return nil
}
