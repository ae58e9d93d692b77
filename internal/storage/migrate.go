package storage

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var embedMigrations embed.FS

// gooseDialects maps driver names to goose dialects, which are also the
// migration directory names.
var gooseDialects = map[string]string{
	DriverPostgres: "postgres",
	DriverSQLite:   "sqlite3",
	DriverMySQL:    "mysql",
}

// UpDBMigrations creates the WordPress posts and options tables with the
// default "wp_" prefix when they do not exist yet.
func UpDBMigrations(ctx context.Context, db *sql.DB, driver string) error {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return errors.Wrapf(ErrUnsupportedDriver, "%q", driver)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.UpContext(ctx, db, "migrations/"+dialect); err != nil {
		return errors.Wrap(err, "applying migrations")
	}
	return nil
}
