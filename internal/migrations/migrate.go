package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/Simplici0/invoice-roi/internal/config"
)

//go:embed sql/*.sql
var files embed.FS

const dir = "sql"

// Dialect maps a database driver name to its goose dialect.
func Dialect(driver string) (string, error) {
	switch driver {
	case config.DriverSQLite, "":
		return "sqlite3", nil
	case config.DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driver)
	}
}

// Up runs all pending embedded SQL migrations.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	dialect, err := Dialect(driver)
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
