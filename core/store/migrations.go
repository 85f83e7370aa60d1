package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"incidentdash/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

func ApplyMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	dialect := DialectOf(db)
	dir := "migrations/sqlite"
	gooseDialect := goose.DialectSQLite3
	if dialect == DialectPostgres {
		dir = "migrations/postgres"
		gooseDialect = goose.DialectPostgres
	}
	fsys, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	logger.Printf("applying %s migrations", dialect)
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("%s migrations failed: %w", dialect, err)
	}
	logger.Printf("%s migrations applied: %d new", dialect, len(results))
	return nil
}
