package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/migrate"
	"github.com/lingocards/lingo-api/internal/store"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// CardTableDDL creates a module card table. %s is the validated table name.
const CardTableDDL = `CREATE TABLE IF NOT EXISTS %s (
    cardid TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    ci INTEGER NOT NULL DEFAULT 5 CHECK (ci >= 0),
    lrd DATE NOT NULL,
    lad DATE NOT NULL,
    is_core BOOLEAN NOT NULL DEFAULT TRUE,
    rc INTEGER NOT NULL DEFAULT 0 CHECK (rc >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// MigrationSource returns the PostgreSQL migrations.
func MigrationSource() migrate.Source {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at compile time
		panic(fmt.Sprintf("embedded migrations missing: %v", err))
	}
	return migrate.Source{Dialect: goose.DialectPostgres, FS: sub}
}

// Migrate applies pending PostgreSQL migrations.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return migrate.Up(ctx, db, MigrationSource(), logger)
}

// EnsureCardTables creates the table of every configured module that does
// not exist yet. Table names come from the validated module registry.
func EnsureCardTables(
	ctx context.Context,
	db store.DBTX,
	modules *domain.ModuleRegistry,
	ddl string,
	mapErr ErrorMapper,
) error {
	if mapErr == nil {
		mapErr = MapError
	}
	for _, id := range modules.IDs() {
		module, err := modules.Lookup(id)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf(ddl, module.Table)); err != nil {
			return store.NewStoreError("card", "ensure_table",
				fmt.Sprintf("failed to create table for module %s", id), mapErr(err))
		}
	}
	return nil
}
