// Package sqlite opens the embedded SQLite backend (modernc.org/sqlite, no
// cgo) and maps its errors. The stores themselves are shared with
// internal/platform/postgres.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/lingocards/lingo-api/internal/platform/migrate"
	"github.com/lingocards/lingo-api/internal/store"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// CardTableDDL creates a module card table. %s is the validated table name.
const CardTableDDL = `CREATE TABLE IF NOT EXISTS %s (
    cardid TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL DEFAULT '{}',
    ci INTEGER NOT NULL DEFAULT 5 CHECK (ci >= 0),
    lrd DATE NOT NULL,
    lad DATE NOT NULL,
    is_core BOOLEAN NOT NULL DEFAULT TRUE,
    rc INTEGER NOT NULL DEFAULT 0 CHECK (rc >= 0),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Open opens a SQLite database. dsn is a file path or a modernc DSN such as
// "file:lingo.db" or "file::memory:". SQLite allows one writer, so the pool
// holds a single connection; this also keeps in-memory databases shared.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is empty")
	}
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", MapError(err))
	}
	return db, nil
}

// MigrationSource returns the SQLite migrations.
func MigrationSource() migrate.Source {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at compile time
		panic(fmt.Sprintf("embedded migrations missing: %v", err))
	}
	return migrate.Source{Dialect: goose.DialectSQLite3, FS: sub}
}

// Migrate applies pending SQLite migrations.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return migrate.Up(ctx, db, MigrationSource(), logger)
}

// MapError maps a SQLite error to the store error taxonomy, mirroring
// postgres.MapError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK,
			sqlite3.SQLITE_CONSTRAINT_NOTNULL,
			sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
}
