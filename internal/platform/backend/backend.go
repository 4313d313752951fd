// Package backend opens the configured storage driver and hands out the
// stores built on it.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/lingocards/lingo-api/internal/config"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/migrate"
	"github.com/lingocards/lingo-api/internal/platform/postgres"
	"github.com/lingocards/lingo-api/internal/platform/sqlite"
	"github.com/lingocards/lingo-api/internal/platform/supabase"
	"github.com/lingocards/lingo-api/internal/store"
	"github.com/sethvargo/go-retry"
)

// ErrMigrationsUnsupported is returned by Migrate for drivers whose schema is
// managed outside this service.
var ErrMigrationsUnsupported = errors.New("migrations are not supported by this driver")

const pingBackoffBase = 200 * time.Millisecond

// Backend bundles the stores of one storage driver.
type Backend struct {
	Driver   string
	Cards    store.CardStore
	Users    store.UserStore
	Progress store.ProgressStore

	db         *sql.DB
	migrations migrate.Source
	cardDDL    string
	mapErr     postgres.ErrorMapper
	modules    *domain.ModuleRegistry
	logger     *slog.Logger
}

// Open connects to the configured driver. SQL drivers are pinged with retries
// before Open returns.
func Open(
	ctx context.Context,
	cfg config.DatabaseConfig,
	modules *domain.ModuleRegistry,
	logger *slog.Logger,
) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{Driver: cfg.Driver, modules: modules, logger: logger}

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := ping(ctx, db, cfg.MaxRetries); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", postgres.MapError(err))
		}
		b.useSQL(db, postgres.MigrationSource(), postgres.CardTableDDL, postgres.MapError)

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		b.useSQL(db, sqlite.MigrationSource(), sqlite.CardTableDDL, sqlite.MapError)

	case config.DriverSupabase:
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.MaxRetries, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
		b.Cards = supabase.NewCardStore(client, modules, logger)
		b.Users = supabase.NewUserStore(client, logger)
		b.Progress = supabase.NewProgressStore(client)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logger.Info("storage backend ready", slog.String("driver", cfg.Driver))
	return b, nil
}

func (b *Backend) useSQL(db *sql.DB, src migrate.Source, ddl string, mapErr postgres.ErrorMapper) {
	opt := postgres.WithErrorMapper(mapErr)
	b.db = db
	b.migrations = src
	b.cardDDL = ddl
	b.mapErr = mapErr
	b.Cards = postgres.NewPostgresCardStore(db, b.modules, b.logger, opt)
	b.Users = postgres.NewPostgresUserStore(db, b.logger, opt)
	b.Progress = postgres.NewPostgresProgressStore(db, b.logger, opt)
}

func ping(ctx context.Context, db *sql.DB, maxRetries int) error {
	backoff := retry.WithMaxRetries(uint64(max(0, maxRetries)), retry.NewExponential(pingBackoffBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Migrate runs a migration command and, after "up", creates the card table
// of every configured module.
func (b *Backend) Migrate(ctx context.Context, command string) error {
	if b.db == nil {
		return fmt.Errorf("%w: %s", ErrMigrationsUnsupported, b.Driver)
	}
	if err := migrate.Run(ctx, b.db, b.migrations, command, b.logger); err != nil {
		return err
	}
	if command != migrate.CommandUp {
		return nil
	}
	return postgres.EnsureCardTables(ctx, b.db, b.modules, b.cardDDL, b.mapErr)
}

// Close releases the database connection, if any.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
