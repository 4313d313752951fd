package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface.
type PostgresProgressStore struct {
	db     store.DBTX
	mapErr ErrorMapper
	logger *slog.Logger
}

// NewPostgresProgressStore creates a SQL implementation of the ProgressStore interface.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger, opts ...Option) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := applyOptions(opts)
	return &PostgresProgressStore{
		db:     db,
		mapErr: o.mapErr,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// GetProgress implements store.ProgressStore.GetProgress
func (s *PostgresProgressStore) GetProgress(ctx context.Context, username string) (*domain.UserProgress, error) {
	query := `
		SELECT username, level, current_index, quiz_count, updated_at
		FROM user_progress
		WHERE username = $1
	`

	var (
		p       domain.UserProgress
		updated timeValue
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&p.Username,
		&p.Level,
		&p.CurrentIndex,
		&p.QuizCount,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("username", username))
		return nil, store.NewStoreError("progress", "get", "failed to query progress", s.mapErr(err))
	}

	p.UpdatedAt = updated.Time.UTC()
	return &p, nil
}

// UpsertProgress implements store.ProgressStore.UpsertProgress
func (s *PostgresProgressStore) UpsertProgress(ctx context.Context, progress *domain.UserProgress) error {
	if err := progress.Validate(); err != nil {
		return err
	}
	if progress.UpdatedAt.IsZero() {
		progress.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO user_progress (username, level, current_index, quiz_count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE SET
			level = EXCLUDED.level,
			current_index = EXCLUDED.current_index,
			quiz_count = EXCLUDED.quiz_count,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		progress.Username,
		progress.Level,
		progress.CurrentIndex,
		progress.QuizCount,
		progress.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save progress",
			slog.String("error", err.Error()),
			slog.String("username", progress.Username))
		return store.NewStoreError("progress", "upsert", "failed to save progress", s.mapErr(err))
	}
	return nil
}

// ListMastery implements store.ProgressStore.ListMastery
func (s *PostgresProgressStore) ListMastery(ctx context.Context, username string) ([]domain.WordMastery, error) {
	query := `
		SELECT username, char, record, updated_at
		FROM word_mastery
		WHERE username = $1
		ORDER BY char
	`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, store.NewStoreError("mastery", "list", "failed to query mastery", s.mapErr(err))
	}
	defer func() { _ = rows.Close() }()

	var records []domain.WordMastery
	for rows.Next() {
		var (
			m       domain.WordMastery
			record  []byte
			updated timeValue
		)
		if err := rows.Scan(&m.Username, &m.Char, &record, &updated); err != nil {
			return nil, store.NewStoreError("mastery", "list", "failed to read mastery", s.mapErr(err))
		}
		m.Record = json.RawMessage(record)
		m.UpdatedAt = updated.Time.UTC()
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("mastery", "list", "failed to iterate mastery", s.mapErr(err))
	}
	return records, nil
}

// UpsertMastery implements store.ProgressStore.UpsertMastery
func (s *PostgresProgressStore) UpsertMastery(ctx context.Context, mastery *domain.WordMastery) error {
	if err := mastery.Validate(); err != nil {
		return err
	}
	if mastery.UpdatedAt.IsZero() {
		mastery.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO word_mastery (username, char, record, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username, char) DO UPDATE SET
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		mastery.Username,
		mastery.Char,
		string(mastery.Record),
		mastery.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save mastery",
			slog.String("error", err.Error()),
			slog.String("username", mastery.Username),
			slog.String("char", mastery.Char))
		return store.NewStoreError("mastery", "upsert", "failed to save mastery", s.mapErr(err))
	}
	return nil
}
