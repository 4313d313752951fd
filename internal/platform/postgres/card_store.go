package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/store"
)

const cardColumns = `cardid, title, data, ci, lrd, lad, is_core, rc, created_at, updated_at`

// Option configures the SQL stores.
type Option func(*storeOptions)

type storeOptions struct {
	mapErr ErrorMapper
}

// WithErrorMapper replaces MapError, e.g. with the SQLite mapper.
func WithErrorMapper(m ErrorMapper) Option {
	return func(o *storeOptions) {
		if m != nil {
			o.mapErr = m
		}
	}
}

func applyOptions(opts []Option) storeOptions {
	o := storeOptions{mapErr: MapError}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PostgresCardStore implements the store.CardStore interface
// on top of a SQL database, one table per module.
type PostgresCardStore struct {
	db      store.DBTX
	modules *domain.ModuleRegistry
	mapErr  ErrorMapper
	logger  *slog.Logger
}

// NewPostgresCardStore creates a SQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(
	db store.DBTX,
	modules *domain.ModuleRegistry,
	logger *slog.Logger,
	opts ...Option,
) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if modules == nil {
		panic("modules cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := applyOptions(opts)
	return &PostgresCardStore{
		db:      db,
		modules: modules,
		mapErr:  o.mapErr,
		logger:  logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx returns a store bound to the given transaction.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) *PostgresCardStore {
	return &PostgresCardStore{
		db:      tx,
		modules: s.modules,
		mapErr:  s.mapErr,
		logger:  s.logger,
	}
}

// InTx implements store.CardStore.InTx.
// A store already bound to a transaction runs fn inside it.
func (s *PostgresCardStore) InTx(
	ctx context.Context,
	fn func(ctx context.Context, cards store.CardStore) error,
) error {
	beginner, ok := s.db.(store.TxBeginner)
	if !ok {
		return fn(ctx, s)
	}
	var fnErr error
	err := store.RunInTransaction(ctx, beginner, func(ctx context.Context, tx *sql.Tx) error {
		fnErr = fn(ctx, s.WithTx(tx))
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return store.NewStoreError("card", "transaction", "transaction failed", s.mapErr(err))
	}
	return err
}

func (s *PostgresCardStore) table(module string) (string, error) {
	m, err := s.modules.Lookup(module)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, module)
	}
	return m.Table, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(module string, row rowScanner) (*domain.Card, error) {
	var (
		card             domain.Card
		data             []byte
		lrd, lad         timeValue
		created, updated timeValue
	)

	err := row.Scan(
		&card.ID,
		&card.Title,
		&data,
		&card.Interval,
		&lrd,
		&lad,
		&card.IsCore,
		&card.ReferenceCount,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	card.Module = module
	card.Content = json.RawMessage(data)
	card.LastReviewDate = lrd.Day()
	card.LastApplicationDate = lad.Day()
	card.CreatedAt = created.Time.UTC()
	card.UpdatedAt = updated.Time.UTC()
	return &card, nil
}

// List implements store.CardStore.List
func (s *PostgresCardStore) List(ctx context.Context, module string) ([]domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY cardid`, cardColumns, table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list cards",
			slog.String("error", err.Error()),
			slog.String("module", module))
		return nil, store.NewStoreError("card", "list", "failed to query cards", s.mapErr(err))
	}
	defer func() { _ = rows.Close() }()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(module, rows)
		if err != nil {
			log.Error("failed to scan card row",
				slog.String("error", err.Error()),
				slog.String("module", module))
			return nil, store.NewStoreError("card", "list", "failed to read card", s.mapErr(err))
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card", "list", "failed to iterate cards", s.mapErr(err))
	}

	log.Debug("listed cards", slog.String("module", module), slog.Int("count", len(cards)))
	return cards, nil
}

// ListIDs implements store.CardStore.ListIDs
func (s *PostgresCardStore) ListIDs(ctx context.Context, module string) ([]string, error) {
	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT cardid FROM %s`, table))
	if err != nil {
		return nil, store.NewStoreError("card", "list_ids", "failed to query card ids", s.mapErr(err))
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, store.NewStoreError("card", "list_ids", "failed to read card id", s.mapErr(err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card", "list_ids", "failed to iterate card ids", s.mapErr(err))
	}
	return ids, nil
}

// Get implements store.CardStore.Get
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) Get(ctx context.Context, module, id string) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE cardid = $1`, cardColumns, table)
	card, err := scanCard(module, s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("module", module), slog.String("card_id", id))
			return nil, fmt.Errorf("%w: %s/%s", store.ErrCardNotFound, module, id)
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("module", module),
			slog.String("card_id", id))
		return nil, store.NewStoreError("card", "get", "failed to query card", s.mapErr(err))
	}
	return card, nil
}

// Create implements store.CardStore.Create
// Returns store.ErrCardExists if the cardid is already taken in the module.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID))
		return err
	}

	table, err := s.table(card.Module)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, table, cardColumns)

	_, err = s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.Title,
		string(card.Content),
		card.Interval,
		domain.FormatDate(card.LastReviewDate),
		domain.FormatDate(card.LastApplicationDate),
		card.IsCore,
		card.ReferenceCount,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		mapped := s.mapErr(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			log.Warn("card already exists",
				slog.String("module", card.Module),
				slog.String("card_id", card.ID))
			return fmt.Errorf("%w: %s/%s", store.ErrCardExists, card.Module, card.ID)
		}
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("module", card.Module),
			slog.String("card_id", card.ID))
		return store.NewStoreError("card", "create", "failed to insert card", mapped)
	}

	log.Debug("card created", slog.String("module", card.Module), slog.String("card_id", card.ID))
	return nil
}

// UpdateContent implements store.CardStore.UpdateContent
func (s *PostgresCardStore) UpdateContent(
	ctx context.Context,
	module, id string,
	content json.RawMessage,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}

	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET data = $1, title = $2, updated_at = $3
		WHERE cardid = $4
		RETURNING %s
	`, table, cardColumns)

	row := s.db.QueryRowContext(ctx, query,
		string(content),
		domain.TitleFromContent(content),
		time.Now().UTC(),
		id,
	)
	card, err := scanCard(module, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", store.ErrCardNotFound, module, id)
		}
		log.Error("failed to update card content",
			slog.String("error", err.Error()),
			slog.String("module", module),
			slog.String("card_id", id))
		return nil, store.NewStoreError("card", "update_content", "failed to update card", s.mapErr(err))
	}

	log.Debug("card content updated", slog.String("module", module), slog.String("card_id", id))
	return card, nil
}

// UpdateState implements store.CardStore.UpdateState
func (s *PostgresCardStore) UpdateState(
	ctx context.Context,
	module, id string,
	state domain.SRSState,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return err
	}

	table, err := s.table(module)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET ci = $1, lrd = $2, lad = $3, is_core = $4, rc = $5, updated_at = $6
		WHERE cardid = $7
	`, table)

	result, err := s.db.ExecContext(ctx, query,
		state.Interval,
		domain.FormatDate(state.LastReviewDate),
		domain.FormatDate(state.LastApplicationDate),
		state.IsCore,
		state.ReferenceCount,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update card state",
			slog.String("error", err.Error()),
			slog.String("module", module),
			slog.String("card_id", id))
		return store.NewStoreError("card", "update_state", "failed to update card state", s.mapErr(err))
	}

	if err := CheckRowsAffected(result, fmt.Errorf("%w: %s/%s", store.ErrCardNotFound, module, id)); err != nil {
		return err
	}

	log.Debug("card state updated",
		slog.String("module", module),
		slog.String("card_id", id),
		slog.String("lrd", domain.FormatDate(state.LastReviewDate)),
		slog.String("lad", domain.FormatDate(state.LastApplicationDate)),
		slog.Int("rc", state.ReferenceCount))
	return nil
}

// Delete implements store.CardStore.Delete
func (s *PostgresCardStore) Delete(ctx context.Context, module, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := s.table(module)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE cardid = $1`, table), id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("module", module),
			slog.String("card_id", id))
		return store.NewStoreError("card", "delete", "failed to delete card", s.mapErr(err))
	}

	if err := CheckRowsAffected(result, fmt.Errorf("%w: %s/%s", store.ErrCardNotFound, module, id)); err != nil {
		return err
	}

	log.Info("card deleted", slog.String("module", module), slog.String("card_id", id))
	return nil
}

// ReplaceAll implements store.CardStore.ReplaceAll
// The delete and the inserts share one transaction.
func (s *PostgresCardStore) ReplaceAll(ctx context.Context, module string, cards []domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := s.table(module)
	if err != nil {
		return err
	}
	for i := range cards {
		cards[i].Module = module
		if err := cards[i].Validate(); err != nil {
			return fmt.Errorf("card %q: %w", cards[i].ID, err)
		}
	}

	err = s.InTx(ctx, func(ctx context.Context, tx store.CardStore) error {
		txStore := tx.(*PostgresCardStore)
		if _, err := txStore.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return store.NewStoreError("card", "replace_all", "failed to clear module", s.mapErr(err))
		}
		for i := range cards {
			if err := txStore.Create(ctx, &cards[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to replace module cards",
			slog.String("error", err.Error()),
			slog.String("module", module))
		return err
	}

	log.Info("module cards replaced", slog.String("module", module), slog.Int("count", len(cards)))
	return nil
}
