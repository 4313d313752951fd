package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/store"
)

// cardRow is the PostgREST representation of a module card row. Rows written
// by older clients store is_core as 0/1, may leave rc null and keep the title
// only inside data, so reads are lenient on those columns.
type cardRow struct {
	CardID    string          `json:"cardid"`
	Title     string          `json:"title"`
	Data      json.RawMessage `json:"data"`
	CI        *int            `json:"ci"`
	LRD       string          `json:"lrd"`
	LAD       string          `json:"lad"`
	IsCore    flexBool        `json:"is_core"`
	RC        *int            `json:"rc"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// flexBool accepts a JSON boolean, 0/1 or null (false). It always encodes as a boolean.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("is_core must be a boolean or 0/1, got %s", data)
	}
	return nil
}

func rowFromCard(card *domain.Card) cardRow {
	created, updated := card.CreatedAt, card.UpdatedAt
	ci, rc := card.Interval, card.ReferenceCount
	return cardRow{
		CardID:    card.ID,
		Title:     card.Title,
		Data:      card.Content,
		CI:        &ci,
		LRD:       domain.FormatDate(card.LastReviewDate),
		LAD:       domain.FormatDate(card.LastApplicationDate),
		IsCore:    flexBool(card.IsCore),
		RC:        &rc,
		CreatedAt: &created,
		UpdatedAt: &updated,
	}
}

func (r cardRow) toCard(module string) (*domain.Card, error) {
	if r.CI == nil {
		return nil, fmt.Errorf("%w: card %s has no interval", domain.ErrInvalidCardState, r.CardID)
	}
	rc := 0
	if r.RC != nil {
		rc = *r.RC
	}
	lrd, err := domain.ParseDate(r.LRD)
	if err != nil {
		return nil, fmt.Errorf("%w: card %s has malformed lrd %q", domain.ErrInvalidCardState, r.CardID, r.LRD)
	}
	lad, err := domain.ParseDate(r.LAD)
	if err != nil {
		return nil, fmt.Errorf("%w: card %s has malformed lad %q", domain.ErrInvalidCardState, r.CardID, r.LAD)
	}

	card := &domain.Card{
		ID:      r.CardID,
		Module:  module,
		Title:   r.Title,
		Content: r.Data,
		SRSState: domain.SRSState{
			Interval:            *r.CI,
			LastReviewDate:      lrd,
			LastApplicationDate: lad,
			IsCore:              bool(r.IsCore),
			ReferenceCount:      rc,
		},
	}
	if len(card.Content) == 0 || string(card.Content) == "null" {
		card.Content = json.RawMessage(`{}`)
	}
	if card.Title == "" {
		card.Title = domain.TitleFromContent(card.Content)
	}
	if r.CreatedAt != nil {
		card.CreatedAt = r.CreatedAt.UTC()
	}
	if r.UpdatedAt != nil {
		card.UpdatedAt = r.UpdatedAt.UTC()
	}
	return card, nil
}

// decodeRows converts raw PostgREST rows into cards. A row that does not fit
// the card shape is reported as invalid card state, not as a store outage.
func decodeRows(module string, raws []json.RawMessage) ([]domain.Card, error) {
	cards := make([]domain.Card, 0, len(raws))
	for i, raw := range raws {
		var row cardRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", domain.ErrInvalidCardState, module, i, err)
		}
		card, err := row.toCard(module)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, nil
}

// CardStore implements store.CardStore over PostgREST. PostgREST offers no
// multi-request transactions, so InTx runs fn directly and ReplaceAll is a
// delete followed by one bulk insert.
type CardStore struct {
	client  *Client
	modules *domain.ModuleRegistry
	logger  *slog.Logger
}

// NewCardStore creates a card store on top of client.
func NewCardStore(client *Client, modules *domain.ModuleRegistry, logger *slog.Logger) *CardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardStore{
		client:  client,
		modules: modules,
		logger:  logger.With(slog.String("component", "card_store")),
	}
}

var _ store.CardStore = (*CardStore)(nil)

func (s *CardStore) table(module string) (string, error) {
	m, err := s.modules.Lookup(module)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, module)
	}
	return m.Table, nil
}

func (s *CardStore) fetch(ctx context.Context, module string, query url.Values) ([]domain.Card, error) {
	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if err := s.client.do(ctx, request{method: http.MethodGet, table: table, query: query}, &rows); err != nil {
		return nil, store.NewStoreError("card", "list", "failed to fetch cards", err)
	}
	return decodeRows(module, rows)
}

// List implements store.CardStore.List
func (s *CardStore) List(ctx context.Context, module string) ([]domain.Card, error) {
	return s.fetch(ctx, module, url.Values{"select": {"*"}, "order": {"cardid.asc"}})
}

// ListIDs implements store.CardStore.ListIDs
func (s *CardStore) ListIDs(ctx context.Context, module string) ([]string, error) {
	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		CardID string `json:"cardid"`
	}
	query := url.Values{"select": {"cardid"}}
	if err := s.client.do(ctx, request{method: http.MethodGet, table: table, query: query}, &rows); err != nil {
		return nil, store.NewStoreError("card", "list_ids", "failed to fetch card ids", err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.CardID
	}
	return ids, nil
}

// Get implements store.CardStore.Get
func (s *CardStore) Get(ctx context.Context, module, id string) (*domain.Card, error) {
	cards, err := s.fetch(ctx, module, url.Values{"select": {"*"}, "cardid": {eq(id)}})
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrCardNotFound, module, id)
	}
	return &cards[0], nil
}

// Create implements store.CardStore.Create
func (s *CardStore) Create(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	table, err := s.table(card.Module)
	if err != nil {
		return err
	}

	err = s.client.do(ctx, request{
		method: http.MethodPost,
		table:  table,
		body:   rowFromCard(card),
		prefer: preferMinimal,
	}, nil)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: %s/%s", store.ErrCardExists, card.Module, card.ID)
		}
		return store.NewStoreError("card", "create", "failed to insert card", err)
	}
	return nil
}

// patch updates one card and returns the rows PostgREST reports as changed.
func (s *CardStore) patch(ctx context.Context, module, id, op string, fields map[string]any) (*domain.Card, error) {
	table, err := s.table(module)
	if err != nil {
		return nil, err
	}

	fields["updated_at"] = time.Now().UTC()
	var rows []json.RawMessage
	err = s.client.do(ctx, request{
		method: http.MethodPatch,
		table:  table,
		query:  url.Values{"cardid": {eq(id)}},
		body:   fields,
		prefer: preferRepresentation,
	}, &rows)
	if err != nil {
		return nil, store.NewStoreError("card", op, "failed to update card", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrCardNotFound, module, id)
	}
	cards, err := decodeRows(module, rows[:1])
	if err != nil {
		return nil, err
	}
	return &cards[0], nil
}

// UpdateContent implements store.CardStore.UpdateContent
func (s *CardStore) UpdateContent(
	ctx context.Context,
	module, id string,
	content json.RawMessage,
) (*domain.Card, error) {
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}
	return s.patch(ctx, module, id, "update_content", map[string]any{
		"data":  content,
		"title": domain.TitleFromContent(content),
	})
}

// UpdateState implements store.CardStore.UpdateState
func (s *CardStore) UpdateState(ctx context.Context, module, id string, state domain.SRSState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	_, err := s.patch(ctx, module, id, "update_state", map[string]any{
		"ci":      state.Interval,
		"lrd":     domain.FormatDate(state.LastReviewDate),
		"lad":     domain.FormatDate(state.LastApplicationDate),
		"is_core": state.IsCore,
		"rc":      state.ReferenceCount,
	})
	return err
}

// Delete implements store.CardStore.Delete
func (s *CardStore) Delete(ctx context.Context, module, id string) error {
	table, err := s.table(module)
	if err != nil {
		return err
	}

	var rows []json.RawMessage
	err = s.client.do(ctx, request{
		method: http.MethodDelete,
		table:  table,
		query:  url.Values{"cardid": {eq(id)}},
		prefer: preferRepresentation,
	}, &rows)
	if err != nil {
		return store.NewStoreError("card", "delete", "failed to delete card", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s/%s", store.ErrCardNotFound, module, id)
	}
	return nil
}

// ReplaceAll implements store.CardStore.ReplaceAll
func (s *CardStore) ReplaceAll(ctx context.Context, module string, cards []domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, err := s.table(module)
	if err != nil {
		return err
	}
	rows := make([]cardRow, len(cards))
	for i := range cards {
		cards[i].Module = module
		if err := cards[i].Validate(); err != nil {
			return fmt.Errorf("card %q: %w", cards[i].ID, err)
		}
		rows[i] = rowFromCard(&cards[i])
	}

	// PostgREST refuses unfiltered deletes.
	err = s.client.do(ctx, request{
		method: http.MethodDelete,
		table:  table,
		query:  url.Values{"cardid": {"not.is.null"}},
		prefer: preferMinimal,
	}, nil)
	if err != nil {
		return store.NewStoreError("card", "replace_all", "failed to clear module", err)
	}

	if len(rows) > 0 {
		err = s.client.do(ctx, request{
			method: http.MethodPost,
			table:  table,
			body:   rows,
			prefer: preferMinimal,
		}, nil)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("%w: duplicate cardid in %s import", store.ErrCardExists, module)
			}
			return store.NewStoreError("card", "replace_all", "failed to insert cards", err)
		}
	}

	log.Info("module cards replaced", slog.String("module", module), slog.Int("count", len(rows)))
	return nil
}

// InTx implements store.CardStore.InTx without a transaction.
func (s *CardStore) InTx(ctx context.Context, fn func(ctx context.Context, cards store.CardStore) error) error {
	return fn(ctx, s)
}
