package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/store"
)

type progressRow struct {
	Username     string    `json:"username"`
	Level        int       `json:"level"`
	CurrentIndex int       `json:"current_index"`
	QuizCount    int       `json:"quiz_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type masteryRow struct {
	Username  string          `json:"username"`
	Char      string          `json:"char"`
	Record    json.RawMessage `json:"record"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProgressStore implements store.ProgressStore over PostgREST.
type ProgressStore struct {
	client *Client
}

// NewProgressStore creates a progress store on top of client.
func NewProgressStore(client *Client) *ProgressStore {
	return &ProgressStore{client: client}
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// GetProgress implements store.ProgressStore.GetProgress
func (s *ProgressStore) GetProgress(ctx context.Context, username string) (*domain.UserProgress, error) {
	var rows []progressRow
	err := s.client.do(ctx, request{
		method: http.MethodGet,
		table:  "user_progress",
		query:  url.Values{"select": {"*"}, "username": {eq(username)}},
	}, &rows)
	if err != nil {
		return nil, store.NewStoreError("progress", "get", "failed to fetch progress", err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}

	row := rows[0]
	return &domain.UserProgress{
		Username:     row.Username,
		Level:        row.Level,
		CurrentIndex: row.CurrentIndex,
		QuizCount:    row.QuizCount,
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

// UpsertProgress implements store.ProgressStore.UpsertProgress
func (s *ProgressStore) UpsertProgress(ctx context.Context, progress *domain.UserProgress) error {
	if err := progress.Validate(); err != nil {
		return err
	}
	if progress.UpdatedAt.IsZero() {
		progress.UpdatedAt = time.Now().UTC()
	}

	err := s.client.do(ctx, request{
		method: http.MethodPost,
		table:  "user_progress",
		query:  url.Values{"on_conflict": {"username"}},
		body: progressRow{
			Username:     progress.Username,
			Level:        progress.Level,
			CurrentIndex: progress.CurrentIndex,
			QuizCount:    progress.QuizCount,
			UpdatedAt:    progress.UpdatedAt,
		},
		prefer: preferUpsert,
	}, nil)
	if err != nil {
		return store.NewStoreError("progress", "upsert", "failed to save progress", err)
	}
	return nil
}

// ListMastery implements store.ProgressStore.ListMastery
func (s *ProgressStore) ListMastery(ctx context.Context, username string) ([]domain.WordMastery, error) {
	var rows []masteryRow
	err := s.client.do(ctx, request{
		method: http.MethodGet,
		table:  "word_mastery",
		query:  url.Values{"select": {"*"}, "username": {eq(username)}, "order": {"char.asc"}},
	}, &rows)
	if err != nil {
		return nil, store.NewStoreError("mastery", "list", "failed to fetch mastery", err)
	}

	records := make([]domain.WordMastery, len(rows))
	for i, row := range rows {
		records[i] = domain.WordMastery{
			Username:  row.Username,
			Char:      row.Char,
			Record:    row.Record,
			UpdatedAt: row.UpdatedAt.UTC(),
		}
	}
	return records, nil
}

// UpsertMastery implements store.ProgressStore.UpsertMastery
func (s *ProgressStore) UpsertMastery(ctx context.Context, mastery *domain.WordMastery) error {
	if err := mastery.Validate(); err != nil {
		return err
	}
	if mastery.UpdatedAt.IsZero() {
		mastery.UpdatedAt = time.Now().UTC()
	}

	err := s.client.do(ctx, request{
		method: http.MethodPost,
		table:  "word_mastery",
		query:  url.Values{"on_conflict": {"username,char"}},
		body: masteryRow{
			Username:  mastery.Username,
			Char:      mastery.Char,
			Record:    mastery.Record,
			UpdatedAt: mastery.UpdatedAt,
		},
		prefer: preferUpsert,
	}, nil)
	if err != nil {
		return store.NewStoreError("mastery", "upsert", "failed to save mastery", err)
	}
	return nil
}
