package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

// fakeTable is an in-memory PostgREST table keyed by cardid, supporting the
// filters the card store sends.
type fakeTable struct {
	mu   sync.Mutex
	rows map[string]map[string]any
}

func (f *fakeTable) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		id := strings.TrimPrefix(r.URL.Query().Get("cardid"), "eq.")
		matches := func(key string) bool {
			return r.URL.Query().Get("cardid") == "not.is.null" || key == id
		}

		switch r.Method {
		case http.MethodGet:
			out := []map[string]any{}
			for key, row := range f.rows {
				if id == "" || key == id {
					out = append(out, row)
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			var rows []map[string]any
			if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
				require.NoError(t, json.Unmarshal(body, &rows))
			} else {
				var row map[string]any
				require.NoError(t, json.Unmarshal(body, &row))
				rows = append(rows, row)
			}
			for _, row := range rows {
				key := row["cardid"].(string)
				if _, ok := f.rows[key]; ok {
					w.WriteHeader(http.StatusConflict)
					_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value"}`))
					return
				}
				f.rows[key] = row
			}
			w.WriteHeader(http.StatusCreated)
		case http.MethodPatch:
			var patch map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			out := []map[string]any{}
			for key, row := range f.rows {
				if matches(key) {
					for k, v := range patch {
						row[k] = v
					}
					out = append(out, row)
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		case http.MethodDelete:
			out := []map[string]any{}
			for key, row := range f.rows {
				if matches(key) {
					out = append(out, row)
					delete(f.rows, key)
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		}
	}
}

func newFakeCardStore(t *testing.T) (*CardStore, *fakeTable) {
	t.Helper()
	table := &fakeTable{rows: map[string]map[string]any{}}
	client := newTestClient(t, table.handler(t))
	modules := domain.NewModuleRegistry(map[string]string{"mod1": "mod1_cards"})
	return NewCardStore(client, modules, nil), table
}

func TestCardStore_CreateGetUpdate(t *testing.T) {
	t.Parallel()
	s, _ := newFakeCardStore(t)
	ctx := context.Background()

	card, err := domain.NewCard("mod1", "mod1_card_1", json.RawMessage(`{"title":"你好"}`), today)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, card))

	got, err := s.Get(ctx, "mod1", "mod1_card_1")
	require.NoError(t, err)
	assert.Equal(t, "你好", got.Title)
	assert.Equal(t, card.SRSState, got.SRSState)

	state := got.SRSState
	state.LastApplicationDate = today
	state.ReferenceCount = 1
	require.NoError(t, s.UpdateState(ctx, "mod1", "mod1_card_1", state))

	got, err = s.Get(ctx, "mod1", "mod1_card_1")
	require.NoError(t, err)
	assert.Equal(t, state, got.SRSState)

	updated, err := s.UpdateContent(ctx, "mod1", "mod1_card_1", json.RawMessage(`{"title":"再见"}`))
	require.NoError(t, err)
	assert.Equal(t, "再见", updated.Title)
}

func TestCardStore_NotFoundAndDuplicate(t *testing.T) {
	t.Parallel()
	s, _ := newFakeCardStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "mod1", "ghost")
	assert.ErrorIs(t, err, store.ErrCardNotFound)
	assert.ErrorIs(t, s.UpdateState(ctx, "mod1", "ghost", domain.NewSRSState(today)), store.ErrCardNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "mod1", "ghost"), store.ErrCardNotFound)

	card, err := domain.NewCard("mod1", "c1", nil, today)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, card))
	assert.ErrorIs(t, s.Create(ctx, card), store.ErrCardExists)

	_, err = s.List(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrUnknownModule)
}

func TestCardStore_ReplaceAll(t *testing.T) {
	t.Parallel()
	s, table := newFakeCardStore(t)
	ctx := context.Background()

	old, err := domain.NewCard("mod1", "old", nil, today)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, old))

	var cards []domain.Card
	for _, id := range []string{"a", "b"} {
		c, err := domain.NewCard("mod1", id, nil, today)
		require.NoError(t, err)
		cards = append(cards, *c)
	}
	require.NoError(t, s.ReplaceAll(ctx, "mod1", cards))

	ids, err := s.ListIDs(ctx, "mod1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
	assert.Len(t, table.rows, 2)

	called := false
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, cards store.CardStore) error {
		called = true
		assert.Same(t, s, cards)
		return nil
	}))
	assert.True(t, called)
}

func TestCardStore_LegacyRows(t *testing.T) {
	t.Parallel()
	s, table := newFakeCardStore(t)
	ctx := context.Background()

	table.rows["mod1_card_1"] = map[string]any{
		"cardid":  "mod1_card_1",
		"data":    map[string]any{"title": "hello"},
		"ci":      5,
		"lrd":     "2025-03-01",
		"lad":     "2025-03-10",
		"is_core": 1,
		"rc":      nil,
	}
	table.rows["mod1_card_2"] = map[string]any{
		"cardid":  "mod1_card_2",
		"title":   "",
		"data":    map[string]any{"title": "world"},
		"ci":      3,
		"lrd":     "2025-03-01",
		"lad":     "2025-03-10",
		"is_core": 0,
		"rc":      2,
	}

	cards, err := s.List(ctx, "mod1")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	byID := map[string]domain.Card{}
	for _, c := range cards {
		byID[c.ID] = c
	}
	first := byID["mod1_card_1"]
	assert.Equal(t, "hello", first.Title)
	assert.True(t, first.IsCore)
	assert.Zero(t, first.ReferenceCount)
	assert.Equal(t, 5, first.Interval)

	second := byID["mod1_card_2"]
	assert.Equal(t, "world", second.Title)
	assert.False(t, second.IsCore)
	assert.Equal(t, 2, second.ReferenceCount)
}

func TestCardStore_MalformedRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  map[string]any
	}{
		{"is_core out of range", map[string]any{"ci": 5, "lrd": "2025-03-01", "lad": "2025-03-10", "is_core": 7}},
		{"interval is text", map[string]any{"ci": "five", "lrd": "2025-03-01", "lad": "2025-03-10", "is_core": true}},
		{"interval missing", map[string]any{"ci": nil, "lrd": "2025-03-01", "lad": "2025-03-10", "is_core": true}},
		{"bad date", map[string]any{"ci": 5, "lrd": "March 1st", "lad": "2025-03-10", "is_core": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, table := newFakeCardStore(t)
			tt.row["cardid"] = "mod1_card_1"
			table.rows["mod1_card_1"] = tt.row

			_, err := s.List(context.Background(), "mod1")
			assert.ErrorIs(t, err, domain.ErrInvalidCardState)
			assert.NotErrorIs(t, err, store.ErrStoreUnavailable)
		})
	}
}
