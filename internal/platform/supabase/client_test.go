package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "service-key", 2, nil, WithRetryBase(time.Millisecond))
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient("", "key", 1, nil)
	assert.Error(t, err)
	_, err = NewClient("https://example.supabase.co", "", 1, nil)
	assert.Error(t, err)

	c, err := NewClient("https://example.supabase.co/", "key", -3, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.supabase.co/rest/v1", c.baseURL)
	assert.Zero(t, c.maxRetries)
}

func TestClientSendsAuthHeaders(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, preferRepresentation, r.Header.Get("Prefer"))
		assert.Equal(t, "/rest/v1/mod1_cards", r.URL.Path)
		assert.Equal(t, "eq.c1", r.URL.Query().Get("cardid"))
		_, _ = w.Write([]byte(`[{"ok":true}]`))
	})

	var out []map[string]bool
	err := c.do(context.Background(), request{
		method: http.MethodPatch,
		table:  "mod1_cards",
		query:  map[string][]string{"cardid": {eq("c1")}},
		body:   map[string]int{"rc": 1},
		prefer: preferRepresentation,
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, []map[string]bool{{"ok": true}}, out)
}

func TestClientRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	err := c.do(context.Background(), request{method: http.MethodGet, table: "users"}, &[]userRow{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.do(context.Background(), request{method: http.MethodGet, table: "users"}, nil)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.EqualValues(t, 3, calls.Load(), "one attempt plus two retries")
}

func TestClientRetriesOnlyIdempotentRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		req   request
		calls int32
	}{
		{"insert", request{method: http.MethodPost, table: "users", body: map[string]string{"username": "a"}, prefer: preferMinimal}, 1},
		{"upsert", request{method: http.MethodPost, table: "user_progress", body: map[string]int{"level": 1}, prefer: preferUpsert}, 3},
		{"patch", request{method: http.MethodPatch, table: "mod1_cards", body: map[string]int{"rc": 1}}, 3},
		{"delete", request{method: http.MethodDelete, table: "mod1_cards"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			})

			err := c.do(context.Background(), tt.req, nil)
			assert.ErrorIs(t, err, store.ErrStoreUnavailable)
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestCardStore_CreateIsNotRepeatedAfterLostResponse(t *testing.T) {
	t.Parallel()

	var inserts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		// The row is stored but the gateway reports a failure.
		if inserts.Add(1) == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value"}`))
	})
	s := NewCardStore(c, domain.NewModuleRegistry(map[string]string{"mod1": "mod1_cards"}), nil)

	card, err := domain.NewCard("mod1", "mod1_card_1", json.RawMessage(`{"title":"你好"}`), time.Now())
	require.NoError(t, err)

	err = s.Create(context.Background(), card)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, store.ErrCardExists)
	assert.EqualValues(t, 1, inserts.Load())
}

func TestClientMapsErrorBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   any
		want   error
	}{
		{"unique violation", http.StatusConflict, APIError{Code: "23505", Message: "duplicate key"}, store.ErrDuplicate},
		{"check violation", http.StatusBadRequest, APIError{Code: "23514", Message: "check"}, store.ErrInvalidEntity},
		{"missing table", http.StatusNotFound, APIError{Code: "PGRST205", Message: "no table"}, store.ErrNotFound},
		{"bad key", http.StatusUnauthorized, APIError{Message: "invalid api key"}, store.ErrStoreUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(tc.body)
			})

			err := c.do(context.Background(), request{method: http.MethodPost, table: "users"}, nil)
			assert.ErrorIs(t, err, tc.want)
			assert.EqualValues(t, 1, calls.Load(), "client errors are not retried")
		})
	}
}
