package postgres_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/postgres"
	"github.com/lingocards/lingo-api/internal/platform/sqlite"
	"github.com/lingocards/lingo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, "password123")
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
	user.Password = ""
	return user
}

func TestUserStore(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := postgres.NewPostgresUserStore(db, nil, postgres.WithErrorMapper(sqlite.MapError))
	ctx := context.Background()

	user := newStoredUser(t, "xiaoming")
	require.NoError(t, s.Create(ctx, user))

	t.Run("get by username", func(t *testing.T) {
		got, err := s.GetByUsername(ctx, "xiaoming")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.HashedPassword, got.HashedPassword)
		assert.Empty(t, got.Password)
	})

	t.Run("username taken", func(t *testing.T) {
		err := s.Create(ctx, newStoredUser(t, "xiaoming"))
		assert.ErrorIs(t, err, store.ErrUsernameTaken)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("hash required", func(t *testing.T) {
		u, err := domain.NewUser("plain", "password123")
		require.NoError(t, err)
		assert.ErrorIs(t, s.Create(ctx, u), domain.ErrEmptyHashedPassword)
	})
}

func TestProgressStore(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := postgres.NewPostgresProgressStore(db, nil, postgres.WithErrorMapper(sqlite.MapError))
	ctx := context.Background()

	t.Run("missing progress", func(t *testing.T) {
		_, err := s.GetProgress(ctx, "xiaoming")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("upsert twice keeps one row", func(t *testing.T) {
		p := domain.DefaultUserProgress("xiaoming")
		require.NoError(t, s.UpsertProgress(ctx, p))

		p.Level, p.CurrentIndex, p.QuizCount = 3, 42, 10
		require.NoError(t, s.UpsertProgress(ctx, p))

		got, err := s.GetProgress(ctx, "xiaoming")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Level)
		assert.Equal(t, 42, got.CurrentIndex)
		assert.Equal(t, 10, got.QuizCount)
	})

	t.Run("invalid progress", func(t *testing.T) {
		p := domain.DefaultUserProgress("xiaoming")
		p.Level = 0
		assert.ErrorIs(t, s.UpsertProgress(ctx, p), domain.ErrInvalidLevel)
	})

	t.Run("mastery", func(t *testing.T) {
		for _, m := range []domain.WordMastery{
			{Username: "xiaoming", Char: "好", Record: json.RawMessage(`{"correct":1}`)},
			{Username: "xiaoming", Char: "你", Record: json.RawMessage(`{"correct":2}`)},
			{Username: "xiaoming", Char: "好", Record: json.RawMessage(`{"correct":5}`)},
			{Username: "other", Char: "我", Record: json.RawMessage(`{}`)},
		} {
			require.NoError(t, s.UpsertMastery(ctx, &m))
		}

		records, err := s.ListMastery(ctx, "xiaoming")
		require.NoError(t, err)
		require.Len(t, records, 2)

		byChar := map[string]string{}
		for _, r := range records {
			byChar[r.Char] = string(r.Record)
		}
		assert.JSONEq(t, `{"correct":5}`, byChar["好"])
		assert.JSONEq(t, `{"correct":2}`, byChar["你"])
	})
}
