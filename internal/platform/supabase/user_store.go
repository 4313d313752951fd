package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/store"
)

type userRow struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"hashed_password"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserStore implements store.UserStore over PostgREST.
type UserStore struct {
	client *Client
	logger *slog.Logger
}

// NewUserStore creates a user store on top of client.
func NewUserStore(client *Client, logger *slog.Logger) *UserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{client: client, logger: logger.With(slog.String("component", "user_store"))}
}

var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	err := s.client.do(ctx, request{
		method: http.MethodPost,
		table:  "users",
		body: userRow{
			ID:             user.ID,
			Username:       user.Username,
			HashedPassword: user.HashedPassword,
			CreatedAt:      user.CreatedAt,
			UpdatedAt:      user.UpdatedAt,
		},
		prefer: preferMinimal,
	}, nil)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: %s", store.ErrUsernameTaken, user.Username)
		}
		return store.NewStoreError("user", "create", "failed to insert user", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))
	return nil
}

// GetByUsername implements store.UserStore.GetByUsername
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var rows []userRow
	err := s.client.do(ctx, request{
		method: http.MethodGet,
		table:  "users",
		query:  url.Values{"select": {"*"}, "username": {eq(username)}},
	}, &rows)
	if err != nil {
		return nil, store.NewStoreError("user", "get", "failed to fetch user", err)
	}
	if len(rows) == 0 {
		return nil, store.ErrUserNotFound
	}

	row := rows[0]
	return &domain.User{
		ID:             row.ID,
		Username:       row.Username,
		HashedPassword: row.HashedPassword,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}, nil
}
