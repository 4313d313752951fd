package store

import (
	"context"

	"github.com/lingocards/lingo-api/internal/domain"
)

// UserStore defines the interface for user account persistence.
type UserStore interface {
	// Create saves a new user. The user must already carry HashedPassword;
	// hashing belongs to the auth service.
	// Returns ErrUsernameTaken if the username is already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername retrieves a user by username.
	// Returns ErrUserNotFound if the user does not exist.
	// The returned user contains all fields except the plaintext password.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
