package store

import (
	"context"

	"github.com/lingocards/lingo-api/internal/domain"
)

// ProgressStore persists a user's study position and per-character mastery.
type ProgressStore interface {
	// GetProgress returns the stored progress for the user.
	// Returns ErrNotFound when nothing has been saved yet.
	GetProgress(ctx context.Context, username string) (*domain.UserProgress, error)

	// UpsertProgress inserts or replaces the user's progress row.
	UpsertProgress(ctx context.Context, progress *domain.UserProgress) error

	// ListMastery returns every mastery record of the user ordered by character.
	ListMastery(ctx context.Context, username string) ([]domain.WordMastery, error)

	// UpsertMastery inserts or replaces the mastery record for one character.
	UpsertMastery(ctx context.Context, mastery *domain.WordMastery) error
}
