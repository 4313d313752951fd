package store

import (
	"context"
	"encoding/json"

	"github.com/lingocards/lingo-api/internal/domain"
)

// CardStore defines the interface for card data persistence.
// Cards live in one table per module; every method takes the module so
// implementations can resolve it through the configured module registry.
// Unknown modules fail with domain.ErrUnknownModule before any query runs.
type CardStore interface {
	// List returns every card of the module ordered by cardid.
	List(ctx context.Context, module string) ([]domain.Card, error)

	// ListIDs returns the cardids of the module, used to allocate new ids.
	ListIDs(ctx context.Context, module string) ([]string, error)

	// Get retrieves a single card.
	// Returns ErrCardNotFound if the card does not exist in the module.
	Get(ctx context.Context, module, id string) (*domain.Card, error)

	// Create inserts a new card.
	// Returns ErrCardExists if the cardid is already used within the module.
	// Returns validation errors from the domain Card if data is invalid.
	Create(ctx context.Context, card *domain.Card) error

	// UpdateContent replaces the card's content and title and returns the
	// updated card. The SRS state is left untouched.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateContent(ctx context.Context, module, id string, content json.RawMessage) (*domain.Card, error)

	// UpdateState writes the SRS fields of the card.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateState(ctx context.Context, module, id string, state domain.SRSState) error

	// Delete removes a card.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, module, id string) error

	// ReplaceAll deletes every card of the module and inserts the given ones.
	// SQL implementations do both in one transaction.
	ReplaceAll(ctx context.Context, module string, cards []domain.Card) error

	// InTx runs fn against a CardStore bound to a single transaction. The
	// transaction commits when fn returns nil. Stores without transactions
	// call fn directly with themselves.
	InTx(ctx context.Context, fn func(ctx context.Context, cards CardStore) error) error
}
