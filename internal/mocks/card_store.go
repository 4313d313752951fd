package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/store"
)

// MockCardStore implements store.CardStore for testing. Without overrides it
// keeps cards in memory per module.
type MockCardStore struct {
	ListFn          func(ctx context.Context, module string) ([]domain.Card, error)
	ListIDsFn       func(ctx context.Context, module string) ([]string, error)
	GetFn           func(ctx context.Context, module, id string) (*domain.Card, error)
	CreateFn        func(ctx context.Context, card *domain.Card) error
	UpdateContentFn func(ctx context.Context, module, id string, content json.RawMessage) (*domain.Card, error)
	UpdateStateFn   func(ctx context.Context, module, id string, state domain.SRSState) error
	DeleteFn        func(ctx context.Context, module, id string) error
	ReplaceAllFn    func(ctx context.Context, module string, cards []domain.Card) error

	// InTxCalls counts InTx invocations.
	InTxCalls int

	mu    sync.Mutex
	cards map[string]map[string]domain.Card
}

var _ store.CardStore = (*MockCardStore)(nil)

// NewMockCardStore creates a store that knows the given modules. Any other
// module fails with domain.ErrUnknownModule.
func NewMockCardStore(modules ...string) *MockCardStore {
	m := &MockCardStore{cards: make(map[string]map[string]domain.Card, len(modules))}
	for _, module := range modules {
		m.cards[module] = make(map[string]domain.Card)
	}
	return m
}

// Seed stores cards directly, bypassing validation. Useful for corrupt-state tests.
func (m *MockCardStore) Seed(cards ...domain.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, card := range cards {
		if _, ok := m.cards[card.Module]; !ok {
			m.cards[card.Module] = make(map[string]domain.Card)
		}
		m.cards[card.Module][card.ID] = card
	}
}

func (m *MockCardStore) module(module string) (map[string]domain.Card, error) {
	cards, ok := m.cards[module]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModule, module)
	}
	return cards, nil
}

// List implements store.CardStore.List
func (m *MockCardStore) List(ctx context.Context, module string) ([]domain.Card, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, module)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cards, err := m.module(module)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Card, 0, len(cards))
	for _, card := range cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListIDs implements store.CardStore.ListIDs
func (m *MockCardStore) ListIDs(ctx context.Context, module string) ([]string, error) {
	if m.ListIDsFn != nil {
		return m.ListIDsFn(ctx, module)
	}
	cards, err := m.List(ctx, module)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(cards))
	for i, card := range cards {
		ids[i] = card.ID
	}
	return ids, nil
}

// Get implements store.CardStore.Get
func (m *MockCardStore) Get(ctx context.Context, module, id string) (*domain.Card, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, module, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cards, err := m.module(module)
	if err != nil {
		return nil, err
	}
	card, ok := cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return &card, nil
}

// Create implements store.CardStore.Create
func (m *MockCardStore) Create(ctx context.Context, card *domain.Card) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, card)
	}
	if err := card.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cards, err := m.module(card.Module)
	if err != nil {
		return err
	}
	if _, exists := cards[card.ID]; exists {
		return store.ErrCardExists
	}
	cards[card.ID] = *card
	return nil
}

// UpdateContent implements store.CardStore.UpdateContent
func (m *MockCardStore) UpdateContent(
	ctx context.Context,
	module, id string,
	content json.RawMessage,
) (*domain.Card, error) {
	if m.UpdateContentFn != nil {
		return m.UpdateContentFn(ctx, module, id, content)
	}
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cards, err := m.module(module)
	if err != nil {
		return nil, err
	}
	card, ok := cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	card.Content = content
	card.Title = domain.TitleFromContent(content)
	card.UpdatedAt = time.Now().UTC()
	cards[id] = card
	return &card, nil
}

// UpdateState implements store.CardStore.UpdateState
func (m *MockCardStore) UpdateState(ctx context.Context, module, id string, state domain.SRSState) error {
	if m.UpdateStateFn != nil {
		return m.UpdateStateFn(ctx, module, id, state)
	}
	if err := state.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cards, err := m.module(module)
	if err != nil {
		return err
	}
	card, ok := cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	card.SRSState = state
	cards[id] = card
	return nil
}

// Delete implements store.CardStore.Delete
func (m *MockCardStore) Delete(ctx context.Context, module, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, module, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cards, err := m.module(module)
	if err != nil {
		return err
	}
	if _, ok := cards[id]; !ok {
		return store.ErrCardNotFound
	}
	delete(cards, id)
	return nil
}

// ReplaceAll implements store.CardStore.ReplaceAll
func (m *MockCardStore) ReplaceAll(ctx context.Context, module string, cards []domain.Card) error {
	if m.ReplaceAllFn != nil {
		return m.ReplaceAllFn(ctx, module, cards)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.module(module); err != nil {
		return err
	}
	replacement := make(map[string]domain.Card, len(cards))
	for _, card := range cards {
		card.Module = module
		if err := card.Validate(); err != nil {
			return err
		}
		if _, dup := replacement[card.ID]; dup {
			return store.ErrCardExists
		}
		replacement[card.ID] = card
	}
	m.cards[module] = replacement
	return nil
}

// InTx implements store.CardStore.InTx by calling fn with the mock itself.
func (m *MockCardStore) InTx(ctx context.Context, fn func(ctx context.Context, cards store.CardStore) error) error {
	m.mu.Lock()
	m.InTxCalls++
	m.mu.Unlock()
	return fn(ctx, m)
}
