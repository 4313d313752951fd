package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/store"
)

// MockProgressStore implements store.ProgressStore for testing
type MockProgressStore struct {
	GetProgressFn    func(ctx context.Context, username string) (*domain.UserProgress, error)
	UpsertProgressFn func(ctx context.Context, progress *domain.UserProgress) error
	ListMasteryFn    func(ctx context.Context, username string) ([]domain.WordMastery, error)
	UpsertMasteryFn  func(ctx context.Context, mastery *domain.WordMastery) error

	mu       sync.Mutex
	progress map[string]domain.UserProgress
	mastery  map[string]map[string]domain.WordMastery
}

var _ store.ProgressStore = (*MockProgressStore)(nil)

// NewMockProgressStore creates an empty in-memory progress store.
func NewMockProgressStore() *MockProgressStore {
	return &MockProgressStore{
		progress: make(map[string]domain.UserProgress),
		mastery:  make(map[string]map[string]domain.WordMastery),
	}
}

// GetProgress implements store.ProgressStore.GetProgress
func (m *MockProgressStore) GetProgress(ctx context.Context, username string) (*domain.UserProgress, error) {
	if m.GetProgressFn != nil {
		return m.GetProgressFn(ctx, username)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// UpsertProgress implements store.ProgressStore.UpsertProgress
func (m *MockProgressStore) UpsertProgress(ctx context.Context, progress *domain.UserProgress) error {
	if m.UpsertProgressFn != nil {
		return m.UpsertProgressFn(ctx, progress)
	}
	if err := progress.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progress.Username] = *progress
	return nil
}

// ListMastery implements store.ProgressStore.ListMastery
func (m *MockProgressStore) ListMastery(ctx context.Context, username string) ([]domain.WordMastery, error) {
	if m.ListMasteryFn != nil {
		return m.ListMasteryFn(ctx, username)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.WordMastery, 0, len(m.mastery[username]))
	for _, record := range m.mastery[username] {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Char < out[j].Char })
	return out, nil
}

// UpsertMastery implements store.ProgressStore.UpsertMastery
func (m *MockProgressStore) UpsertMastery(ctx context.Context, mastery *domain.WordMastery) error {
	if m.UpsertMasteryFn != nil {
		return m.UpsertMasteryFn(ctx, mastery)
	}
	if err := mastery.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mastery[mastery.Username] == nil {
		m.mastery[mastery.Username] = make(map[string]domain.WordMastery)
	}
	m.mastery[mastery.Username][mastery.Char] = *mastery
	return nil
}
