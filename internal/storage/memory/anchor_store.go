package memory

import (
	"context"
	"sync"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// AnchorStore is an in-memory implementation of storage.AnchorStore.
// The (phase_account_id, day) key enforces first-writer-wins, matching the
// unique constraint the PostgreSQL store relies on.
type AnchorStore struct {
	mu   sync.RWMutex
	data map[anchorKey]*domain.DailyAnchor
}

type anchorKey struct {
	phaseAccountID string
	day            string
}

// NewAnchorStore creates a new in-memory anchor store.
func NewAnchorStore() *AnchorStore {
	return &AnchorStore{
		data: make(map[anchorKey]*domain.DailyAnchor),
	}
}

// Find retrieves the anchor for one day. Returns ErrNotFound if absent.
func (s *AnchorStore) Find(_ context.Context, phaseAccountID, day string) (*domain.DailyAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[anchorKey{phaseAccountID, day}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	anchorCopy := *a
	return &anchorCopy, nil
}

// Create persists a new anchor. Returns ErrDuplicateKey if the day already
// has one; the stored value is left untouched.
func (s *AnchorStore) Create(_ context.Context, a *domain.DailyAnchor) error {
	if a == nil || a.PhaseAccountID == "" || a.Day == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := anchorKey{a.PhaseAccountID, a.Day}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	anchorCopy := *a
	s.data[key] = &anchorCopy
	return nil
}

// DeleteByPhaseAccount removes all anchors for a phase account.
func (s *AnchorStore) DeleteByPhaseAccount(_ context.Context, phaseAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.data {
		if key.phaseAccountID == phaseAccountID {
			delete(s.data, key)
		}
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.AnchorStore = (*AnchorStore)(nil)
