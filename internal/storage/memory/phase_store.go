package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// PhaseAccountStore is an in-memory implementation of storage.PhaseAccountStore.
type PhaseAccountStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PhaseAccount // keyed by phase_account_id
}

// NewPhaseAccountStore creates a new in-memory phase account store.
func NewPhaseAccountStore() *PhaseAccountStore {
	return &PhaseAccountStore{
		data: make(map[string]*domain.PhaseAccount),
	}
}

// Insert adds a new phase account. Returns ErrDuplicateKey if the ID exists.
func (s *PhaseAccountStore) Insert(_ context.Context, p *domain.PhaseAccount) error {
	if p == nil || p.PhaseAccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PhaseAccountID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	phaseCopy := *p
	s.data[p.PhaseAccountID] = &phaseCopy
	return nil
}

// GetByID retrieves a phase account. Returns ErrNotFound if not exists.
func (s *PhaseAccountStore) GetByID(_ context.Context, phaseAccountID string) (*domain.PhaseAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[phaseAccountID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	phaseCopy := *p
	return &phaseCopy, nil
}

// ListByStatus retrieves all phase accounts with the given status,
// ordered by creation time ASC.
func (s *PhaseAccountStore) ListByStatus(_ context.Context, status domain.PhaseStatus) ([]*domain.PhaseAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PhaseAccount
	for _, p := range s.data {
		if p.Status == status {
			phaseCopy := *p
			result = append(result, &phaseCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].PhaseAccountID < result[j].PhaseAccountID
	})

	return result, nil
}

// UpdateStatus transitions a phase account's status.
func (s *PhaseAccountStore) UpdateStatus(_ context.Context, phaseAccountID string, status domain.PhaseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[phaseAccountID]
	if !exists {
		return storage.ErrNotFound
	}

	p.Status = status
	return nil
}

// Verify interface compliance at compile time.
var _ storage.PhaseAccountStore = (*PhaseAccountStore)(nil)
