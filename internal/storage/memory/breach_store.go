package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// BreachRecordStore is an in-memory implementation of storage.BreachRecordStore.
type BreachRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BreachRecord // keyed by breach_id
}

// NewBreachRecordStore creates a new in-memory breach record store.
func NewBreachRecordStore() *BreachRecordStore {
	return &BreachRecordStore{
		data: make(map[string]*domain.BreachRecord),
	}
}

// Insert adds a breach record. Returns ErrDuplicateKey if breach_id exists.
func (s *BreachRecordStore) Insert(_ context.Context, b *domain.BreachRecord) error {
	if b == nil || b.BreachID == "" || b.PhaseAccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.BreachID]; exists {
		return storage.ErrDuplicateKey
	}

	breachCopy := *b
	s.data[b.BreachID] = &breachCopy
	return nil
}

// GetByPhaseAccount retrieves all breach records for a phase account,
// ordered by breach time ASC.
func (s *BreachRecordStore) GetByPhaseAccount(_ context.Context, phaseAccountID string) ([]*domain.BreachRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BreachRecord
	for _, b := range s.data {
		if b.PhaseAccountID == phaseAccountID {
			breachCopy := *b
			result = append(result, &breachCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].BreachTime.Equal(result[j].BreachTime) {
			return result[i].BreachTime.Before(result[j].BreachTime)
		}
		return result[i].BreachID < result[j].BreachID
	})

	return result, nil
}

// CountUnresolved returns the number of unresolved breaches for a phase account.
func (s *BreachRecordStore) CountUnresolved(_ context.Context, phaseAccountID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, b := range s.data {
		if b.PhaseAccountID == phaseAccountID && !b.Resolved {
			count++
		}
	}
	return count, nil
}

// Verify interface compliance at compile time.
var _ storage.BreachRecordStore = (*BreachRecordStore)(nil)
