package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// PayoutStore is an in-memory implementation of storage.PayoutStore.
type PayoutStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PayoutRequest // keyed by payout_id
}

// NewPayoutStore creates a new in-memory payout store.
func NewPayoutStore() *PayoutStore {
	return &PayoutStore{
		data: make(map[string]*domain.PayoutRequest),
	}
}

// Insert adds a payout request. Returns ErrDuplicateKey if payout_id exists.
func (s *PayoutStore) Insert(_ context.Context, p *domain.PayoutRequest) error {
	if p == nil || p.PayoutID == "" || p.PhaseAccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PayoutID]; exists {
		return storage.ErrDuplicateKey
	}

	payoutCopy := *p
	s.data[p.PayoutID] = &payoutCopy
	return nil
}

// GetByPhaseAccount retrieves all payout requests for a phase account,
// ordered by request time ASC.
func (s *PayoutStore) GetByPhaseAccount(_ context.Context, phaseAccountID string) ([]*domain.PayoutRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PayoutRequest
	for _, p := range s.data {
		if p.PhaseAccountID == phaseAccountID {
			payoutCopy := *p
			result = append(result, &payoutCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RequestedAt.Equal(result[j].RequestedAt) {
			return result[i].RequestedAt.Before(result[j].RequestedAt)
		}
		return result[i].PayoutID < result[j].PayoutID
	})

	return result, nil
}

// LastPaidAt returns the time of the most recent paid payout.
func (s *PayoutStore) LastPaidAt(_ context.Context, phaseAccountID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	found := false
	for _, p := range s.data {
		if p.PhaseAccountID != phaseAccountID || p.Status != domain.PayoutPaid || p.PaidAt == nil {
			continue
		}
		if !found || p.PaidAt.After(last) {
			last = *p.PaidAt
			found = true
		}
	}

	if !found {
		return time.Time{}, storage.ErrNotFound
	}
	return last, nil
}

// Verify interface compliance at compile time.
var _ storage.PayoutStore = (*PayoutStore)(nil)
