package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// EquityTimeseriesStore is an in-memory implementation of
// storage.EquityTimeseriesStore. Points are derived data; re-inserting a
// (phase_account_id, day) replaces the previous row.
type EquityTimeseriesStore struct {
	mu   sync.RWMutex
	data map[equityKey]*domain.EquityPoint
}

type equityKey struct {
	phaseAccountID string
	day            string
}

// NewEquityTimeseriesStore creates a new in-memory equity timeseries store.
func NewEquityTimeseriesStore() *EquityTimeseriesStore {
	return &EquityTimeseriesStore{
		data: make(map[equityKey]*domain.EquityPoint),
	}
}

// InsertBulk adds equity points, replacing existing days.
func (s *EquityTimeseriesStore) InsertBulk(_ context.Context, points []*domain.EquityPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if p == nil || p.PhaseAccountID == "" || p.Day == "" {
			return storage.ErrInvalidInput
		}
		pointCopy := *p
		s.data[equityKey{p.PhaseAccountID, p.Day}] = &pointCopy
	}
	return nil
}

// GetByPhaseAccount retrieves all points for a phase account, ordered by day ASC.
func (s *EquityTimeseriesStore) GetByPhaseAccount(_ context.Context, phaseAccountID string) ([]*domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EquityPoint
	for _, p := range s.data {
		if p.PhaseAccountID == phaseAccountID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Day < result[j].Day
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.EquityTimeseriesStore = (*EquityTimeseriesStore)(nil)
