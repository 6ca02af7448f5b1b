package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// AnchorStore implements storage.AnchorStore using PostgreSQL. The
// UNIQUE (phase_account_id, day) constraint enforces first-writer-wins for
// concurrent lazy creates; conflicting writers receive ErrDuplicateKey and
// re-read instead of overwriting the start-of-day value.
type AnchorStore struct {
	pool *Pool
}

// NewAnchorStore creates a new AnchorStore.
func NewAnchorStore(pool *Pool) *AnchorStore {
	return &AnchorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnchorStore = (*AnchorStore)(nil)

// Find retrieves the anchor for one day. Returns ErrNotFound if absent.
func (s *AnchorStore) Find(ctx context.Context, phaseAccountID, day string) (*domain.DailyAnchor, error) {
	query := `
		SELECT anchor_id, phase_account_id, day, anchor_equity, created_at
		FROM daily_anchors
		WHERE phase_account_id = $1 AND day = $2
	`

	var a domain.DailyAnchor
	var dayVal time.Time

	err := s.pool.QueryRow(ctx, query, phaseAccountID, day).Scan(
		&a.AnchorID,
		&a.PhaseAccountID,
		&dayVal,
		&a.AnchorEquity,
		&a.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find daily anchor: %w", err)
	}

	a.Day = dayVal.Format("2006-01-02")
	return &a, nil
}

// Create persists a new anchor. Returns ErrDuplicateKey if the day already
// has one; the stored value is left untouched (first writer wins).
func (s *AnchorStore) Create(ctx context.Context, a *domain.DailyAnchor) error {
	query := `
		INSERT INTO daily_anchors (anchor_id, phase_account_id, day, anchor_equity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		a.AnchorID,
		a.PhaseAccountID,
		a.Day,
		a.AnchorEquity,
		a.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("create daily anchor: %w", err)
	}
	return nil
}

// DeleteByPhaseAccount removes all anchors for a phase account.
func (s *AnchorStore) DeleteByPhaseAccount(ctx context.Context, phaseAccountID string) error {
	query := `DELETE FROM daily_anchors WHERE phase_account_id = $1`

	if _, err := s.pool.Exec(ctx, query, phaseAccountID); err != nil {
		return fmt.Errorf("delete daily anchors: %w", err)
	}
	return nil
}
