package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// PayoutStore implements storage.PayoutStore using PostgreSQL.
type PayoutStore struct {
	pool *Pool
}

// NewPayoutStore creates a new PayoutStore.
func NewPayoutStore(pool *Pool) *PayoutStore {
	return &PayoutStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PayoutStore = (*PayoutStore)(nil)

// Insert adds a payout request. Returns ErrDuplicateKey if payout_id exists.
func (s *PayoutStore) Insert(ctx context.Context, p *domain.PayoutRequest) error {
	query := `
		INSERT INTO payout_requests (payout_id, phase_account_id, amount, status, requested_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PayoutID,
		p.PhaseAccountID,
		p.Amount,
		string(p.Status),
		p.RequestedAt,
		p.PaidAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert payout request: %w", err)
	}
	return nil
}

// GetByPhaseAccount retrieves all payout requests for a phase account,
// ordered by request time ASC.
func (s *PayoutStore) GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.PayoutRequest, error) {
	query := `
		SELECT payout_id, phase_account_id, amount, status, requested_at, paid_at
		FROM payout_requests
		WHERE phase_account_id = $1
		ORDER BY requested_at ASC, payout_id ASC
	`

	rows, err := s.pool.Query(ctx, query, phaseAccountID)
	if err != nil {
		return nil, fmt.Errorf("get payout requests by phase account: %w", err)
	}
	defer rows.Close()

	var payouts []*domain.PayoutRequest
	for rows.Next() {
		p, err := scanPayoutRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout request row: %w", err)
		}
		payouts = append(payouts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payout request rows: %w", err)
	}

	return payouts, nil
}

// LastPaidAt returns the time of the most recent paid payout.
func (s *PayoutStore) LastPaidAt(ctx context.Context, phaseAccountID string) (time.Time, error) {
	query := `
		SELECT paid_at
		FROM payout_requests
		WHERE phase_account_id = $1 AND status = 'paid' AND paid_at IS NOT NULL
		ORDER BY paid_at DESC
		LIMIT 1
	`

	var paidAt time.Time
	err := s.pool.QueryRow(ctx, query, phaseAccountID).Scan(&paidAt)
	if err != nil {
		if isNotFoundError(err) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get last paid payout: %w", err)
	}
	return paidAt, nil
}

// scanPayoutRequest scans a single row into a PayoutRequest.
func scanPayoutRequest(row pgx.Row) (*domain.PayoutRequest, error) {
	var p domain.PayoutRequest
	var status string

	err := row.Scan(
		&p.PayoutID,
		&p.PhaseAccountID,
		&p.Amount,
		&status,
		&p.RequestedAt,
		&p.PaidAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PayoutStatus(status)
	return &p, nil
}
