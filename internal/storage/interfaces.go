package storage

import (
	"context"
	"time"

	"github.com/kalabhaftu/propeval/internal/domain"
)

// PhaseAccountStore provides access to phase_accounts storage.
type PhaseAccountStore interface {
	// Insert adds a new phase account. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, p *domain.PhaseAccount) error

	// GetByID retrieves a phase account. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, phaseAccountID string) (*domain.PhaseAccount, error)

	// ListByStatus retrieves all phase accounts with the given status,
	// ordered by creation time ASC.
	ListByStatus(ctx context.Context, status domain.PhaseStatus) ([]*domain.PhaseAccount, error)

	// UpdateStatus transitions a phase account's status. Returns ErrNotFound
	// if the account does not exist.
	UpdateStatus(ctx context.Context, phaseAccountID string, status domain.PhaseStatus) error
}

// TradeStore provides read access to settled trades. The evaluation engine
// never mutates trades; inserts exist for ingestion and tests.
type TradeStore interface {
	// Insert adds a settled trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails the batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByPhaseAccount retrieves all trades for a phase account, ordered by
	// bucketing time (exit time, fallback created_at) ASC.
	GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.Trade, error)
}

// AnchorStore provides access to daily_anchors storage. At most one anchor
// exists per (phase_account_id, day); Create on an existing day must return
// ErrDuplicateKey and leave the stored value untouched.
type AnchorStore interface {
	// Find retrieves the anchor for one day. Returns ErrNotFound if absent.
	Find(ctx context.Context, phaseAccountID, day string) (*domain.DailyAnchor, error)

	// Create persists a new anchor. Returns ErrDuplicateKey if the day
	// already has one (first writer wins). Safe to call concurrently.
	Create(ctx context.Context, a *domain.DailyAnchor) error

	// DeleteByPhaseAccount removes all anchors for a phase account.
	// Used when a payout resets the funded balance.
	DeleteByPhaseAccount(ctx context.Context, phaseAccountID string) error
}

// BreachRecordStore provides access to breach_records storage (append-only).
type BreachRecordStore interface {
	// Insert adds a breach record. Returns ErrDuplicateKey if breach_id exists.
	Insert(ctx context.Context, b *domain.BreachRecord) error

	// GetByPhaseAccount retrieves all breach records for a phase account,
	// ordered by breach time ASC.
	GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.BreachRecord, error)

	// CountUnresolved returns the number of unresolved breaches for a phase account.
	CountUnresolved(ctx context.Context, phaseAccountID string) (int, error)
}

// PayoutStore provides access to payout_requests storage.
type PayoutStore interface {
	// Insert adds a payout request. Returns ErrDuplicateKey if payout_id exists.
	Insert(ctx context.Context, p *domain.PayoutRequest) error

	// GetByPhaseAccount retrieves all payout requests for a phase account,
	// ordered by request time ASC.
	GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.PayoutRequest, error)

	// LastPaidAt returns the time of the most recent paid payout.
	// Returns ErrNotFound when no payout has been paid yet.
	LastPaidAt(ctx context.Context, phaseAccountID string) (time.Time, error)
}

// EquityTimeseriesStore provides access to the per-day equity curve
// analytics storage.
type EquityTimeseriesStore interface {
	// InsertBulk adds equity points. Existing (phase_account_id, day) rows
	// may be replaced; the curve is derived data.
	InsertBulk(ctx context.Context, points []*domain.EquityPoint) error

	// GetByPhaseAccount retrieves all points for a phase account, ordered by day ASC.
	GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.EquityPoint, error)
}
