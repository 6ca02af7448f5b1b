package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a settled trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	query := `
		INSERT INTO trades (trade_id, phase_account_id, pnl, commission, exit_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID,
		t.PhaseAccountID,
		t.PnL,
		t.Commission,
		t.ExitTime,
		t.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails the batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin trade bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (trade_id, phase_account_id, pnl, commission, exit_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, t := range trades {
		_, err := tx.Exec(ctx, query,
			t.TradeID,
			t.PhaseAccountID,
			t.PnL,
			t.Commission,
			t.ExitTime,
			t.CreatedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit trade bulk insert: %w", err)
	}
	return nil
}

// GetByPhaseAccount retrieves all trades for a phase account, ordered by
// bucketing time (exit time, fallback created_at) ASC.
func (s *TradeStore) GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.Trade, error) {
	query := `
		SELECT trade_id, phase_account_id, pnl, commission, exit_time, created_at
		FROM trades
		WHERE phase_account_id = $1
		ORDER BY COALESCE(exit_time, created_at) ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, phaseAccountID)
	if err != nil {
		return nil, fmt.Errorf("get trades by phase account: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade

	err := row.Scan(
		&t.TradeID,
		&t.PhaseAccountID,
		&t.PnL,
		&t.Commission,
		&t.ExitTime,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
