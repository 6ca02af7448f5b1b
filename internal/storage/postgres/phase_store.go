package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// PhaseAccountStore implements storage.PhaseAccountStore using PostgreSQL.
type PhaseAccountStore struct {
	pool *Pool
}

// NewPhaseAccountStore creates a new PhaseAccountStore.
func NewPhaseAccountStore(pool *Pool) *PhaseAccountStore {
	return &PhaseAccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PhaseAccountStore = (*PhaseAccountStore)(nil)

const phaseColumns = `
	phase_account_id, master_account_id, phase_name, account_size,
	daily_drawdown_percent, max_drawdown_percent, max_drawdown_type,
	profit_target_percent, min_trading_days, time_limit_days,
	timezone, start_date, status, created_at
`

// Insert adds a new phase account. Returns ErrDuplicateKey if the ID exists.
func (s *PhaseAccountStore) Insert(ctx context.Context, p *domain.PhaseAccount) error {
	query := `
		INSERT INTO phase_accounts (
			phase_account_id, master_account_id, phase_name, account_size,
			daily_drawdown_percent, max_drawdown_percent, max_drawdown_type,
			profit_target_percent, min_trading_days, time_limit_days,
			timezone, start_date, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PhaseAccountID,
		p.MasterAccountID,
		p.PhaseName,
		p.AccountSize,
		p.DailyDrawdownPercent,
		p.MaxDrawdownPercent,
		string(p.MaxDrawdownType),
		p.ProfitTargetPercent,
		p.MinTradingDays,
		p.TimeLimitDays,
		p.Timezone,
		p.StartDate,
		string(p.Status),
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert phase account: %w", err)
	}
	return nil
}

// GetByID retrieves a phase account. Returns ErrNotFound if not exists.
func (s *PhaseAccountStore) GetByID(ctx context.Context, phaseAccountID string) (*domain.PhaseAccount, error) {
	query := `SELECT ` + phaseColumns + ` FROM phase_accounts WHERE phase_account_id = $1`

	row := s.pool.QueryRow(ctx, query, phaseAccountID)
	p, err := scanPhaseAccount(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get phase account by id: %w", err)
	}
	return p, nil
}

// ListByStatus retrieves all phase accounts with the given status,
// ordered by creation time ASC.
func (s *PhaseAccountStore) ListByStatus(ctx context.Context, status domain.PhaseStatus) ([]*domain.PhaseAccount, error) {
	query := `
		SELECT ` + phaseColumns + `
		FROM phase_accounts
		WHERE status = $1
		ORDER BY created_at ASC, phase_account_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list phase accounts by status: %w", err)
	}
	defer rows.Close()

	var phases []*domain.PhaseAccount
	for rows.Next() {
		p, err := scanPhaseAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phase account row: %w", err)
		}
		phases = append(phases, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phase account rows: %w", err)
	}

	return phases, nil
}

// UpdateStatus transitions a phase account's status.
func (s *PhaseAccountStore) UpdateStatus(ctx context.Context, phaseAccountID string, status domain.PhaseStatus) error {
	query := `UPDATE phase_accounts SET status = $2 WHERE phase_account_id = $1`

	tag, err := s.pool.Exec(ctx, query, phaseAccountID, string(status))
	if err != nil {
		return fmt.Errorf("update phase account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanPhaseAccount scans a single row into a PhaseAccount.
func scanPhaseAccount(row pgx.Row) (*domain.PhaseAccount, error) {
	var p domain.PhaseAccount
	var ddType, status string

	err := row.Scan(
		&p.PhaseAccountID,
		&p.MasterAccountID,
		&p.PhaseName,
		&p.AccountSize,
		&p.DailyDrawdownPercent,
		&p.MaxDrawdownPercent,
		&ddType,
		&p.ProfitTargetPercent,
		&p.MinTradingDays,
		&p.TimeLimitDays,
		&p.Timezone,
		&p.StartDate,
		&status,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.MaxDrawdownType = domain.DrawdownType(ddType)
	p.Status = domain.PhaseStatus(status)
	return &p, nil
}
