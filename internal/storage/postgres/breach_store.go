package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// BreachRecordStore implements storage.BreachRecordStore using PostgreSQL.
// Breach records are append-only evidence; there is no update path.
type BreachRecordStore struct {
	pool *Pool
}

// NewBreachRecordStore creates a new BreachRecordStore.
func NewBreachRecordStore(pool *Pool) *BreachRecordStore {
	return &BreachRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BreachRecordStore = (*BreachRecordStore)(nil)

// Insert adds a breach record. Returns ErrDuplicateKey if breach_id exists.
func (s *BreachRecordStore) Insert(ctx context.Context, b *domain.BreachRecord) error {
	query := `
		INSERT INTO breach_records (
			breach_id, phase_account_id, breach_type, breach_amount, breach_time,
			equity, day_start_balance, limit_amount, day, resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		b.BreachID,
		b.PhaseAccountID,
		string(b.BreachType),
		b.BreachAmount,
		b.BreachTime,
		b.Equity,
		b.DayStartBalance,
		b.LimitAmount,
		b.Day,
		b.Resolved,
		b.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert breach record: %w", err)
	}
	return nil
}

// GetByPhaseAccount retrieves all breach records for a phase account,
// ordered by breach time ASC.
func (s *BreachRecordStore) GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.BreachRecord, error) {
	query := `
		SELECT breach_id, phase_account_id, breach_type, breach_amount, breach_time,
		       equity, day_start_balance, limit_amount, day, resolved, created_at
		FROM breach_records
		WHERE phase_account_id = $1
		ORDER BY breach_time ASC, breach_id ASC
	`

	rows, err := s.pool.Query(ctx, query, phaseAccountID)
	if err != nil {
		return nil, fmt.Errorf("get breach records by phase account: %w", err)
	}
	defer rows.Close()

	var records []*domain.BreachRecord
	for rows.Next() {
		b, err := scanBreachRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan breach record row: %w", err)
		}
		records = append(records, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breach record rows: %w", err)
	}

	return records, nil
}

// CountUnresolved returns the number of unresolved breaches for a phase account.
func (s *BreachRecordStore) CountUnresolved(ctx context.Context, phaseAccountID string) (int, error) {
	query := `SELECT COUNT(*) FROM breach_records WHERE phase_account_id = $1 AND NOT resolved`

	var count int
	if err := s.pool.QueryRow(ctx, query, phaseAccountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unresolved breaches: %w", err)
	}
	return count, nil
}

// scanBreachRecord scans a single row into a BreachRecord.
func scanBreachRecord(row pgx.Row) (*domain.BreachRecord, error) {
	var b domain.BreachRecord
	var breachType string
	var dayVal time.Time

	err := row.Scan(
		&b.BreachID,
		&b.PhaseAccountID,
		&breachType,
		&b.BreachAmount,
		&b.BreachTime,
		&b.Equity,
		&b.DayStartBalance,
		&b.LimitAmount,
		&dayVal,
		&b.Resolved,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.BreachType = domain.BreachType(breachType)
	b.Day = dayVal.Format("2006-01-02")
	return &b, nil
}
