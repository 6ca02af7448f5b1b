package clickhouse

import (
	"context"
	"fmt"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
)

// EquityTimeseriesStore implements storage.EquityTimeseriesStore using ClickHouse.
// The table is a ReplacingMergeTree keyed by (phase_account_id, day): the curve
// is derived data and re-running an evaluation legitimately rewrites day rows.
type EquityTimeseriesStore struct {
	conn *Conn
}

// NewEquityTimeseriesStore creates a new EquityTimeseriesStore.
func NewEquityTimeseriesStore(conn *Conn) *EquityTimeseriesStore {
	return &EquityTimeseriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityTimeseriesStore = (*EquityTimeseriesStore)(nil)

// InsertBulk adds equity points. Existing (phase_account_id, day) rows are
// superseded on merge rather than rejected.
func (s *EquityTimeseriesStore) InsertBulk(ctx context.Context, points []*domain.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_timeseries (
			phase_account_id, day, start_balance, net_pnl, end_balance, day_loss, trade_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.PhaseAccountID, p.Day,
			p.StartBalance, p.NetPnL, p.EndBalance, p.DayLoss,
			uint32(p.TradeCount),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPhaseAccount retrieves all points for a phase account, ordered by day ASC.
// FINAL collapses replaced rows so each day appears once.
func (s *EquityTimeseriesStore) GetByPhaseAccount(ctx context.Context, phaseAccountID string) ([]*domain.EquityPoint, error) {
	query := `
		SELECT phase_account_id, day, start_balance, net_pnl, end_balance, day_loss, trade_count
		FROM equity_timeseries FINAL
		WHERE phase_account_id = ?
		ORDER BY day ASC
	`

	rows, err := s.conn.Query(ctx, query, phaseAccountID)
	if err != nil {
		return nil, fmt.Errorf("query by phase account: %w", err)
	}
	defer rows.Close()

	return scanEquityTimeseries(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanEquityTimeseries scans multiple rows into a slice.
func scanEquityTimeseries(rows chRows) ([]*domain.EquityPoint, error) {
	var points []*domain.EquityPoint

	for rows.Next() {
		var p domain.EquityPoint
		var tradeCount uint32

		err := rows.Scan(
			&p.PhaseAccountID, &p.Day,
			&p.StartBalance, &p.NetPnL, &p.EndBalance, &p.DayLoss,
			&tradeCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan equity timeseries row: %w", err)
		}

		p.TradeCount = int(tradeCount)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity timeseries rows: %w", err)
	}

	return points, nil
}
