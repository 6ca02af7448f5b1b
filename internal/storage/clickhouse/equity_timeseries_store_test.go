package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalabhaftu/propeval/internal/domain"
	chstore "github.com/kalabhaftu/propeval/internal/storage/clickhouse"
)

func TestEquityTimeseriesStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewEquityTimeseriesStore(conn)
	ctx := context.Background()

	points := []*domain.EquityPoint{
		{
			PhaseAccountID: "phase-eq-1",
			Day:            "2024-03-04",
			StartBalance:   100000,
			NetPnL:         1200,
			EndBalance:     101200,
			DayLoss:        0,
			TradeCount:     3,
		},
		{
			PhaseAccountID: "phase-eq-1",
			Day:            "2024-03-05",
			StartBalance:   101200,
			NetPnL:         -800,
			EndBalance:     100400,
			DayLoss:        800,
			TradeCount:     2,
		},
	}

	require.NoError(t, store.InsertBulk(ctx, points))

	retrieved, err := store.GetByPhaseAccount(ctx, "phase-eq-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	assert.Equal(t, "2024-03-04", retrieved[0].Day)
	assert.Equal(t, 1200.0, retrieved[0].NetPnL)
	assert.Equal(t, 3, retrieved[0].TradeCount)
	assert.Equal(t, "2024-03-05", retrieved[1].Day)
	assert.Equal(t, 800.0, retrieved[1].DayLoss)
}

func TestEquityTimeseriesStore_InsertBulkEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewEquityTimeseriesStore(conn)

	require.NoError(t, store.InsertBulk(context.Background(), nil))
}

// Re-running an evaluation rewrites day rows: the latest write supersedes
// earlier rows for the same (phase, day) key.
func TestEquityTimeseriesStore_ReinsertReplaces(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewEquityTimeseriesStore(conn)
	ctx := context.Background()

	first := []*domain.EquityPoint{{
		PhaseAccountID: "phase-eq-2",
		Day:            "2024-03-04",
		StartBalance:   100000,
		NetPnL:         500,
		EndBalance:     100500,
		TradeCount:     1,
	}}
	require.NoError(t, store.InsertBulk(ctx, first))

	second := []*domain.EquityPoint{{
		PhaseAccountID: "phase-eq-2",
		Day:            "2024-03-04",
		StartBalance:   100000,
		NetPnL:         700,
		EndBalance:     100700,
		TradeCount:     2,
	}}
	require.NoError(t, store.InsertBulk(ctx, second))

	retrieved, err := store.GetByPhaseAccount(ctx, "phase-eq-2")
	require.NoError(t, err)
	require.Len(t, retrieved, 1)
	assert.Equal(t, 700.0, retrieved[0].NetPnL)
	assert.Equal(t, 2, retrieved[0].TradeCount)
}

func TestEquityTimeseriesStore_GetUnknownPhase(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewEquityTimeseriesStore(conn)

	points, err := store.GetByPhaseAccount(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, points)
}
