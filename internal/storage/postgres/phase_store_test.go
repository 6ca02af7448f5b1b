package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage"
	"github.com/kalabhaftu/propeval/internal/storage/postgres"
)

func TestPhaseAccountStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewPhaseAccountStore(pool)
	ctx := context.Background()

	phase := &domain.PhaseAccount{
		PhaseAccountID:       "phase-001",
		MasterAccountID:      "master-001",
		PhaseName:            "Phase 1",
		AccountSize:          100000,
		DailyDrawdownPercent: 5,
		MaxDrawdownPercent:   10,
		MaxDrawdownType:      domain.DrawdownTrailing,
		ProfitTargetPercent:  8,
		MinTradingDays:       5,
		TimeLimitDays:        ptr(30),
		Timezone:             "America/New_York",
		StartDate:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:               domain.PhaseStatusActive,
		CreatedAt:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Insert(ctx, phase))

	retrieved, err := store.GetByID(ctx, "phase-001")
	require.NoError(t, err)

	assert.Equal(t, phase.PhaseAccountID, retrieved.PhaseAccountID)
	assert.Equal(t, phase.MasterAccountID, retrieved.MasterAccountID)
	assert.Equal(t, phase.AccountSize, retrieved.AccountSize)
	assert.Equal(t, phase.MaxDrawdownType, retrieved.MaxDrawdownType)
	require.NotNil(t, retrieved.TimeLimitDays)
	assert.Equal(t, 30, *retrieved.TimeLimitDays)
	assert.Equal(t, "America/New_York", retrieved.Timezone)
	assert.Equal(t, domain.PhaseStatusActive, retrieved.Status)
}

func TestPhaseAccountStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewPhaseAccountStore(pool)

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPhaseAccountStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	phase := insertTestPhase(t, pool, "phase-dup")
	store := postgres.NewPhaseAccountStore(pool)

	err := store.Insert(context.Background(), phase)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPhaseAccountStore_ListByStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewPhaseAccountStore(pool)
	ctx := context.Background()

	insertTestPhase(t, pool, "phase-list-a")
	insertTestPhase(t, pool, "phase-list-b")

	require.NoError(t, store.UpdateStatus(ctx, "phase-list-b", domain.PhaseStatusFailed))

	active, err := store.ListByStatus(ctx, domain.PhaseStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "phase-list-a", active[0].PhaseAccountID)

	failed, err := store.ListByStatus(ctx, domain.PhaseStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "phase-list-b", failed[0].PhaseAccountID)
}

func TestPhaseAccountStore_UpdateStatusNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewPhaseAccountStore(pool)

	err := store.UpdateStatus(context.Background(), "nonexistent", domain.PhaseStatusFailed)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
