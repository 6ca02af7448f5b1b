package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/storage/migrations"
	"github.com/kalabhaftu/propeval/internal/storage/postgres"
)

// setupTestDB creates a PostgreSQL container and applies the embedded
// migrations. Returns a cleanup function that must be called after tests.
func setupTestDB(t *testing.T) (*postgres.Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	err = migrations.RunPostgresMigrations(ctx, pool)
	require.NoError(t, err, "failed to run migrations")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// insertTestPhase inserts a phase account for tests that need the foreign key.
func insertTestPhase(t *testing.T, pool *postgres.Pool, phaseAccountID string) *domain.PhaseAccount {
	t.Helper()

	phase := &domain.PhaseAccount{
		PhaseAccountID:       phaseAccountID,
		MasterAccountID:      "master-001",
		PhaseName:            "phase_1",
		AccountSize:          100000,
		DailyDrawdownPercent: 5,
		MaxDrawdownPercent:   10,
		MaxDrawdownType:      domain.DrawdownStatic,
		ProfitTargetPercent:  8,
		MinTradingDays:       5,
		Timezone:             "UTC",
		StartDate:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:               domain.PhaseStatusActive,
		CreatedAt:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	store := postgres.NewPhaseAccountStore(pool)
	require.NoError(t, store.Insert(context.Background(), phase))
	return phase
}

// ptr is a helper to create pointers for test values
func ptr[T any](v T) *T {
	return &v
}
