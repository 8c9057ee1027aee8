package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractsv1 "moneywave/contracts/gen/events/v1"
	"moneywave/contexts/economy-core/daily-distribution/adapters/memory"
	domainerrors "moneywave/contexts/economy-core/daily-distribution/domain/errors"
	"moneywave/contexts/economy-core/daily-distribution/ports"
)

func newTestService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetActiveConfig(baselineConfig())
	store.SetNow(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	store.SetSignals(5, 2, 3)
	return Service{
		Config:    store,
		Signals:   store,
		Snapshots: store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
	}, store
}

func TestComputeDailyCreatesSnapshot(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	result, err := service.ComputeDaily(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, ports.StatusCreated, result.Status)
	assert.Equal(t, "2026-08-29", result.Snapshot.SnapshotDate)
	assert.Equal(t, "v1", result.Snapshot.AlgorithmVersion)
	assert.Equal(t, result.Snapshot.TotalPool,
		result.Snapshot.Wave1Pool.Add(result.Snapshot.Wave2Pool).Add(result.Snapshot.Wave3Pool))
	assert.Equal(t, 1, store.SnapshotWrites())
}

func TestComputeDailyUsesConfiguredTimezoneForSnapshotDate(t *testing.T) {
	service, store := newTestService(t)
	cfg := baselineConfig()
	cfg.Timezone = "America/New_York"
	store.SetActiveConfig(cfg)
	// 02:00 UTC on March 1st is still February 28th in New York.
	store.SetNow(time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC))

	result, err := service.ComputeDaily(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", result.Snapshot.SnapshotDate)
}

func TestComputeDailyIsIdempotentWithinSameDay(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	first, err := service.ComputeDaily(ctx, false)
	require.NoError(t, err)
	second, err := service.ComputeDaily(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, ports.StatusAlreadyExists, second.Status)
	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.Equal(t, 1, store.SnapshotWrites(), "second run must not write")
	assert.Equal(t, 1, store.SnapshotCount())
}

func TestComputeDailyForceRecomputesInPlace(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	_, err := service.ComputeDaily(ctx, false)
	require.NoError(t, err)
	store.SetSignals(9, 0, 0)

	result, err := service.ComputeDaily(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, ports.StatusUpdated, result.Status)
	assert.Equal(t, result.Snapshot.TotalPool, result.Snapshot.Wave1Pool)
	assert.Equal(t, 2, store.SnapshotWrites())
	assert.Equal(t, 1, store.SnapshotCount(), "forced recompute must overwrite, not duplicate")
}

func TestComputeDailyAlgorithmVersionBumpRecomputes(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	_, err := service.ComputeDaily(ctx, false)
	require.NoError(t, err)

	cfg := baselineConfig()
	cfg.AlgorithmVersion = "v2"
	store.SetActiveConfig(cfg)

	result, err := service.ComputeDaily(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, ports.StatusUpdated, result.Status)
	assert.Equal(t, "v2", result.Snapshot.AlgorithmVersion)
	assert.Equal(t, 1, store.SnapshotCount())
}

func TestComputeDailyMissingConfigIsFatalAndWritesNothing(t *testing.T) {
	service, store := newTestService(t)
	store.ClearActiveConfig()

	_, err := service.ComputeDaily(context.Background(), false)
	assert.ErrorIs(t, err, domainerrors.ErrConfigMissing)
	assert.Equal(t, 0, store.SnapshotWrites())
}

func TestComputeDailySignalFailureDegradesToWarning(t *testing.T) {
	service, store := newTestService(t)
	store.FailSignal("dormant_accounts", errors.New("accounts table unavailable"))

	result, err := service.ComputeDaily(context.Background(), false)
	require.NoError(t, err, "a single failed signal must not fail the run")

	assert.Equal(t, int64(0), result.Snapshot.Signals.DormantAccounts)
	require.Len(t, result.Snapshot.Signals.Warnings, 1)
	assert.Contains(t, result.Snapshot.Signals.Warnings[0], "dormant accounts")
	assert.Equal(t, result.Snapshot.TotalPool,
		result.Snapshot.Wave1Pool.Add(result.Snapshot.Wave2Pool).Add(result.Snapshot.Wave3Pool))
}

func TestComputeDailyDormancyCutoffFollowsConfig(t *testing.T) {
	service, store := newTestService(t)

	_, err := service.ComputeDaily(context.Background(), false)
	require.NoError(t, err)

	want := store.Now().Add(-30 * 24 * time.Hour)
	assert.Equal(t, want, store.LastDormantCutoff())
}

func TestComputeDailyAppendsSnapshotComputedEvent(t *testing.T) {
	service, store := newTestService(t)

	_, err := service.ComputeDaily(context.Background(), false)
	require.NoError(t, err)

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, contractsv1.EventTypeSnapshotComputed, pending[0].EventType)
	assert.Equal(t, "2026-08-29", pending[0].PartitionKey)
}

func TestGetSnapshot(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.GetSnapshot(ctx, "2026-08-29")
	assert.ErrorIs(t, err, domainerrors.ErrSnapshotNotFound)

	_, err = service.GetSnapshot(ctx, "not-a-date")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = service.ComputeDaily(ctx, false)
	require.NoError(t, err)

	snapshot, err := service.GetSnapshot(ctx, "2026-08-29")
	require.NoError(t, err)
	assert.Equal(t, "v1", snapshot.AlgorithmVersion)
}
