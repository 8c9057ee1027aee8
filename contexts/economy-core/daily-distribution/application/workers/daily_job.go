package workers

import (
	"context"
	"log/slog"

	application "moneywave/contexts/economy-core/daily-distribution/application"
)

// DailyJob runs the scheduled allocator invocation. Reruns inside the same
// calendar day are absorbed by the snapshot idempotency check.
type DailyJob struct {
	Service application.Service
	Logger  *slog.Logger
}

func (j DailyJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	result, err := j.Service.ComputeDaily(ctx, false)
	if err != nil {
		logger.Error("daily allocation cycle failed",
			"event", "distribution_daily_cycle_failed",
			"module", "economy-core/daily-distribution",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	logger.Info("daily allocation cycle completed",
		"event", "distribution_daily_cycle_completed",
		"module", "economy-core/daily-distribution",
		"layer", "worker",
		"snapshot_date", result.Snapshot.SnapshotDate,
		"status", result.Status,
	)
	return nil
}
