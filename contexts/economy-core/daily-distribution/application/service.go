package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	contractsv1 "moneywave/contracts/gen/events/v1"
	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
	domainerrors "moneywave/contexts/economy-core/daily-distribution/domain/errors"
	"moneywave/contexts/economy-core/daily-distribution/ports"
)

const snapshotDateLayout = "2006-01-02"

type Service struct {
	Config    ports.ConfigRepository
	Signals   ports.SignalSource
	Snapshots ports.SnapshotRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// ComputeDaily runs one allocator invocation for the current calendar day in
// the configured timezone.
//
// An existing snapshot with the same algorithm version short-circuits unless
// force is set; a version change or force overwrites the row in place. Config
// absence and storage failures abort before any write.
func (s Service) ComputeDaily(ctx context.Context, force bool) (ports.AllocationResult, error) {
	logger := ResolveLogger(s.Logger)

	cfg, err := s.Config.LoadActiveConfig(ctx)
	if err != nil {
		return ports.AllocationResult{}, err
	}
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return ports.AllocationResult{}, fmt.Errorf("%w: %q", domainerrors.ErrInvalidTimezone, cfg.Timezone)
	}

	now := s.now()
	snapshotDate := now.In(location).Format(snapshotDateLayout)

	existing, found, err := s.Snapshots.GetSnapshot(ctx, snapshotDate)
	if err != nil {
		return ports.AllocationResult{}, err
	}
	if found && existing.AlgorithmVersion == cfg.AlgorithmVersion && !force {
		logger.Info("daily snapshot already computed",
			"event", "distribution_snapshot_reused",
			"module", "economy-core/daily-distribution",
			"layer", "application",
			"snapshot_date", snapshotDate,
			"algorithm_version", cfg.AlgorithmVersion,
		)
		return ports.AllocationResult{Status: ports.StatusAlreadyExists, Snapshot: existing}, nil
	}

	dormantSince := now.Add(-time.Duration(cfg.DormancyDays) * 24 * time.Hour)
	signals := SignalAggregator{Source: s.Signals, Logger: s.Logger}.Collect(ctx, dormantSince)

	split, err := SplitDailyPool(cfg, signals)
	if err != nil {
		return ports.AllocationResult{}, err
	}

	snapshot := entities.DailySnapshot{
		SnapshotDate:     snapshotDate,
		Timezone:         cfg.Timezone,
		AlgorithmVersion: cfg.AlgorithmVersion,
		ComputedAt:       now.UTC(),
		AnnualBaseline:   cfg.AnnualBaseline,
		TaxRate:          cfg.TaxRate,
		InterestRate:     cfg.InterestRate,
		Wave1Pool:        split.Wave1,
		Wave2Pool:        split.Wave2,
		Wave3Pool:        split.Wave3,
		TotalPool:        split.Total,
		HourlyPool:       split.Hourly,
		Signals:          signals,
	}
	if err := s.Snapshots.UpsertSnapshot(ctx, snapshot); err != nil {
		return ports.AllocationResult{}, err
	}

	status := ports.StatusCreated
	if found {
		status = ports.StatusUpdated
	}
	if err := s.appendSnapshotComputedOutbox(ctx, snapshot, status); err != nil {
		return ports.AllocationResult{}, err
	}

	logger.Info("daily snapshot computed",
		"event", "distribution_snapshot_computed",
		"module", "economy-core/daily-distribution",
		"layer", "application",
		"snapshot_date", snapshotDate,
		"algorithm_version", cfg.AlgorithmVersion,
		"status", status,
		"total_pool", split.Total.String(),
		"warning_count", len(signals.Warnings),
	)
	return ports.AllocationResult{Status: status, Snapshot: snapshot}, nil
}

// GetSnapshot returns the persisted snapshot for a calendar date.
func (s Service) GetSnapshot(ctx context.Context, snapshotDate string) (entities.DailySnapshot, error) {
	snapshotDate = strings.TrimSpace(snapshotDate)
	if _, err := time.Parse(snapshotDateLayout, snapshotDate); err != nil {
		return entities.DailySnapshot{}, domainerrors.ErrInvalidInput
	}
	snapshot, found, err := s.Snapshots.GetSnapshot(ctx, snapshotDate)
	if err != nil {
		return entities.DailySnapshot{}, err
	}
	if !found {
		return entities.DailySnapshot{}, domainerrors.ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (s Service) appendSnapshotComputedOutbox(ctx context.Context, snapshot entities.DailySnapshot, status string) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"snapshot_date":     snapshot.SnapshotDate,
		"algorithm_version": snapshot.AlgorithmVersion,
		"status":            status,
		"wave1_pool":        snapshot.Wave1Pool.String(),
		"wave2_pool":        snapshot.Wave2Pool.String(),
		"wave3_pool":        snapshot.Wave3Pool.String(),
		"total_pool":        snapshot.TotalPool.String(),
		"hourly_pool":       snapshot.HourlyPool.String(),
		"computed_at":       snapshot.ComputedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        contractsv1.EventTypeSnapshotComputed,
		OccurredAt:       snapshot.ComputedAt.UTC(),
		SourceService:    "daily-distribution",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "snapshot_date",
		PartitionKey:     snapshot.SnapshotDate,
		Data:             data,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
