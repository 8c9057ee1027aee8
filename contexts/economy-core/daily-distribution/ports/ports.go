package ports

import (
	"context"
	"time"

	contractsv1 "moneywave/contracts/gen/events/v1"
	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
)

// ConfigRepository loads the single active distribution configuration.
// Absence is fatal and never retried here; retry policy belongs to the
// scheduler.
type ConfigRepository interface {
	LoadActiveConfig(ctx context.Context) (entities.DistributionConfig, error)
}

// SignalSource issues the three independent count queries against the
// external store. Each method is a single-attempt, bounded query.
type SignalSource interface {
	CountActiveGames(ctx context.Context) (int64, error)
	CountDormantAccounts(ctx context.Context, inactiveSince time.Time) (int64, error)
	CountActiveVentures(ctx context.Context) (int64, error)
}

// SnapshotRepository persists one row per calendar date. Upsert overwrites
// in place; a snapshot is never duplicated.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, snapshotDate string) (entities.DailySnapshot, bool, error)
	UpsertSnapshot(ctx context.Context, snapshot entities.DailySnapshot) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Run statuses returned by the daily trigger.
const (
	StatusCreated       = "created"
	StatusUpdated       = "updated"
	StatusAlreadyExists = "already_exists"
)

// AllocationResult is the outcome of one trigger invocation.
type AllocationResult struct {
	Status   string
	Snapshot entities.DailySnapshot
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
