package ports

import (
	"context"
	"time"

	contractsv1 "moneywave/contracts/gen/events/v1"
	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
)

type GameRepository interface {
	GetGame(ctx context.Context, gameID string) (entities.Game, error)
	ListParticipants(ctx context.Context, gameID string) ([]entities.Participant, error)
}

// SettlementRepository persists a settlement batch and flips the game into
// its terminal state in one atomic step. A concurrent settlement of the same
// game surfaces as ErrAlreadySettled, never as a second batch.
type SettlementRepository interface {
	SaveSettlement(ctx context.Context, batch entities.SettlementBatch) error
	GetSettlement(ctx context.Context, gameID string) (entities.SettlementBatch, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
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
