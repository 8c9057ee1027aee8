package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
	domainerrors "moneywave/contexts/economy-core/settlement-engine/domain/errors"
	"moneywave/contexts/economy-core/settlement-engine/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Store is the in-memory adapter backing tests and local runs. It stands in
// for every port of the module, with knobs to stage games and participants.
type Store struct {
	mu sync.RWMutex

	now time.Time

	games        map[string]entities.Game
	participants map[string][]entities.Participant
	settlements  map[string]entities.SettlementBatch

	outbox map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

func NewStore() *Store {
	return &Store{
		now:          time.Now().UTC(),
		games:        make(map[string]entities.Game),
		participants: make(map[string][]entities.Participant),
		settlements:  make(map[string]entities.SettlementBatch),
		outbox:       make(map[string]outboxRecord),
	}
}

// SetNow pins the clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

// AddGame stages a game row.
func (s *Store) AddGame(game entities.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.GameID] = game
}

// AddParticipant stages a staked position on a game.
func (s *Store) AddParticipant(gameID string, participant entities.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[gameID] = append(s.participants[gameID], participant)
}

// SettlementCount reports how many batches have been persisted.
func (s *Store) SettlementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.settlements)
}

// PendingOutboxCount reports how many outbox rows await publishing.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.outbox {
		if record.Status == outboxStatusPending {
			count++
		}
	}
	return count
}

func (s *Store) GetGame(_ context.Context, gameID string) (entities.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[strings.TrimSpace(gameID)]
	if !ok {
		return entities.Game{}, domainerrors.ErrGameNotFound
	}
	return game, nil
}

func (s *Store) ListParticipants(_ context.Context, gameID string) ([]entities.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Participant(nil), s.participants[strings.TrimSpace(gameID)]...), nil
}

func (s *Store) SaveSettlement(_ context.Context, batch entities.SettlementBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gameID := strings.TrimSpace(batch.GameID)
	game, ok := s.games[gameID]
	if !ok {
		return domainerrors.ErrGameNotFound
	}
	switch game.Status {
	case entities.GameStatusSettled:
		return domainerrors.ErrAlreadySettled
	case entities.GameStatusEnded:
	default:
		return domainerrors.ErrGameNotEnded
	}

	settledAt := batch.SettledAt.UTC()
	game.Status = entities.GameStatusSettled
	game.WinningOptionID = batch.WinningOptionID
	game.SettledAt = &settledAt
	s.games[gameID] = game
	s.settlements[gameID] = batch
	return nil
}

func (s *Store) GetSettlement(_ context.Context, gameID string) (entities.SettlementBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.settlements[strings.TrimSpace(gameID)]
	if !ok {
		return entities.SettlementBatch{}, domainerrors.ErrSettlementNotFound
	}
	return batch, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(envelope.EventID)
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.outbox[id]; exists {
		return nil
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[id] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     id,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.Status == outboxStatusPending {
			items = append(items, record.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	published := publishedAt.UTC()
	record.Status = outboxStatusPublished
	record.PublishedAt = &published
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.GameRepository = (*Store)(nil)
var _ ports.SettlementRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
