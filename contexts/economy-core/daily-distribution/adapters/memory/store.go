package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
	domainerrors "moneywave/contexts/economy-core/daily-distribution/domain/errors"
	"moneywave/contexts/economy-core/daily-distribution/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Store is the in-memory adapter backing tests and local runs. It stands in
// for every port of the module, with knobs to stage config rows, signal
// counts and injected signal failures.
type Store struct {
	mu sync.RWMutex

	config    entities.DistributionConfig
	hasConfig bool

	now time.Time

	activeGames     int64
	dormantAccounts int64
	activeVentures  int64
	signalFailures  map[string]error
	lastDormantCut  time.Time

	snapshots      map[string]entities.DailySnapshot
	snapshotWrites int

	outbox map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

func NewStore() *Store {
	return &Store{
		now:            time.Now().UTC(),
		signalFailures: make(map[string]error),
		snapshots:      make(map[string]entities.DailySnapshot),
		outbox:         make(map[string]outboxRecord),
	}
}

// SetActiveConfig stages the active configuration row.
func (s *Store) SetActiveConfig(config entities.DistributionConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	s.hasConfig = true
}

// ClearActiveConfig removes the active row so loads fail with ErrConfigMissing.
func (s *Store) ClearActiveConfig() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasConfig = false
}

// SetNow pins the clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

// SetSignals stages the three signal counts.
func (s *Store) SetSignals(activeGames, dormantAccounts, activeVentures int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeGames = activeGames
	s.dormantAccounts = dormantAccounts
	s.activeVentures = activeVentures
}

// FailSignal makes one signal query return err. Pass nil to heal it.
func (s *Store) FailSignal(signal string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.signalFailures, signal)
		return
	}
	s.signalFailures[signal] = err
}

// SnapshotWrites reports how many upserts have been performed.
func (s *Store) SnapshotWrites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotWrites
}

// SnapshotCount reports how many distinct snapshot rows exist.
func (s *Store) SnapshotCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// LastDormantCutoff reports the inactiveSince bound of the latest dormant
// accounts query.
func (s *Store) LastDormantCutoff() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDormantCut
}

func (s *Store) LoadActiveConfig(_ context.Context) (entities.DistributionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasConfig {
		return entities.DistributionConfig{}, domainerrors.ErrConfigMissing
	}
	return s.config, nil
}

func (s *Store) CountActiveGames(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.signalFailures["active_games"]; err != nil {
		return 0, err
	}
	return s.activeGames, nil
}

func (s *Store) CountDormantAccounts(_ context.Context, inactiveSince time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDormantCut = inactiveSince
	if err := s.signalFailures["dormant_accounts"]; err != nil {
		return 0, err
	}
	return s.dormantAccounts, nil
}

func (s *Store) CountActiveVentures(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.signalFailures["active_ventures"]; err != nil {
		return 0, err
	}
	return s.activeVentures, nil
}

func (s *Store) GetSnapshot(_ context.Context, snapshotDate string) (entities.DailySnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[strings.TrimSpace(snapshotDate)]
	return snapshot, ok, nil
}

func (s *Store) UpsertSnapshot(_ context.Context, snapshot entities.DailySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := strings.TrimSpace(snapshot.SnapshotDate)
	if date == "" {
		return domainerrors.ErrInvalidInput
	}
	s.snapshots[date] = snapshot
	s.snapshotWrites++
	return nil
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
	payload, err := marshalEnvelope(envelope)
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

func marshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

var _ ports.ConfigRepository = (*Store)(nil)
var _ ports.SignalSource = (*Store)(nil)
var _ ports.SnapshotRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
