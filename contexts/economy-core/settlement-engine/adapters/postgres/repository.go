package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
	domainerrors "moneywave/contexts/economy-core/settlement-engine/domain/errors"
	"moneywave/contexts/economy-core/settlement-engine/ports"
	"moneywave/internal/shared/money"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetGame(ctx context.Context, gameID string) (entities.Game, error) {
	var row predictionGameModel
	err := r.db.WithContext(ctx).
		Where("game_id = ?", strings.TrimSpace(gameID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Game{}, domainerrors.ErrGameNotFound
		}
		return entities.Game{}, r.logError("settlement_repo_get_game_failed", err,
			"game_id", strings.TrimSpace(gameID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListParticipants(ctx context.Context, gameID string) ([]entities.Participant, error) {
	var rows []gameParticipantModel
	if err := r.db.WithContext(ctx).
		Where("game_id = ?", strings.TrimSpace(gameID)).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("settlement_repo_list_participants_failed", err,
			"game_id", strings.TrimSpace(gameID),
		)
	}
	participants := make([]entities.Participant, 0, len(rows))
	for _, row := range rows {
		participant, err := row.toEntity()
		if err != nil {
			return nil, r.logError("settlement_repo_decode_participant_failed", err,
				"game_id", strings.TrimSpace(gameID),
				"user_id", row.UserID,
			)
		}
		participants = append(participants, participant)
	}
	return participants, nil
}

// SaveSettlement flips the game into its terminal state and inserts the
// batch in one transaction. The status-guarded update makes a concurrent
// settlement of the same game a detectable ErrAlreadySettled, never a
// duplicate batch.
func (r *Repository) SaveSettlement(ctx context.Context, batch entities.SettlementBatch) error {
	gameID := strings.TrimSpace(batch.GameID)
	if gameID == "" {
		return domainerrors.ErrInvalidInput
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&predictionGameModel{}).
			Where("game_id = ?", gameID).
			Where("status = ?", string(entities.GameStatusEnded)).
			Updates(map[string]any{
				"status":            string(entities.GameStatusSettled),
				"winning_option_id": strings.TrimSpace(batch.WinningOptionID),
				"settled_at":        batch.SettledAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var current predictionGameModel
			if err := tx.Where("game_id = ?", gameID).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrGameNotFound
				}
				return err
			}
			if current.Status == string(entities.GameStatusSettled) {
				return domainerrors.ErrAlreadySettled
			}
			return domainerrors.ErrGameNotEnded
		}

		for _, line := range batch.Lines {
			row := settlementLineModel{
				LineID:            uuid.NewString(),
				GameID:            gameID,
				UserID:            strings.TrimSpace(line.UserID),
				IsWinner:          line.IsWinner,
				StakedMicros:      line.Staked.Micros(),
				PayoutMicros:      line.Payout.Micros(),
				PlatformFeeMicros: line.PlatformFee.Micros(),
				NetProfitMicros:   line.NetProfit.Micros(),
				BonusMicros:       line.Bonus.Micros(),
				CreatedAt:         batch.SettledAt.UTC(),
			}
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrAlreadySettled
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadySettled) ||
			errors.Is(err, domainerrors.ErrGameNotEnded) ||
			errors.Is(err, domainerrors.ErrGameNotFound) {
			return err
		}
		return r.logError("settlement_repo_save_settlement_failed", err,
			"game_id", gameID,
		)
	}
	return nil
}

func (r *Repository) GetSettlement(ctx context.Context, gameID string) (entities.SettlementBatch, error) {
	gameID = strings.TrimSpace(gameID)
	game, err := r.GetGame(ctx, gameID)
	if err != nil {
		return entities.SettlementBatch{}, err
	}
	if game.Status != entities.GameStatusSettled || game.SettledAt == nil {
		return entities.SettlementBatch{}, domainerrors.ErrSettlementNotFound
	}

	var rows []settlementLineModel
	if err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return entities.SettlementBatch{}, r.logError("settlement_repo_list_lines_failed", err,
			"game_id", gameID,
		)
	}

	batch := entities.SettlementBatch{
		GameID:          gameID,
		WinningOptionID: game.WinningOptionID,
		SettledAt:       game.SettledAt.UTC(),
		Lines:           make([]entities.SettlementLine, 0, len(rows)),
	}
	for _, row := range rows {
		line := row.toEntity()
		batch.Lines = append(batch.Lines, line)
		batch.Summary.ParticipantCount++
		batch.Summary.TotalStaked = batch.Summary.TotalStaked.Add(line.Staked)
		batch.Summary.TotalPayout = batch.Summary.TotalPayout.Add(line.Payout)
		batch.Summary.PlatformRevenue = batch.Summary.PlatformRevenue.Add(line.PlatformFee)
		if line.IsWinner {
			batch.Summary.WinnerCount++
		}
	}
	return batch, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("settlement_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := settlementOutboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		return r.logError("settlement_repo_append_outbox_insert_failed", createResult.Error,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing settlementOutboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return r.logError("settlement_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		r.logWarn("settlement_repo_append_outbox_payload_conflict",
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []settlementOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("settlement_repo_list_pending_outbox_failed", err,
			"limit", limit,
		)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&settlementOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("settlement_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("settlement_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "economy-core/settlement-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("settlement repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "economy-core/settlement-engine",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("settlement repository warning", fields...)
}

type predictionGameModel struct {
	GameID          string     `gorm:"column:game_id;primaryKey"`
	OwnerID         string     `gorm:"column:owner_id"`
	Title           string     `gorm:"column:title"`
	Status          string     `gorm:"column:status"`
	OptionIDs       []string   `gorm:"column:option_ids;serializer:json"`
	WinningOptionID string     `gorm:"column:winning_option_id"`
	EndedAt         *time.Time `gorm:"column:ended_at"`
	SettledAt       *time.Time `gorm:"column:settled_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (predictionGameModel) TableName() string {
	return "prediction_games"
}

func (m predictionGameModel) toEntity() entities.Game {
	return entities.Game{
		GameID:          m.GameID,
		OwnerID:         m.OwnerID,
		Title:           m.Title,
		Status:          entities.GameStatus(m.Status),
		OptionIDs:       append([]string(nil), m.OptionIDs...),
		WinningOptionID: m.WinningOptionID,
		EndedAt:         normalizeOptionalTime(m.EndedAt),
		SettledAt:       normalizeOptionalTime(m.SettledAt),
	}
}

type gameParticipantModel struct {
	ParticipantID  string `gorm:"column:participant_id;primaryKey"`
	GameID         string `gorm:"column:game_id"`
	UserID         string `gorm:"column:user_id"`
	ChosenOptionID string `gorm:"column:chosen_option_id"`
	StakedMicros   int64  `gorm:"column:staked_micros"`
	Confidence     string `gorm:"column:confidence"`
}

func (gameParticipantModel) TableName() string {
	return "game_participants"
}

func (m gameParticipantModel) toEntity() (entities.Participant, error) {
	confidence := decimal.Zero
	if raw := strings.TrimSpace(m.Confidence); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return entities.Participant{}, err
		}
		confidence = parsed
	}
	return entities.Participant{
		UserID:         m.UserID,
		ChosenOptionID: m.ChosenOptionID,
		Staked:         money.FromMicros(m.StakedMicros),
		Confidence:     confidence,
	}, nil
}

type settlementLineModel struct {
	LineID            string    `gorm:"column:line_id;primaryKey"`
	GameID            string    `gorm:"column:game_id"`
	UserID            string    `gorm:"column:user_id"`
	IsWinner          bool      `gorm:"column:is_winner"`
	StakedMicros      int64     `gorm:"column:staked_micros"`
	PayoutMicros      int64     `gorm:"column:payout_micros"`
	PlatformFeeMicros int64     `gorm:"column:platform_fee_micros"`
	NetProfitMicros   int64     `gorm:"column:net_profit_micros"`
	BonusMicros       int64     `gorm:"column:bonus_micros"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (settlementLineModel) TableName() string {
	return "settlement_lines"
}

func (m settlementLineModel) toEntity() entities.SettlementLine {
	return entities.SettlementLine{
		UserID:      m.UserID,
		IsWinner:    m.IsWinner,
		Staked:      money.FromMicros(m.StakedMicros),
		Payout:      money.FromMicros(m.PayoutMicros),
		PlatformFee: money.FromMicros(m.PlatformFeeMicros),
		NetProfit:   money.FromMicros(m.NetProfitMicros),
		Bonus:       money.FromMicros(m.BonusMicros),
	}
}

type settlementOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (settlementOutboxModel) TableName() string {
	return "settlement_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	t := value.UTC()
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.GameRepository = (*Repository)(nil)
var _ ports.SettlementRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
