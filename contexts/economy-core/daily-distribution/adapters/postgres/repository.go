package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
	domainerrors "moneywave/contexts/economy-core/daily-distribution/domain/errors"
	"moneywave/contexts/economy-core/daily-distribution/ports"
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

func (r *Repository) LoadActiveConfig(ctx context.Context) (entities.DistributionConfig, error) {
	var row distributionConfigModel
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DistributionConfig{}, domainerrors.ErrConfigMissing
		}
		return entities.DistributionConfig{}, r.logError("distribution_repo_load_config_failed", err)
	}
	return row.toEntity()
}

func (r *Repository) GetSnapshot(ctx context.Context, snapshotDate string) (entities.DailySnapshot, bool, error) {
	var row dailySnapshotModel
	err := r.db.WithContext(ctx).
		Where("snapshot_date = ?", strings.TrimSpace(snapshotDate)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DailySnapshot{}, false, nil
		}
		return entities.DailySnapshot{}, false, r.logError("distribution_repo_get_snapshot_failed", err,
			"snapshot_date", strings.TrimSpace(snapshotDate),
		)
	}
	snapshot, err := row.toEntity()
	if err != nil {
		return entities.DailySnapshot{}, false, r.logError("distribution_repo_decode_snapshot_failed", err,
			"snapshot_date", strings.TrimSpace(snapshotDate),
		)
	}
	return snapshot, true, nil
}

// UpsertSnapshot writes the one row for the snapshot date, overwriting in
// place on conflict. Two racing allocator runs both land on this key; the
// survivor is one of two equally valid computations, never a duplicate row.
func (r *Repository) UpsertSnapshot(ctx context.Context, snapshot entities.DailySnapshot) error {
	if strings.TrimSpace(snapshot.SnapshotDate) == "" || strings.TrimSpace(snapshot.AlgorithmVersion) == "" {
		return domainerrors.ErrInvalidInput
	}
	row, err := dailySnapshotModelFromEntity(snapshot)
	if err != nil {
		return r.logError("distribution_repo_encode_snapshot_failed", err,
			"snapshot_date", snapshot.SnapshotDate,
		)
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"timezone", "algorithm_version", "computed_at",
			"annual_baseline_micros", "tax_rate", "interest_rate",
			"wave1_pool_micros", "wave2_pool_micros", "wave3_pool_micros",
			"total_pool_micros", "hourly_pool_micros", "metadata",
		}),
	}).Create(&row).Error; err != nil {
		return r.logError("distribution_repo_upsert_snapshot_failed", err,
			"snapshot_date", snapshot.SnapshotDate,
			"algorithm_version", snapshot.AlgorithmVersion,
		)
	}
	return nil
}

func (r *Repository) CountActiveGames(ctx context.Context) (int64, error) {
	// Read-only projection lookup against the game store.
	var count int64
	err := r.db.WithContext(ctx).
		Model(&predictionGameProjection{}).
		Where("status = ?", "active").
		Count(&count).
		Error
	if err != nil {
		return 0, fmt.Errorf("count active games: %w", err)
	}
	return count, nil
}

func (r *Repository) CountDormantAccounts(ctx context.Context, inactiveSince time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&accountProjection{}).
		Where("last_activity_at < ?", inactiveSince.UTC()).
		Count(&count).
		Error
	if err != nil {
		return 0, fmt.Errorf("count dormant accounts: %w", err)
	}
	return count, nil
}

func (r *Repository) CountActiveVentures(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&venturePartnerProjection{}).
		Where("status = ?", "active").
		Count(&count).
		Error
	if err != nil {
		return 0, fmt.Errorf("count active ventures: %w", err)
	}
	return count, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("distribution_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := distributionOutboxModel{
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
		return r.logError("distribution_repo_append_outbox_insert_failed", createResult.Error,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing distributionOutboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return r.logError("distribution_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		r.logWarn("distribution_repo_append_outbox_payload_conflict",
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
	var rows []distributionOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("distribution_repo_list_pending_outbox_failed", err,
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
		Model(&distributionOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("distribution_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("distribution_repo_mark_outbox_published_not_found",
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
		"module", "economy-core/daily-distribution",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("distribution repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "economy-core/daily-distribution",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("distribution repository warning", fields...)
}

type distributionConfigModel struct {
	ConfigID             string    `gorm:"column:config_id;primaryKey"`
	Timezone             string    `gorm:"column:timezone"`
	AlgorithmVersion     string    `gorm:"column:algorithm_version"`
	AnnualBaselineMicros int64     `gorm:"column:annual_baseline_micros"`
	TaxRate              string    `gorm:"column:tax_rate"`
	InterestRate         string    `gorm:"column:interest_rate"`
	DormancyDays         int       `gorm:"column:dormancy_days"`
	IsActive             bool      `gorm:"column:is_active"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (distributionConfigModel) TableName() string {
	return "distribution_configs"
}

func (m distributionConfigModel) toEntity() (entities.DistributionConfig, error) {
	taxRate, err := decimal.NewFromString(strings.TrimSpace(m.TaxRate))
	if err != nil {
		return entities.DistributionConfig{}, fmt.Errorf("%w: tax rate %q", domainerrors.ErrInvalidConfig, m.TaxRate)
	}
	interestRate, err := decimal.NewFromString(strings.TrimSpace(m.InterestRate))
	if err != nil {
		return entities.DistributionConfig{}, fmt.Errorf("%w: interest rate %q", domainerrors.ErrInvalidConfig, m.InterestRate)
	}
	return entities.DistributionConfig{
		ConfigID:         m.ConfigID,
		Timezone:         strings.TrimSpace(m.Timezone),
		AlgorithmVersion: strings.TrimSpace(m.AlgorithmVersion),
		AnnualBaseline:   money.FromMicros(m.AnnualBaselineMicros),
		TaxRate:          taxRate,
		InterestRate:     interestRate,
		DormancyDays:     m.DormancyDays,
		UpdatedAt:        m.UpdatedAt.UTC(),
	}, nil
}

type dailySnapshotModel struct {
	SnapshotDate         string    `gorm:"column:snapshot_date;primaryKey"`
	Timezone             string    `gorm:"column:timezone"`
	AlgorithmVersion     string    `gorm:"column:algorithm_version"`
	ComputedAt           time.Time `gorm:"column:computed_at"`
	AnnualBaselineMicros int64     `gorm:"column:annual_baseline_micros"`
	TaxRate              string    `gorm:"column:tax_rate"`
	InterestRate         string    `gorm:"column:interest_rate"`
	Wave1PoolMicros      int64     `gorm:"column:wave1_pool_micros"`
	Wave2PoolMicros      int64     `gorm:"column:wave2_pool_micros"`
	Wave3PoolMicros      int64     `gorm:"column:wave3_pool_micros"`
	TotalPoolMicros      int64     `gorm:"column:total_pool_micros"`
	HourlyPoolMicros     int64     `gorm:"column:hourly_pool_micros"`
	Metadata             []byte    `gorm:"column:metadata"`
}

func (dailySnapshotModel) TableName() string {
	return "daily_snapshots"
}

func dailySnapshotModelFromEntity(snapshot entities.DailySnapshot) (dailySnapshotModel, error) {
	metadata, err := json.Marshal(snapshot.Signals)
	if err != nil {
		return dailySnapshotModel{}, err
	}
	return dailySnapshotModel{
		SnapshotDate:         strings.TrimSpace(snapshot.SnapshotDate),
		Timezone:             strings.TrimSpace(snapshot.Timezone),
		AlgorithmVersion:     strings.TrimSpace(snapshot.AlgorithmVersion),
		ComputedAt:           snapshot.ComputedAt.UTC(),
		AnnualBaselineMicros: snapshot.AnnualBaseline.Micros(),
		TaxRate:              snapshot.TaxRate.String(),
		InterestRate:         snapshot.InterestRate.String(),
		Wave1PoolMicros:      snapshot.Wave1Pool.Micros(),
		Wave2PoolMicros:      snapshot.Wave2Pool.Micros(),
		Wave3PoolMicros:      snapshot.Wave3Pool.Micros(),
		TotalPoolMicros:      snapshot.TotalPool.Micros(),
		HourlyPoolMicros:     snapshot.HourlyPool.Micros(),
		Metadata:             metadata,
	}, nil
}

func (m dailySnapshotModel) toEntity() (entities.DailySnapshot, error) {
	var signals entities.SignalCounts
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &signals); err != nil {
			return entities.DailySnapshot{}, err
		}
	}
	taxRate, err := decimal.NewFromString(strings.TrimSpace(m.TaxRate))
	if err != nil {
		return entities.DailySnapshot{}, err
	}
	interestRate, err := decimal.NewFromString(strings.TrimSpace(m.InterestRate))
	if err != nil {
		return entities.DailySnapshot{}, err
	}
	return entities.DailySnapshot{
		SnapshotDate:     m.SnapshotDate,
		Timezone:         m.Timezone,
		AlgorithmVersion: m.AlgorithmVersion,
		ComputedAt:       m.ComputedAt.UTC(),
		AnnualBaseline:   money.FromMicros(m.AnnualBaselineMicros),
		TaxRate:          taxRate,
		InterestRate:     interestRate,
		Wave1Pool:        money.FromMicros(m.Wave1PoolMicros),
		Wave2Pool:        money.FromMicros(m.Wave2PoolMicros),
		Wave3Pool:        money.FromMicros(m.Wave3PoolMicros),
		TotalPool:        money.FromMicros(m.TotalPoolMicros),
		HourlyPool:       money.FromMicros(m.HourlyPoolMicros),
		Signals:          signals,
	}, nil
}

type predictionGameProjection struct {
	GameID string `gorm:"column:game_id;primaryKey"`
	Status string `gorm:"column:status"`
}

func (predictionGameProjection) TableName() string {
	return "prediction_games"
}

type accountProjection struct {
	AccountID      string    `gorm:"column:account_id;primaryKey"`
	LastActivityAt time.Time `gorm:"column:last_activity_at"`
}

func (accountProjection) TableName() string {
	return "accounts"
}

type venturePartnerProjection struct {
	PartnerID string `gorm:"column:partner_id;primaryKey"`
	Status    string `gorm:"column:status"`
}

func (venturePartnerProjection) TableName() string {
	return "venture_partners"
}

type distributionOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (distributionOutboxModel) TableName() string {
	return "distribution_outbox"
}

var _ ports.ConfigRepository = (*Repository)(nil)
var _ ports.SignalSource = (*Repository)(nil)
var _ ports.SnapshotRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
