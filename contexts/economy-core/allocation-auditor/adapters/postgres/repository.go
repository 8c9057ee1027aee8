package postgresadapter

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"moneywave/contexts/economy-core/allocation-auditor/ports"
	"moneywave/internal/shared/money"
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

type categoryTotalRow struct {
	Category    string `gorm:"column:category"`
	TotalMicros int64  `gorm:"column:total_micros"`
}

// CategoryTotals sums the category-level allocation rows for one hour.
func (r *Repository) CategoryTotals(
	ctx context.Context,
	hourStart time.Time,
	domain string,
) (map[string]money.Amount, error) {
	var rows []categoryTotalRow
	err := r.db.WithContext(ctx).
		Table("category_allocations").
		Select("category, COALESCE(SUM(amount_micros), 0) AS total_micros").
		Where("hour_start = ?", hourStart.UTC()).
		Where("domain = ?", domain).
		Group("category").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("audit_repo_category_totals_failed", err, hourStart, domain)
	}
	return toAmountMap(rows), nil
}

// GameTotalsByCategory sums the per-game allocation rows for the same hour,
// grouped back up to category. This is the independent second path.
func (r *Repository) GameTotalsByCategory(
	ctx context.Context,
	hourStart time.Time,
	domain string,
) (map[string]money.Amount, error) {
	var rows []categoryTotalRow
	err := r.db.WithContext(ctx).
		Table("game_pool_allocations").
		Select("category, COALESCE(SUM(amount_micros), 0) AS total_micros").
		Where("hour_start = ?", hourStart.UTC()).
		Where("domain = ?", domain).
		Group("category").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("audit_repo_game_totals_failed", err, hourStart, domain)
	}
	return toAmountMap(rows), nil
}

func toAmountMap(rows []categoryTotalRow) map[string]money.Amount {
	totals := make(map[string]money.Amount, len(rows))
	for _, row := range rows {
		totals[row.Category] = money.FromMicros(row.TotalMicros)
	}
	return totals
}

func (r *Repository) logError(event string, err error, hourStart time.Time, domain string) error {
	r.logger.Error("audit repository query failed",
		"event", event,
		"module", "economy-core/allocation-auditor",
		"layer", "adapter",
		"hour_start", hourStart.UTC().Format(time.RFC3339),
		"domain", domain,
		"error", err.Error(),
	)
	return err
}

var _ ports.AllocationSource = (*Repository)(nil)
