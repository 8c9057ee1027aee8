package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"moneywave/internal/shared/money"
)

// DistributionConfig is the single active configuration row driving the
// daily allocation. Immutable per effective period; loaded fresh per run.
type DistributionConfig struct {
	ConfigID         string
	Timezone         string
	AlgorithmVersion string
	AnnualBaseline   money.Amount
	TaxRate          decimal.Decimal
	InterestRate     decimal.Decimal
	DormancyDays     int
	UpdatedAt        time.Time
}

// SignalCounts carries the three allocation weights. A failed source query
// leaves its count at zero and appends a warning instead of failing the run.
type SignalCounts struct {
	ActiveGames     int64    `json:"active_games"`
	DormantAccounts int64    `json:"dormant_accounts"`
	ActiveVentures  int64    `json:"active_ventures"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Sum returns the combined allocation weight.
func (s SignalCounts) Sum() int64 {
	return s.ActiveGames + s.DormantAccounts + s.ActiveVentures
}

// DailySnapshot is the persisted record of one allocator run, keyed by
// calendar date. Wave pools always sum exactly to the total pool; the
// floor-division residue lands in wave 1.
type DailySnapshot struct {
	SnapshotDate     string
	Timezone         string
	AlgorithmVersion string
	ComputedAt       time.Time
	AnnualBaseline   money.Amount
	TaxRate          decimal.Decimal
	InterestRate     decimal.Decimal
	Wave1Pool        money.Amount
	Wave2Pool        money.Amount
	Wave3Pool        money.Amount
	TotalPool        money.Amount
	HourlyPool       money.Amount
	Signals          SignalCounts
}
