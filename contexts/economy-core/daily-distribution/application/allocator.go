package application

import (
	"fmt"

	"github.com/shopspring/decimal"

	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
	domainerrors "moneywave/contexts/economy-core/daily-distribution/domain/errors"
	"moneywave/internal/shared/money"
)

// PoolSplit is the outcome of one daily pool computation.
type PoolSplit struct {
	Wave1  money.Amount
	Wave2  money.Amount
	Wave3  money.Amount
	Total  money.Amount
	Hourly money.Amount
}

var one = decimal.NewFromInt(1)

// SplitDailyPool converts the annual baseline into a net daily pool and
// splits it across the three waves proportionally to the signal counts.
//
// Waves 2 and 3 take their floored proportional share; wave 1 takes the rest,
// so the three waves always sum exactly to the daily total. When every signal
// is zero the whole pool goes to wave 1.
func SplitDailyPool(cfg entities.DistributionConfig, signals entities.SignalCounts) (PoolSplit, error) {
	netFactor := one.Sub(cfg.TaxRate).Sub(cfg.InterestRate)
	if netFactor.IsNegative() {
		return PoolSplit{}, fmt.Errorf("%w: tax %s + interest %s exceed 1",
			domainerrors.ErrInvalidConfig, cfg.TaxRate, cfg.InterestRate)
	}

	netAnnual := cfg.AnnualBaseline.MulRate(netFactor)
	dailyTotal, err := netAnnual.ScaleByRatio(1, 365)
	if err != nil {
		return PoolSplit{}, err
	}
	hourly, err := dailyTotal.ScaleByRatio(1, 24)
	if err != nil {
		return PoolSplit{}, err
	}

	split := PoolSplit{Total: dailyTotal, Hourly: hourly}
	sum := signals.Sum()
	if sum == 0 {
		split.Wave1 = dailyTotal
		return split, nil
	}

	if split.Wave2, err = dailyTotal.ScaleByRatio(signals.DormantAccounts, sum); err != nil {
		return PoolSplit{}, err
	}
	if split.Wave3, err = dailyTotal.ScaleByRatio(signals.ActiveVentures, sum); err != nil {
		return PoolSplit{}, err
	}
	split.Wave1 = dailyTotal.Sub(split.Wave2).Sub(split.Wave3)
	return split, nil
}
