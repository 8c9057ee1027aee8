package application

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
	domainerrors "moneywave/contexts/economy-core/daily-distribution/domain/errors"
	"moneywave/internal/shared/money"
)

func baselineConfig() entities.DistributionConfig {
	return entities.DistributionConfig{
		Timezone:         "UTC",
		AlgorithmVersion: "v1",
		AnnualBaseline:   money.MustParse("1752000000000"),
		TaxRate:          decimal.RequireFromString("0.25"),
		InterestRate:     decimal.RequireFromString("0.03"),
		DormancyDays:     30,
	}
}

func TestSplitDailyPoolProportionalShares(t *testing.T) {
	split, err := SplitDailyPool(baselineConfig(), entities.SignalCounts{
		ActiveGames:     5,
		DormantAccounts: 2,
		ActiveVentures:  3,
	})
	require.NoError(t, err)

	// 1,752,000,000,000 * 0.72 / 365 = 3,456,000,000 per day, split 5/2/3.
	assert.Equal(t, money.MustParse("3456000000"), split.Total)
	assert.Equal(t, money.MustParse("1728000000"), split.Wave1)
	assert.Equal(t, money.MustParse("691200000"), split.Wave2)
	assert.Equal(t, money.MustParse("1036800000"), split.Wave3)
	assert.Equal(t, money.MustParse("144000000"), split.Hourly)
}

func TestSplitDailyPoolWavesAlwaysSumToTotal(t *testing.T) {
	cases := []entities.SignalCounts{
		{ActiveGames: 1, DormantAccounts: 1, ActiveVentures: 1},
		{ActiveGames: 3, DormantAccounts: 3, ActiveVentures: 1},
		{ActiveGames: 7, DormantAccounts: 11, ActiveVentures: 13},
		{ActiveGames: 999983, DormantAccounts: 1, ActiveVentures: 17},
		{ActiveGames: 0, DormantAccounts: 1, ActiveVentures: 0},
	}
	for _, signals := range cases {
		split, err := SplitDailyPool(baselineConfig(), signals)
		require.NoError(t, err)
		sum := split.Wave1.Add(split.Wave2).Add(split.Wave3)
		assert.Equal(t, split.Total, sum,
			"signals %+v leaked rounding: %s != %s", signals, sum, split.Total)
	}
}

func TestSplitDailyPoolAllZeroSignalsFallsBackToWaveOne(t *testing.T) {
	split, err := SplitDailyPool(baselineConfig(), entities.SignalCounts{})
	require.NoError(t, err)
	assert.Equal(t, split.Total, split.Wave1)
	assert.True(t, split.Wave2.IsZero())
	assert.True(t, split.Wave3.IsZero())
}

func TestSplitDailyPoolResidueGoesToWaveOne(t *testing.T) {
	cfg := baselineConfig()
	cfg.AnnualBaseline = money.FromMicros(365 * 100) // 100 micros per day net of nothing
	cfg.TaxRate = decimal.Zero
	cfg.InterestRate = decimal.Zero

	split, err := SplitDailyPool(cfg, entities.SignalCounts{
		ActiveGames:     1,
		DormantAccounts: 1,
		ActiveVentures:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), split.Total.Micros())
	assert.Equal(t, int64(33), split.Wave2.Micros())
	assert.Equal(t, int64(33), split.Wave3.Micros())
	assert.Equal(t, int64(34), split.Wave1.Micros())
}

func TestSplitDailyPoolRejectsRatesAboveOne(t *testing.T) {
	cfg := baselineConfig()
	cfg.TaxRate = decimal.RequireFromString("0.8")
	cfg.InterestRate = decimal.RequireFromString("0.3")

	_, err := SplitDailyPool(cfg, entities.SignalCounts{ActiveGames: 1})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidConfig)
}
