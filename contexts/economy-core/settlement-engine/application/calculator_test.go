package application

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
	domainerrors "moneywave/contexts/economy-core/settlement-engine/domain/errors"
	"moneywave/internal/shared/money"
)

func participant(userID, optionID, staked, confidence string) entities.Participant {
	return entities.Participant{
		UserID:         userID,
		ChosenOptionID: optionID,
		Staked:         money.MustParse(staked),
		Confidence:     decimal.RequireFromString(confidence),
	}
}

func TestCalculateSettlementProportionalPayouts(t *testing.T) {
	participants := []entities.Participant{
		participant("winner-large", "opt-yes", "60", "0.5"),
		participant("winner-small", "opt-yes", "40", "0.5"),
		participant("loser-1", "opt-no", "500", "0.9"),
		participant("loser-2", "opt-no", "400", "0.3"),
	}

	lines, summary, err := CalculateSettlement("opt-yes", participants, DefaultRules())
	require.NoError(t, err)
	require.Len(t, lines, 4)

	require.Equal(t, money.MustParse("1000"), summary.TotalStaked)
	require.Equal(t, 2, summary.WinnerCount)
	require.Equal(t, 4, summary.ParticipantCount)

	large := lines[0]
	require.True(t, large.IsWinner)
	require.Equal(t, money.MustParse("588"), large.Payout)
	require.Equal(t, money.MustParse("12"), large.PlatformFee)
	require.Equal(t, money.MustParse("528"), large.NetProfit)
	require.True(t, large.Bonus.IsZero())

	small := lines[1]
	require.True(t, small.IsWinner)
	require.Equal(t, money.MustParse("392"), small.Payout)
	require.Equal(t, money.MustParse("8"), small.PlatformFee)
	require.Equal(t, money.MustParse("352"), small.NetProfit)

	require.Equal(t, money.MustParse("980"), summary.TotalPayout)
	require.Equal(t, money.MustParse("20"), summary.PlatformRevenue)
}

func TestCalculateSettlementLosersForfeitStake(t *testing.T) {
	participants := []entities.Participant{
		participant("winner", "opt-yes", "100", "0"),
		participant("loser", "opt-no", "250", "0"),
	}

	lines, _, err := CalculateSettlement("opt-yes", participants, DefaultRules())
	require.NoError(t, err)

	loser := lines[1]
	require.False(t, loser.IsWinner)
	require.True(t, loser.Payout.IsZero())
	require.True(t, loser.PlatformFee.IsZero())
	require.Equal(t, money.MustParse("-250"), loser.NetProfit)
}

func TestCalculateSettlementConservation(t *testing.T) {
	// Payouts plus platform revenue must equal total stakes whenever the
	// payout floor never binds.
	participants := []entities.Participant{
		participant("w1", "opt-a", "33.333333", "0.1"),
		participant("w2", "opt-a", "17.777777", "0.2"),
		participant("w3", "opt-a", "0.000007", "0.3"),
		participant("l1", "opt-b", "99.999999", "0.4"),
		participant("l2", "opt-b", "1.000001", "0.5"),
	}

	_, summary, err := CalculateSettlement("opt-a", participants, DefaultRules())
	require.NoError(t, err)

	redistributed := summary.TotalPayout.Add(summary.PlatformRevenue)
	require.Equal(t, summary.TotalStaked, redistributed)
}

func TestCalculateSettlementResidueGoesToLargestStake(t *testing.T) {
	// Pool of 100 micros split across three equal winners floors to 33 each;
	// the 1-micro residue lands on the first of the tied largest stakes.
	rules := DefaultRules()
	rules.FeeRate = decimal.Zero
	participants := []entities.Participant{
		participant("w1", "opt-a", "0.000010", "0"),
		participant("w2", "opt-a", "0.000010", "0"),
		participant("w3", "opt-a", "0.000010", "0"),
		participant("l1", "opt-b", "0.000100", "0"),
	}

	lines, _, err := CalculateSettlement("opt-a", participants, rules)
	require.NoError(t, err)

	require.Equal(t, int64(44), lines[0].Payout.Micros())
	require.Equal(t, int64(43), lines[1].Payout.Micros())
	require.Equal(t, int64(43), lines[2].Payout.Micros())
}

func TestCalculateSettlementNoWinners(t *testing.T) {
	participants := []entities.Participant{
		participant("l1", "opt-no", "300", "0.6"),
		participant("l2", "opt-no", "700", "0.7"),
	}

	lines, summary, err := CalculateSettlement("opt-yes", participants, DefaultRules())
	require.NoError(t, err)
	require.Equal(t, 0, summary.WinnerCount)
	require.True(t, summary.TotalPayout.IsZero())
	for _, line := range lines {
		require.False(t, line.IsWinner)
		require.True(t, line.Payout.IsZero())
	}
}

func TestCalculateSettlementAllWinners(t *testing.T) {
	// With an empty loser pool every winner just gets their stake back, less
	// the fee on that stake.
	participants := []entities.Participant{
		participant("w1", "opt-yes", "100", "0"),
		participant("w2", "opt-yes", "50", "0"),
	}

	lines, summary, err := CalculateSettlement("opt-yes", participants, DefaultRules())
	require.NoError(t, err)
	require.Equal(t, money.MustParse("98"), lines[0].Payout)
	require.Equal(t, money.MustParse("49"), lines[1].Payout)
	require.Equal(t, money.MustParse("3"), summary.PlatformRevenue)
}

func TestCalculateSettlementMinWinningFloor(t *testing.T) {
	rules := DefaultRules()
	rules.MinWinning = money.MustParse("5")
	participants := []entities.Participant{
		participant("winner", "opt-yes", "1", "0"),
		participant("loser", "opt-no", "1", "0"),
	}

	lines, _, err := CalculateSettlement("opt-yes", participants, rules)
	require.NoError(t, err)
	// Net would be 1.96; the floor lifts it to 5.
	require.Equal(t, money.MustParse("5"), lines[0].Payout)
}

func TestCalculateSettlementConfidenceBonus(t *testing.T) {
	participants := []entities.Participant{
		participant("confident", "opt-yes", "60", "0.9"),
		participant("exactly-floor", "opt-yes", "40", "0.8"),
		participant("loser", "opt-no", "900", "1"),
	}

	lines, _, err := CalculateSettlement("opt-yes", participants, DefaultRules())
	require.NoError(t, err)

	// Bonus is 5% of the payout, only strictly above the 0.8 floor.
	require.Equal(t, money.MustParse("29.40"), lines[0].Bonus)
	require.True(t, lines[1].Bonus.IsZero())
	require.True(t, lines[2].Bonus.IsZero())
}

func TestCalculateSettlementRejectsBadInput(t *testing.T) {
	_, _, err := CalculateSettlement("", nil, DefaultRules())
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	negativeStake := []entities.Participant{
		participant("bad", "opt-yes", "-1", "0"),
	}
	_, _, err = CalculateSettlement("opt-yes", negativeStake, DefaultRules())
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	badConfidence := []entities.Participant{
		participant("bad", "opt-yes", "1", "1.5"),
	}
	_, _, err = CalculateSettlement("opt-yes", badConfidence, DefaultRules())
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}
