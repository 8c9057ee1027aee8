package application

import (
	"fmt"

	"github.com/shopspring/decimal"

	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
	domainerrors "moneywave/contexts/economy-core/settlement-engine/domain/errors"
	"moneywave/internal/shared/money"
)

// Rules are the business constants applied to every settlement.
type Rules struct {
	FeeRate              decimal.Decimal
	BonusRate            decimal.Decimal
	BonusConfidenceFloor decimal.Decimal
	MinWinning           money.Amount
}

func DefaultRules() Rules {
	return Rules{
		FeeRate:              decimal.RequireFromString("0.02"),
		BonusRate:            decimal.RequireFromString("0.05"),
		BonusConfidenceFloor: decimal.RequireFromString("0.8"),
		MinWinning:           money.Zero,
	}
}

var decimalOne = decimal.NewFromInt(1)

// CalculateSettlement redistributes a closed game's stakes. Losers forfeit
// their whole stake into the prize pool; each winner takes back their stake
// plus a pool share proportional to it, minus the platform fee on the gross
// winning. The pool's floor-division residue goes to the largest-stake winner
// so gross payouts match total stakes exactly.
//
// The MinWinning floor can only raise a payout, and the confidence bonus is
// issued in reward points on top of, never out of, the primary payout.
func CalculateSettlement(
	winningOptionID string,
	participants []entities.Participant,
	rules Rules,
) ([]entities.SettlementLine, entities.SettlementSummary, error) {
	if winningOptionID == "" {
		return nil, entities.SettlementSummary{}, domainerrors.ErrInvalidInput
	}

	var summary entities.SettlementSummary
	summary.ParticipantCount = len(participants)

	totalWinnerStake := money.Zero
	loserPool := money.Zero
	for _, p := range participants {
		if p.Staked.IsNegative() {
			return nil, entities.SettlementSummary{}, fmt.Errorf(
				"%w: participant %s staked %s", domainerrors.ErrInvalidInput, p.UserID, p.Staked)
		}
		if p.Confidence.IsNegative() || p.Confidence.GreaterThan(decimalOne) {
			return nil, entities.SettlementSummary{}, fmt.Errorf(
				"%w: participant %s confidence %s", domainerrors.ErrInvalidInput, p.UserID, p.Confidence)
		}
		summary.TotalStaked = summary.TotalStaked.Add(p.Staked)
		if p.ChosenOptionID == winningOptionID {
			summary.WinnerCount++
			totalWinnerStake = totalWinnerStake.Add(p.Staked)
		} else {
			loserPool = loserPool.Add(p.Staked)
		}
	}

	poolShares, err := splitLoserPool(winningOptionID, participants, loserPool, totalWinnerStake)
	if err != nil {
		return nil, entities.SettlementSummary{}, err
	}

	lines := make([]entities.SettlementLine, 0, len(participants))
	for i, p := range participants {
		if p.ChosenOptionID != winningOptionID {
			lines = append(lines, entities.SettlementLine{
				UserID:    p.UserID,
				IsWinner:  false,
				Staked:    p.Staked,
				NetProfit: p.Staked.Neg(),
			})
			continue
		}

		line := entities.SettlementLine{
			UserID:   p.UserID,
			IsWinner: true,
			Staked:   p.Staked,
		}
		if !totalWinnerStake.IsZero() {
			gross := p.Staked.Add(poolShares[i])
			fee := gross.MulRate(rules.FeeRate)
			net := gross.Sub(fee)
			payout := net
			if payout.Cmp(rules.MinWinning) < 0 {
				payout = rules.MinWinning
			}
			line.Payout = payout
			line.PlatformFee = fee
			if p.Confidence.GreaterThan(rules.BonusConfidenceFloor) {
				line.Bonus = payout.MulRate(rules.BonusRate)
			}
		}
		line.NetProfit = line.Payout.Sub(p.Staked)
		summary.TotalPayout = summary.TotalPayout.Add(line.Payout)
		summary.PlatformRevenue = summary.PlatformRevenue.Add(line.PlatformFee)
		lines = append(lines, line)
	}

	return lines, summary, nil
}

// splitLoserPool computes each winner's floored proportional share of the
// loser pool, indexed by participant position. The residue is handed to the
// winner with the largest stake, first position winning ties.
func splitLoserPool(
	winningOptionID string,
	participants []entities.Participant,
	loserPool money.Amount,
	totalWinnerStake money.Amount,
) (map[int]money.Amount, error) {
	shares := make(map[int]money.Amount, len(participants))
	if totalWinnerStake.IsZero() {
		return shares, nil
	}

	allocated := money.Zero
	largest := -1
	for i, p := range participants {
		if p.ChosenOptionID != winningOptionID {
			continue
		}
		share, err := loserPool.ScaleByRatio(p.Staked.Micros(), totalWinnerStake.Micros())
		if err != nil {
			return nil, err
		}
		shares[i] = share
		allocated = allocated.Add(share)
		if largest < 0 || p.Staked.Cmp(participants[largest].Staked) > 0 {
			largest = i
		}
	}
	if residue := loserPool.Sub(allocated); !residue.IsZero() && largest >= 0 {
		shares[largest] = shares[largest].Add(residue)
	}
	return shares, nil
}
