package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"moneywave/internal/shared/money"
)

type GameStatus string

const (
	GameStatusActive  GameStatus = "active"
	GameStatusEnded   GameStatus = "ended"
	GameStatusSettled GameStatus = "settled"
)

type Game struct {
	GameID          string
	OwnerID         string
	Title           string
	Status          GameStatus
	OptionIDs       []string
	WinningOptionID string
	EndedAt         *time.Time
	SettledAt       *time.Time
}

// Participant is one staked position in a game. Confidence is the
// self-reported level in [0,1]; zero means unreported.
type Participant struct {
	UserID         string
	ChosenOptionID string
	Staked         money.Amount
	Confidence     decimal.Decimal
}

// SettlementLine is one participant's share of a settled game. Bonus is
// denominated in reward points, a secondary currency outside the stake
// conservation sum.
type SettlementLine struct {
	UserID      string
	IsWinner    bool
	Staked      money.Amount
	Payout      money.Amount
	PlatformFee money.Amount
	NetProfit   money.Amount
	Bonus       money.Amount
}

type SettlementSummary struct {
	TotalStaked      money.Amount
	TotalPayout      money.Amount
	PlatformRevenue  money.Amount
	ParticipantCount int
	WinnerCount      int
}

// SettlementBatch is the atomic unit applied by the caller.
type SettlementBatch struct {
	GameID          string
	WinningOptionID string
	SettledAt       time.Time
	Lines           []SettlementLine
	Summary         SettlementSummary
}
