package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SettleRequest asks for the terminal settlement of an ended game.
type SettleRequest struct {
	WinningOptionID string `json:"winning_option_id"`
}

type SettlementLineDTO struct {
	UserID      string `json:"user_id"`
	IsWinner    bool   `json:"is_winner"`
	Staked      string `json:"staked"`
	Payout      string `json:"payout"`
	PlatformFee string `json:"platform_fee"`
	NetProfit   string `json:"net_profit"`
	Bonus       string `json:"bonus"`
}

type SettlementSummaryDTO struct {
	TotalStaked      string `json:"total_staked"`
	TotalPayout      string `json:"total_payout"`
	PlatformRevenue  string `json:"platform_revenue"`
	ParticipantCount int    `json:"participant_count"`
	WinnerCount      int    `json:"winner_count"`
}

type SettlementDTO struct {
	GameID          string               `json:"game_id"`
	WinningOptionID string               `json:"winning_option_id"`
	SettledAt       string               `json:"settled_at"`
	Lines           []SettlementLineDTO  `json:"lines"`
	Summary         SettlementSummaryDTO `json:"summary"`
}

type SettleResponse struct {
	Status     string        `json:"status"`
	Settlement SettlementDTO `json:"settlement"`
}

type SettlementResponse struct {
	Status     string        `json:"status"`
	Settlement SettlementDTO `json:"settlement"`
}
