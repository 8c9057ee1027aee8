package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DailyRunRequest struct {
	Force bool `json:"force,omitempty"`
}

type SignalCountsDTO struct {
	ActiveGames     int64    `json:"active_games"`
	DormantAccounts int64    `json:"dormant_accounts"`
	ActiveVentures  int64    `json:"active_ventures"`
	Warnings        []string `json:"warnings,omitempty"`
}

type SnapshotDTO struct {
	SnapshotDate     string          `json:"snapshot_date"`
	Timezone         string          `json:"timezone"`
	AlgorithmVersion string          `json:"algorithm_version"`
	ComputedAt       string          `json:"computed_at"`
	AnnualBaseline   string          `json:"annual_baseline"`
	TaxRate          string          `json:"tax_rate"`
	InterestRate     string          `json:"interest_rate"`
	Wave1Pool        string          `json:"wave1_pool"`
	Wave2Pool        string          `json:"wave2_pool"`
	Wave3Pool        string          `json:"wave3_pool"`
	TotalPool        string          `json:"total_pool"`
	HourlyPool       string          `json:"hourly_pool"`
	Signals          SignalCountsDTO `json:"signals"`
}

type DailyRunResponse struct {
	Status   string      `json:"status"`
	Snapshot SnapshotDTO `json:"snapshot"`
}

type SnapshotResponse struct {
	Status   string      `json:"status"`
	Snapshot SnapshotDTO `json:"snapshot"`
}
