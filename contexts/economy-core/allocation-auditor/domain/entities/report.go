package entities

import (
	"time"

	"moneywave/internal/shared/money"
)

// CategoryCheck compares one category's two rollups. Expected comes from the
// category-level allocations, Actual from the per-game sums.
type CategoryCheck struct {
	Category string
	Expected money.Amount
	Actual   money.Amount
	Delta    money.Amount
	Match    bool
}

// AuditReport is the outcome of one hourly cross-check.
type AuditReport struct {
	HourStart     time.Time
	Domain        string
	Checks        []CategoryCheck
	ExpectedTotal money.Amount
	ActualTotal   money.Amount
	Passed        bool
}
