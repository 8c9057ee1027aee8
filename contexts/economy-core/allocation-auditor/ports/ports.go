package ports

import (
	"context"
	"time"

	"moneywave/internal/shared/money"
)

// AllocationSource exposes the two independent rollups of one allocation
// hour. Implementations must not derive one path from the other.
type AllocationSource interface {
	CategoryTotals(ctx context.Context, hourStart time.Time, domain string) (map[string]money.Amount, error)
	GameTotalsByCategory(ctx context.Context, hourStart time.Time, domain string) (map[string]money.Amount, error)
}

type Clock interface {
	Now() time.Time
}
