package memory

import (
	"context"
	"sync"
	"time"

	"moneywave/contexts/economy-core/allocation-auditor/ports"
	"moneywave/internal/shared/money"
)

// Store is the in-memory adapter backing tests and local runs. Rollups are
// staged per hour and domain, one map per aggregation path.
type Store struct {
	mu sync.RWMutex

	categoryTotals map[string]map[string]money.Amount
	gameTotals     map[string]map[string]money.Amount

	categoryErr error
	gameErr     error
}

func NewStore() *Store {
	return &Store{
		categoryTotals: make(map[string]map[string]money.Amount),
		gameTotals:     make(map[string]map[string]money.Amount),
	}
}

// SetCategoryTotal stages one category-level rollup value.
func (s *Store) SetCategoryTotal(hourStart time.Time, domain, category string, amount money.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rollupKey(hourStart, domain)
	if s.categoryTotals[key] == nil {
		s.categoryTotals[key] = make(map[string]money.Amount)
	}
	s.categoryTotals[key][category] = amount
}

// SetGameTotal stages one per-game rollup value.
func (s *Store) SetGameTotal(hourStart time.Time, domain, category string, amount money.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rollupKey(hourStart, domain)
	if s.gameTotals[key] == nil {
		s.gameTotals[key] = make(map[string]money.Amount)
	}
	s.gameTotals[key][category] = amount
}

// FailCategoryTotals makes the category path return err. Pass nil to heal it.
func (s *Store) FailCategoryTotals(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryErr = err
}

// FailGameTotals makes the per-game path return err. Pass nil to heal it.
func (s *Store) FailGameTotals(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameErr = err
}

func (s *Store) CategoryTotals(_ context.Context, hourStart time.Time, domain string) (map[string]money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.categoryErr != nil {
		return nil, s.categoryErr
	}
	return cloneTotals(s.categoryTotals[rollupKey(hourStart, domain)]), nil
}

func (s *Store) GameTotalsByCategory(_ context.Context, hourStart time.Time, domain string) (map[string]money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gameErr != nil {
		return nil, s.gameErr
	}
	return cloneTotals(s.gameTotals[rollupKey(hourStart, domain)]), nil
}

func rollupKey(hourStart time.Time, domain string) string {
	return hourStart.UTC().Truncate(time.Hour).Format(time.RFC3339) + "|" + domain
}

func cloneTotals(totals map[string]money.Amount) map[string]money.Amount {
	out := make(map[string]money.Amount, len(totals))
	for category, amount := range totals {
		out[category] = amount
	}
	return out
}

var _ ports.AllocationSource = (*Store)(nil)
