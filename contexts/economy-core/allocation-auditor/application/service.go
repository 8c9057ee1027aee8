package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"moneywave/contexts/economy-core/allocation-auditor/domain/entities"
	domainerrors "moneywave/contexts/economy-core/allocation-auditor/domain/errors"
	"moneywave/contexts/economy-core/allocation-auditor/ports"
	"moneywave/internal/shared/money"
)

type Service struct {
	Allocations ports.AllocationSource
	Logger      *slog.Logger
}

// Verify cross-checks one allocation hour. A category present on either path
// is checked on both; a category missing on one side counts as a zero there
// and fails the check unless the other side is zero too.
func (s Service) Verify(ctx context.Context, hourStart time.Time, domain string) (entities.AuditReport, error) {
	logger := ResolveLogger(s.Logger)
	domain = strings.TrimSpace(domain)
	if domain == "" || hourStart.IsZero() {
		return entities.AuditReport{}, domainerrors.ErrInvalidInput
	}
	hourStart = hourStart.UTC().Truncate(time.Hour)

	expected, err := s.Allocations.CategoryTotals(ctx, hourStart, domain)
	if err != nil {
		logger.Error("audit category rollup failed",
			"event", "audit_category_rollup_failed",
			"module", "economy-core/allocation-auditor",
			"layer", "application",
			"hour_start", hourStart.Format(time.RFC3339),
			"domain", domain,
			"error", err.Error(),
		)
		return entities.AuditReport{}, err
	}
	actual, err := s.Allocations.GameTotalsByCategory(ctx, hourStart, domain)
	if err != nil {
		logger.Error("audit game rollup failed",
			"event", "audit_game_rollup_failed",
			"module", "economy-core/allocation-auditor",
			"layer", "application",
			"hour_start", hourStart.Format(time.RFC3339),
			"domain", domain,
			"error", err.Error(),
		)
		return entities.AuditReport{}, err
	}

	report := entities.AuditReport{
		HourStart: hourStart,
		Domain:    domain,
		Passed:    true,
	}
	for _, category := range mergedCategories(expected, actual) {
		check := entities.CategoryCheck{
			Category: category,
			Expected: expected[category],
			Actual:   actual[category],
		}
		check.Delta = check.Actual.Sub(check.Expected)
		check.Match = check.Delta.IsZero()
		if !check.Match {
			report.Passed = false
		}
		report.ExpectedTotal = report.ExpectedTotal.Add(check.Expected)
		report.ActualTotal = report.ActualTotal.Add(check.Actual)
		report.Checks = append(report.Checks, check)
	}

	if report.Passed {
		logger.Info("hourly allocation audit passed",
			"event", "audit_passed",
			"module", "economy-core/allocation-auditor",
			"layer", "application",
			"hour_start", hourStart.Format(time.RFC3339),
			"domain", domain,
			"category_count", len(report.Checks),
			"expected_total", report.ExpectedTotal.String(),
		)
	} else {
		logger.Warn("hourly allocation audit failed",
			"event", "audit_failed",
			"module", "economy-core/allocation-auditor",
			"layer", "application",
			"hour_start", hourStart.Format(time.RFC3339),
			"domain", domain,
			"expected_total", report.ExpectedTotal.String(),
			"actual_total", report.ActualTotal.String(),
		)
	}
	return report, nil
}

func mergedCategories(expected, actual map[string]money.Amount) []string {
	seen := make(map[string]struct{}, len(expected)+len(actual))
	for category := range expected {
		seen[category] = struct{}{}
	}
	for category := range actual {
		seen[category] = struct{}{}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
