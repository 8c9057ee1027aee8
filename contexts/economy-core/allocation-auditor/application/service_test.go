package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"moneywave/contexts/economy-core/allocation-auditor/adapters/memory"
	"moneywave/contexts/economy-core/allocation-auditor/application"
	domainerrors "moneywave/contexts/economy-core/allocation-auditor/domain/errors"
	"moneywave/internal/shared/money"
)

var auditHour = time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)

func newTestService() (application.Service, *memory.Store) {
	store := memory.NewStore()
	return application.Service{Allocations: store}, store
}

func TestVerifyEqualRollupsPass(t *testing.T) {
	service, store := newTestService()
	store.SetCategoryTotal(auditHour, "predictions", "sports", money.MustParse("100"))
	store.SetCategoryTotal(auditHour, "predictions", "politics", money.MustParse("44"))
	store.SetGameTotal(auditHour, "predictions", "sports", money.MustParse("100"))
	store.SetGameTotal(auditHour, "predictions", "politics", money.MustParse("44"))

	report, err := service.Verify(context.Background(), auditHour, "predictions")
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Len(t, report.Checks, 2)
	require.Equal(t, money.MustParse("144"), report.ExpectedTotal)
	require.Equal(t, report.ExpectedTotal, report.ActualTotal)
	for _, check := range report.Checks {
		require.True(t, check.Match)
		require.True(t, check.Delta.IsZero())
	}
}

func TestVerifyPerturbedGameRollupFails(t *testing.T) {
	service, store := newTestService()
	store.SetCategoryTotal(auditHour, "predictions", "sports", money.MustParse("100"))
	store.SetCategoryTotal(auditHour, "predictions", "politics", money.MustParse("44"))
	store.SetGameTotal(auditHour, "predictions", "sports", money.MustParse("100.000001"))
	store.SetGameTotal(auditHour, "predictions", "politics", money.MustParse("44"))

	report, err := service.Verify(context.Background(), auditHour, "predictions")
	require.NoError(t, err)
	require.False(t, report.Passed)

	// Checks come back sorted by category.
	require.Equal(t, "politics", report.Checks[0].Category)
	require.True(t, report.Checks[0].Match)
	require.Equal(t, "sports", report.Checks[1].Category)
	require.False(t, report.Checks[1].Match)
	require.Equal(t, int64(1), report.Checks[1].Delta.Micros())
}

func TestVerifyCategoryMissingOnOneSide(t *testing.T) {
	service, store := newTestService()
	store.SetCategoryTotal(auditHour, "predictions", "sports", money.MustParse("100"))
	store.SetGameTotal(auditHour, "predictions", "crypto", money.MustParse("5"))

	report, err := service.Verify(context.Background(), auditHour, "predictions")
	require.NoError(t, err)
	require.False(t, report.Passed)
	require.Len(t, report.Checks, 2)

	crypto := report.Checks[0]
	require.Equal(t, "crypto", crypto.Category)
	require.True(t, crypto.Expected.IsZero())
	require.Equal(t, money.MustParse("5"), crypto.Actual)
	require.False(t, crypto.Match)

	sports := report.Checks[1]
	require.Equal(t, "sports", sports.Category)
	require.True(t, sports.Actual.IsZero())
	require.False(t, sports.Match)
}

func TestVerifyEmptyHourPasses(t *testing.T) {
	service, _ := newTestService()

	report, err := service.Verify(context.Background(), auditHour, "predictions")
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Empty(t, report.Checks)
}

func TestVerifyTruncatesToHourBoundary(t *testing.T) {
	service, store := newTestService()
	store.SetCategoryTotal(auditHour, "predictions", "sports", money.MustParse("1"))
	store.SetGameTotal(auditHour, "predictions", "sports", money.MustParse("1"))

	midHour := auditHour.Add(23 * time.Minute)
	report, err := service.Verify(context.Background(), midHour, "predictions")
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Equal(t, auditHour, report.HourStart)
	require.Len(t, report.Checks, 1)
}

func TestVerifyRejectsBadInput(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Verify(context.Background(), time.Time{}, "predictions")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = service.Verify(context.Background(), auditHour, "  ")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestVerifyPropagatesSourceFailure(t *testing.T) {
	service, store := newTestService()
	sourceErr := errors.New("connection reset")
	store.FailGameTotals(sourceErr)
	store.SetCategoryTotal(auditHour, "predictions", "sports", money.MustParse("1"))

	_, err := service.Verify(context.Background(), auditHour, "predictions")
	require.ErrorIs(t, err, sourceErr)
}
