package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"moneywave/contexts/economy-core/settlement-engine/adapters/memory"
	"moneywave/contexts/economy-core/settlement-engine/application"
	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
	domainerrors "moneywave/contexts/economy-core/settlement-engine/domain/errors"
	"moneywave/internal/shared/money"
)

func newTestService(t *testing.T) (application.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	service := application.Service{
		Games:       store,
		Settlements: store,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		Rules:       application.DefaultRules(),
	}
	return service, store
}

func stageEndedGame(store *memory.Store) {
	endedAt := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	store.AddGame(entities.Game{
		GameID:    "game-1",
		OwnerID:   "owner-1",
		Title:     "Will it rain tomorrow?",
		Status:    entities.GameStatusEnded,
		OptionIDs: []string{"opt-yes", "opt-no"},
		EndedAt:   &endedAt,
	})
	store.AddParticipant("game-1", entities.Participant{
		UserID:         "winner-large",
		ChosenOptionID: "opt-yes",
		Staked:         money.MustParse("60"),
		Confidence:     decimal.RequireFromString("0.5"),
	})
	store.AddParticipant("game-1", entities.Participant{
		UserID:         "winner-small",
		ChosenOptionID: "opt-yes",
		Staked:         money.MustParse("40"),
		Confidence:     decimal.RequireFromString("0.9"),
	})
	store.AddParticipant("game-1", entities.Participant{
		UserID:         "loser",
		ChosenOptionID: "opt-no",
		Staked:         money.MustParse("900"),
		Confidence:     decimal.RequireFromString("0.7"),
	})
}

func TestSettleGamePersistsBatchAndOutbox(t *testing.T) {
	service, store := newTestService(t)
	stageEndedGame(store)

	batch, err := service.SettleGame(context.Background(), "owner-1", "game-1", "opt-yes")
	require.NoError(t, err)

	require.Equal(t, "game-1", batch.GameID)
	require.Equal(t, "opt-yes", batch.WinningOptionID)
	require.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), batch.SettledAt)
	require.Equal(t, 3, batch.Summary.ParticipantCount)
	require.Equal(t, 2, batch.Summary.WinnerCount)
	require.Equal(t, money.MustParse("1000"), batch.Summary.TotalStaked)
	require.Equal(t, money.MustParse("980"), batch.Summary.TotalPayout)
	require.Equal(t, money.MustParse("20"), batch.Summary.PlatformRevenue)

	game, err := store.GetGame(context.Background(), "game-1")
	require.NoError(t, err)
	require.Equal(t, entities.GameStatusSettled, game.Status)
	require.Equal(t, "opt-yes", game.WinningOptionID)
	require.NotNil(t, game.SettledAt)

	require.Equal(t, 1, store.SettlementCount())
	require.Equal(t, 1, store.PendingOutboxCount())
}

func TestSettleGameSecondAttemptFails(t *testing.T) {
	service, store := newTestService(t)
	stageEndedGame(store)

	first, err := service.SettleGame(context.Background(), "owner-1", "game-1", "opt-yes")
	require.NoError(t, err)

	_, err = service.SettleGame(context.Background(), "owner-1", "game-1", "opt-no")
	require.ErrorIs(t, err, domainerrors.ErrAlreadySettled)

	// The first batch is untouched by the rejected retry.
	stored, err := service.GetSettlement(context.Background(), "game-1")
	require.NoError(t, err)
	require.Equal(t, first.WinningOptionID, stored.WinningOptionID)
	require.Equal(t, first.Summary, stored.Summary)
	require.Equal(t, 1, store.SettlementCount())
	require.Equal(t, 1, store.PendingOutboxCount())
}

func TestSettleGameOnlyOwnerMaySettle(t *testing.T) {
	service, store := newTestService(t)
	stageEndedGame(store)

	_, err := service.SettleGame(context.Background(), "someone-else", "game-1", "opt-yes")
	require.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = service.SettleGame(context.Background(), "", "game-1", "opt-yes")
	require.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	require.Equal(t, 0, store.SettlementCount())
}

func TestSettleGameRequiresEndedStatus(t *testing.T) {
	service, store := newTestService(t)
	store.AddGame(entities.Game{
		GameID:    "game-open",
		OwnerID:   "owner-1",
		Status:    entities.GameStatusActive,
		OptionIDs: []string{"opt-yes", "opt-no"},
	})

	_, err := service.SettleGame(context.Background(), "owner-1", "game-open", "opt-yes")
	require.ErrorIs(t, err, domainerrors.ErrGameNotEnded)
}

func TestSettleGameUnknownGame(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.SettleGame(context.Background(), "owner-1", "missing", "opt-yes")
	require.ErrorIs(t, err, domainerrors.ErrGameNotFound)
}

func TestSettleGameRejectsForeignOption(t *testing.T) {
	service, store := newTestService(t)
	stageEndedGame(store)

	_, err := service.SettleGame(context.Background(), "owner-1", "game-1", "opt-maybe")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
	require.Equal(t, 0, store.SettlementCount())
}

func TestGetSettlementBeforeSettling(t *testing.T) {
	service, store := newTestService(t)
	stageEndedGame(store)

	_, err := service.GetSettlement(context.Background(), "game-1")
	require.ErrorIs(t, err, domainerrors.ErrSettlementNotFound)

	_, err = service.GetSettlement(context.Background(), "  ")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}
