package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	contractsv1 "moneywave/contracts/gen/events/v1"
	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
	domainerrors "moneywave/contexts/economy-core/settlement-engine/domain/errors"
	"moneywave/contexts/economy-core/settlement-engine/ports"
)

type Service struct {
	Games       ports.GameRepository
	Settlements ports.SettlementRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Rules       Rules
	Logger      *slog.Logger
}

// SettleGame runs the terminal settlement of a closed game. The game must
// exist, belong to the caller, and be in the ended state; a game that was
// already settled fails with ErrAlreadySettled and its first batch stays
// untouched.
func (s Service) SettleGame(
	ctx context.Context,
	actorID string,
	gameID string,
	winningOptionID string,
) (entities.SettlementBatch, error) {
	logger := ResolveLogger(s.Logger)
	actorID = strings.TrimSpace(actorID)
	gameID = strings.TrimSpace(gameID)
	winningOptionID = strings.TrimSpace(winningOptionID)

	if actorID == "" {
		return entities.SettlementBatch{}, domainerrors.ErrUnauthorized
	}
	if gameID == "" || winningOptionID == "" {
		return entities.SettlementBatch{}, domainerrors.ErrInvalidInput
	}

	game, err := s.Games.GetGame(ctx, gameID)
	if err != nil {
		return entities.SettlementBatch{}, err
	}
	if game.OwnerID != actorID {
		return entities.SettlementBatch{}, domainerrors.ErrUnauthorized
	}
	switch game.Status {
	case entities.GameStatusSettled:
		return entities.SettlementBatch{}, domainerrors.ErrAlreadySettled
	case entities.GameStatusEnded:
	default:
		return entities.SettlementBatch{}, domainerrors.ErrGameNotEnded
	}
	if len(game.OptionIDs) > 0 && !containsOption(game.OptionIDs, winningOptionID) {
		return entities.SettlementBatch{}, domainerrors.ErrInvalidInput
	}

	participants, err := s.Games.ListParticipants(ctx, gameID)
	if err != nil {
		return entities.SettlementBatch{}, err
	}

	lines, summary, err := CalculateSettlement(winningOptionID, participants, s.Rules)
	if err != nil {
		return entities.SettlementBatch{}, err
	}

	batch := entities.SettlementBatch{
		GameID:          gameID,
		WinningOptionID: winningOptionID,
		SettledAt:       s.now(),
		Lines:           lines,
		Summary:         summary,
	}
	if err := s.Settlements.SaveSettlement(ctx, batch); err != nil {
		return entities.SettlementBatch{}, err
	}
	if err := s.appendSettlementCompletedOutbox(ctx, batch); err != nil {
		return entities.SettlementBatch{}, err
	}

	logger.Info("prediction game settled",
		"event", "settlement_completed",
		"module", "economy-core/settlement-engine",
		"layer", "application",
		"game_id", gameID,
		"winning_option_id", winningOptionID,
		"participant_count", summary.ParticipantCount,
		"winner_count", summary.WinnerCount,
		"total_staked", summary.TotalStaked.String(),
		"platform_revenue", summary.PlatformRevenue.String(),
	)
	return batch, nil
}

// GetSettlement returns the persisted batch for a settled game.
func (s Service) GetSettlement(ctx context.Context, gameID string) (entities.SettlementBatch, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return entities.SettlementBatch{}, domainerrors.ErrInvalidInput
	}
	return s.Settlements.GetSettlement(ctx, gameID)
}

func (s Service) appendSettlementCompletedOutbox(ctx context.Context, batch entities.SettlementBatch) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"game_id":           batch.GameID,
		"winning_option_id": batch.WinningOptionID,
		"settled_at":        batch.SettledAt.UTC().Format(time.RFC3339),
		"total_staked":      batch.Summary.TotalStaked.String(),
		"total_payout":      batch.Summary.TotalPayout.String(),
		"platform_revenue":  batch.Summary.PlatformRevenue.String(),
		"participant_count": batch.Summary.ParticipantCount,
		"winner_count":      batch.Summary.WinnerCount,
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        contractsv1.EventTypeSettlementCompleted,
		OccurredAt:       batch.SettledAt.UTC(),
		SourceService:    "settlement-engine",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "game_id",
		PartitionKey:     batch.GameID,
		Data:             data,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func containsOption(options []string, optionID string) bool {
	for _, option := range options {
		if option == optionID {
			return true
		}
	}
	return false
}
