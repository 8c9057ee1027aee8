package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"moneywave/contexts/economy-core/settlement-engine/application"
	"moneywave/contexts/economy-core/settlement-engine/domain/entities"
	httptransport "moneywave/contexts/economy-core/settlement-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) SettleHandler(
	ctx context.Context,
	actorID string,
	gameID string,
	req httptransport.SettleRequest,
) (httptransport.SettleResponse, error) {
	batch, err := h.Service.SettleGame(ctx, actorID, gameID, req.WinningOptionID)
	if err != nil {
		return httptransport.SettleResponse{}, err
	}
	return httptransport.SettleResponse{
		Status:     "success",
		Settlement: toDTO(batch),
	}, nil
}

func (h Handler) GetSettlementHandler(
	ctx context.Context,
	gameID string,
) (httptransport.SettlementResponse, error) {
	batch, err := h.Service.GetSettlement(ctx, gameID)
	if err != nil {
		return httptransport.SettlementResponse{}, err
	}
	return httptransport.SettlementResponse{
		Status:     "success",
		Settlement: toDTO(batch),
	}, nil
}

func toDTO(batch entities.SettlementBatch) httptransport.SettlementDTO {
	lines := make([]httptransport.SettlementLineDTO, 0, len(batch.Lines))
	for _, line := range batch.Lines {
		lines = append(lines, httptransport.SettlementLineDTO{
			UserID:      line.UserID,
			IsWinner:    line.IsWinner,
			Staked:      line.Staked.String(),
			Payout:      line.Payout.String(),
			PlatformFee: line.PlatformFee.String(),
			NetProfit:   line.NetProfit.String(),
			Bonus:       line.Bonus.String(),
		})
	}
	return httptransport.SettlementDTO{
		GameID:          batch.GameID,
		WinningOptionID: batch.WinningOptionID,
		SettledAt:       batch.SettledAt.UTC().Format(time.RFC3339),
		Lines:           lines,
		Summary: httptransport.SettlementSummaryDTO{
			TotalStaked:      batch.Summary.TotalStaked.String(),
			TotalPayout:      batch.Summary.TotalPayout.String(),
			PlatformRevenue:  batch.Summary.PlatformRevenue.String(),
			ParticipantCount: batch.Summary.ParticipantCount,
			WinnerCount:      batch.Summary.WinnerCount,
		},
	}
}
