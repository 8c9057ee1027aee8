package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"moneywave/contexts/economy-core/daily-distribution/application"
	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
	httptransport "moneywave/contexts/economy-core/daily-distribution/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) DailyRunHandler(
	ctx context.Context,
	req httptransport.DailyRunRequest,
) (httptransport.DailyRunResponse, error) {
	result, err := h.Service.ComputeDaily(ctx, req.Force)
	if err != nil {
		return httptransport.DailyRunResponse{}, err
	}
	return httptransport.DailyRunResponse{
		Status:   result.Status,
		Snapshot: toDTO(result.Snapshot),
	}, nil
}

func (h Handler) GetSnapshotHandler(
	ctx context.Context,
	snapshotDate string,
) (httptransport.SnapshotResponse, error) {
	snapshot, err := h.Service.GetSnapshot(ctx, snapshotDate)
	if err != nil {
		return httptransport.SnapshotResponse{}, err
	}
	return httptransport.SnapshotResponse{
		Status:   "success",
		Snapshot: toDTO(snapshot),
	}, nil
}

func toDTO(snapshot entities.DailySnapshot) httptransport.SnapshotDTO {
	return httptransport.SnapshotDTO{
		SnapshotDate:     snapshot.SnapshotDate,
		Timezone:         snapshot.Timezone,
		AlgorithmVersion: snapshot.AlgorithmVersion,
		ComputedAt:       snapshot.ComputedAt.UTC().Format(time.RFC3339),
		AnnualBaseline:   snapshot.AnnualBaseline.String(),
		TaxRate:          snapshot.TaxRate.String(),
		InterestRate:     snapshot.InterestRate.String(),
		Wave1Pool:        snapshot.Wave1Pool.String(),
		Wave2Pool:        snapshot.Wave2Pool.String(),
		Wave3Pool:        snapshot.Wave3Pool.String(),
		TotalPool:        snapshot.TotalPool.String(),
		HourlyPool:       snapshot.HourlyPool.String(),
		Signals: httptransport.SignalCountsDTO{
			ActiveGames:     snapshot.Signals.ActiveGames,
			DormantAccounts: snapshot.Signals.DormantAccounts,
			ActiveVentures:  snapshot.Signals.ActiveVentures,
			Warnings:        append([]string(nil), snapshot.Signals.Warnings...),
		},
	}
}
