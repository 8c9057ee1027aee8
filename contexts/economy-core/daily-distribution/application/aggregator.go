package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneywave/contexts/economy-core/daily-distribution/domain/entities"
	"moneywave/contexts/economy-core/daily-distribution/ports"
)

// SignalAggregator collects the three allocation signals. A failing source
// query degrades that signal to zero with a warning; it never fails the run.
type SignalAggregator struct {
	Source ports.SignalSource
	Logger *slog.Logger
}

func (a SignalAggregator) Collect(ctx context.Context, dormantSince time.Time) entities.SignalCounts {
	logger := ResolveLogger(a.Logger)
	var counts entities.SignalCounts

	if n, err := a.Source.CountActiveGames(ctx); err != nil {
		counts.Warnings = append(counts.Warnings,
			fmt.Sprintf("active games count unavailable, treated as 0: %v", err))
		a.logSignalFailure(logger, "active_games", err)
	} else {
		counts.ActiveGames = n
	}

	if n, err := a.Source.CountDormantAccounts(ctx, dormantSince); err != nil {
		counts.Warnings = append(counts.Warnings,
			fmt.Sprintf("dormant accounts count unavailable, treated as 0: %v", err))
		a.logSignalFailure(logger, "dormant_accounts", err)
	} else {
		counts.DormantAccounts = n
	}

	if n, err := a.Source.CountActiveVentures(ctx); err != nil {
		counts.Warnings = append(counts.Warnings,
			fmt.Sprintf("active ventures count unavailable, treated as 0: %v", err))
		a.logSignalFailure(logger, "active_ventures", err)
	} else {
		counts.ActiveVentures = n
	}

	return counts
}

func (a SignalAggregator) logSignalFailure(logger *slog.Logger, signal string, err error) {
	logger.Warn("allocation signal query failed",
		"event", "distribution_signal_query_failed",
		"module", "economy-core/daily-distribution",
		"layer", "application",
		"signal", signal,
		"error", err.Error(),
	)
}
