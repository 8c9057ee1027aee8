package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	allocationauditor "moneywave/contexts/economy-core/allocation-auditor"
	auditpostgres "moneywave/contexts/economy-core/allocation-auditor/adapters/postgres"
	dailydistribution "moneywave/contexts/economy-core/daily-distribution"
	distributionpostgres "moneywave/contexts/economy-core/daily-distribution/adapters/postgres"
	distributionworkers "moneywave/contexts/economy-core/daily-distribution/application/workers"
	settlementengine "moneywave/contexts/economy-core/settlement-engine"
	settlementpostgres "moneywave/contexts/economy-core/settlement-engine/adapters/postgres"
	settlementapp "moneywave/contexts/economy-core/settlement-engine/application"
	settlementworkers "moneywave/contexts/economy-core/settlement-engine/application/workers"
	"moneywave/internal/platform/config"
	"moneywave/internal/platform/db"
	"moneywave/internal/platform/httpserver"
	"moneywave/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres         *db.Postgres
	dailyJob         distributionworkers.DailyJob
	distributionPump distributionworkers.OutboxRelay
	settlementPump   settlementworkers.OutboxRelay
	cronSpec         string
	relayInterval    time.Duration
	runOnStart       bool
	logger           *slog.Logger
}

type VerifierApp struct {
	postgres *db.Postgres
	module   allocationauditor.Module
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	distributionRepo := distributionpostgres.NewRepository(pg.DB, logger)
	distributionModule := dailydistribution.NewModule(dailydistribution.Dependencies{
		Config:      distributionRepo,
		Signals:     distributionRepo,
		Snapshots:   distributionRepo,
		Outbox:      distributionRepo,
		Clock:       distributionpostgres.SystemClock{},
		IDGenerator: distributionpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	settlementRepo := settlementpostgres.NewRepository(pg.DB, logger)
	settlementModule := settlementengine.NewModule(settlementengine.Dependencies{
		Games:       settlementRepo,
		Settlements: settlementRepo,
		Outbox:      settlementRepo,
		Clock:       settlementpostgres.SystemClock{},
		IDGenerator: settlementpostgres.UUIDGenerator{},
		Rules:       settlementRules(cfg),
		Logger:      logger,
	})

	auditRepo := auditpostgres.NewRepository(pg.DB, logger)
	auditModule := allocationauditor.NewModule(allocationauditor.Dependencies{
		Allocations: auditRepo,
		Logger:      logger,
	})

	server := httpserver.New(distributionModule, settlementModule, auditModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)

	distributionRepo := distributionpostgres.NewRepository(pg.DB, logger)
	distributionModule := dailydistribution.NewModule(dailydistribution.Dependencies{
		Config:      distributionRepo,
		Signals:     distributionRepo,
		Snapshots:   distributionRepo,
		Outbox:      distributionRepo,
		Clock:       distributionpostgres.SystemClock{},
		IDGenerator: distributionpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	settlementRepo := settlementpostgres.NewRepository(pg.DB, logger)

	relayInterval := time.Duration(cfg.Schedule.RelayIntervalSeconds) * time.Second
	if relayInterval <= 0 {
		relayInterval = 5 * time.Second
	}

	return &WorkerApp{
		postgres: pg,
		dailyJob: distributionModule.DailyJob,
		distributionPump: distributionworkers.OutboxRelay{
			Outbox:    distributionRepo,
			Publisher: bus,
			Clock:     distributionpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		settlementPump: settlementworkers.OutboxRelay{
			Outbox:    settlementRepo,
			Publisher: bus,
			Clock:     settlementpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		cronSpec:      cfg.Schedule.DailyAllocationCron,
		relayInterval: relayInterval,
		runOnStart:    cfg.Schedule.RunOnStart,
		logger:        logger,
	}, nil
}

func BuildVerifier() (*VerifierApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "verify")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	auditRepo := auditpostgres.NewRepository(pg.DB, logger)
	module := allocationauditor.NewModule(allocationauditor.Dependencies{
		Allocations: auditRepo,
		Logger:      logger,
	})

	return &VerifierApp{
		postgres: pg,
		module:   module,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run drives the worker process: the daily allocation on its cron schedule
// and the two outbox relays on a fixed tick. Relay errors are logged inside
// RunOnce and retried next tick; only context cancellation stops the loop.
func (w *WorkerApp) Run(ctx context.Context) error {
	scheduler := cron.New(cron.WithSeconds())
	_, err := scheduler.AddFunc(w.cronSpec, func() {
		_ = w.dailyJob.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"daily_cron", w.cronSpec,
		"relay_interval", w.relayInterval.String(),
		"run_on_start", w.runOnStart,
	)

	if w.runOnStart {
		_ = w.dailyJob.RunOnce(ctx)
	}

	ticker := time.NewTicker(w.relayInterval)
	defer ticker.Stop()

	for {
		_ = w.distributionPump.RunOnce(ctx)
		_ = w.settlementPump.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func (v *VerifierApp) Module() allocationauditor.Module {
	return v.module
}

func (v *VerifierApp) Close() error {
	if v.postgres != nil {
		return v.postgres.Close()
	}
	return nil
}

func settlementRules(cfg config.Config) settlementapp.Rules {
	return settlementapp.Rules{
		FeeRate:              cfg.Economics.FeeRate,
		BonusRate:            cfg.Economics.BonusRate,
		BonusConfidenceFloor: cfg.Economics.BonusConfidenceFloor,
		MinWinning:           cfg.Economics.MinWinning,
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
