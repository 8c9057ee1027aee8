package dailydistribution

import (
	"log/slog"

	httpadapter "moneywave/contexts/economy-core/daily-distribution/adapters/http"
	"moneywave/contexts/economy-core/daily-distribution/adapters/memory"
	"moneywave/contexts/economy-core/daily-distribution/application"
	"moneywave/contexts/economy-core/daily-distribution/application/workers"
	"moneywave/contexts/economy-core/daily-distribution/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Service  application.Service
	DailyJob workers.DailyJob
	Store    *memory.Store
}

type Dependencies struct {
	Config      ports.ConfigRepository
	Signals     ports.SignalSource
	Snapshots   ports.SnapshotRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Config:    deps.Config,
		Signals:   deps.Signals,
		Snapshots: deps.Snapshots,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
		DailyJob: workers.DailyJob{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Config:      store,
		Signals:     store,
		Snapshots:   store,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
