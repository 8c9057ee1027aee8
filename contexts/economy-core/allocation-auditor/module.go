package allocationauditor

import (
	"log/slog"

	httpadapter "moneywave/contexts/economy-core/allocation-auditor/adapters/http"
	"moneywave/contexts/economy-core/allocation-auditor/adapters/memory"
	"moneywave/contexts/economy-core/allocation-auditor/application"
	"moneywave/contexts/economy-core/allocation-auditor/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Allocations ports.AllocationSource
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Allocations: deps.Allocations,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Allocations: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
