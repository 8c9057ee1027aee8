package settlementengine

import (
	"log/slog"

	httpadapter "moneywave/contexts/economy-core/settlement-engine/adapters/http"
	"moneywave/contexts/economy-core/settlement-engine/adapters/memory"
	"moneywave/contexts/economy-core/settlement-engine/application"
	"moneywave/contexts/economy-core/settlement-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Games       ports.GameRepository
	Settlements ports.SettlementRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Rules       application.Rules
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Games:       deps.Games,
		Settlements: deps.Settlements,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Rules:       deps.Rules,
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
		Games:       store,
		Settlements: store,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Rules:       application.DefaultRules(),
		Logger:      logger,
	})
	module.Store = store
	return module
}
