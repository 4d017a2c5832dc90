package orderservice

import (
	"io"
	"log/slog"
	"time"

	httpadapter "cakeshop/contexts/ordering/order-service/adapters/http"
	"cakeshop/contexts/ordering/order-service/adapters/memory"
	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/application/commands"
	"cakeshop/contexts/ordering/order-service/application/queries"
	"cakeshop/contexts/ordering/order-service/application/workers"
	"cakeshop/contexts/ordering/order-service/ports"
)

// Module is the composition surface of the ordering context. Workers are
// driven by cmd/worker; Store is exposed for tests and in-memory runs.
type Module struct {
	Handler        httpadapter.Handler
	OutboxRelay    workers.OutboxRelay
	QuoteExpirer   workers.QuoteExpirer
	PickupReminder workers.PickupReminder
	Store          *memory.Store
}

type Dependencies struct {
	Orders         ports.OrderRepository
	Outbox         ports.OutboxRepository
	Idempotency    ports.IdempotencyStore
	Shops          ports.ShopDirectory
	Catalog        ports.Catalog
	Publisher      ports.EventPublisher
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Metrics        ports.OrderMetrics
	RefSource      io.Reader
	RefPrefix      string
	PublicBaseURL  string
	IdempotencyTTL time.Duration
	BatchSize      int
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	events := application.OrderEvents{
		Shops:         deps.Shops,
		IDGenerator:   deps.IDGenerator,
		PublicBaseURL: deps.PublicBaseURL,
	}
	transitioner := application.Transitioner{
		Orders:  deps.Orders,
		Shops:   deps.Shops,
		Events:  events,
		Metrics: deps.Metrics,
	}

	handler := httpadapter.Handler{
		Checkout: commands.CheckoutUseCase{
			Shops:          deps.Shops,
			Catalog:        deps.Catalog,
			Orders:         deps.Orders,
			Idempotency:    deps.Idempotency,
			Clock:          deps.Clock,
			IDGenerator:    deps.IDGenerator,
			Events:         events,
			RefSource:      deps.RefSource,
			RefPrefix:      deps.RefPrefix,
			Metrics:        deps.Metrics,
			IdempotencyTTL: deps.IdempotencyTTL,
			Logger:         deps.Logger,
		},
		RequestCustom: commands.RequestCustomOrderUseCase{
			Shops:          deps.Shops,
			Orders:         deps.Orders,
			Idempotency:    deps.Idempotency,
			Clock:          deps.Clock,
			IDGenerator:    deps.IDGenerator,
			Events:         events,
			RefSource:      deps.RefSource,
			RefPrefix:      deps.RefPrefix,
			Metrics:        deps.Metrics,
			IdempotencyTTL: deps.IdempotencyTTL,
			Logger:         deps.Logger,
		},
		SendQuote: commands.SendQuoteUseCase{
			Orders:         deps.Orders,
			Shops:          deps.Shops,
			Transitioner:   transitioner,
			Idempotency:    deps.Idempotency,
			Clock:          deps.Clock,
			IdempotencyTTL: deps.IdempotencyTTL,
			Logger:         deps.Logger,
		},
		Transition: commands.TransitionUseCase{
			Orders:         deps.Orders,
			Shops:          deps.Shops,
			Transitioner:   transitioner,
			Idempotency:    deps.Idempotency,
			Clock:          deps.Clock,
			IdempotencyTTL: deps.IdempotencyTTL,
			Logger:         deps.Logger,
		},
		GetOrder: queries.GetOrderUseCase{Orders: deps.Orders, Logger: deps.Logger},
		GetOrderByRef: queries.GetOrderByRefUseCase{
			Orders: deps.Orders,
			Shops:  deps.Shops,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		ListOrders: queries.ListOrdersUseCase{Orders: deps.Orders, Logger: deps.Logger},
		Summary: queries.SummaryUseCase{
			Orders: deps.Orders,
			Shops:  deps.Shops,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		AvailableDates: queries.AvailableDatesUseCase{
			Shops:   deps.Shops,
			Catalog: deps.Catalog,
			Orders:  deps.Orders,
			Clock:   deps.Clock,
			Logger:  deps.Logger,
		},
		Logger: deps.Logger,
	}

	return Module{
		Handler: handler,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		QuoteExpirer: workers.QuoteExpirer{
			Orders:       deps.Orders,
			Transitioner: transitioner,
			Clock:        deps.Clock,
			BatchSize:    deps.BatchSize,
			Logger:       deps.Logger,
		},
		PickupReminder: workers.PickupReminder{
			Orders:    deps.Orders,
			Shops:     deps.Shops,
			Events:    events,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires ordering against the in-memory store. Shops and
// Catalog come from the other contexts through bootstrap bridges.
func NewInMemoryModule(
	shops ports.ShopDirectory,
	catalog ports.Catalog,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Orders:         store,
		Outbox:         store,
		Idempotency:    store,
		Shops:          shops,
		Catalog:        catalog,
		Publisher:      publisher,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
