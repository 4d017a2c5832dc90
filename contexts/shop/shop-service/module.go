package shopservice

import (
	"log/slog"
	"time"

	httpadapter "cakeshop/contexts/shop/shop-service/adapters/http"
	"cakeshop/contexts/shop/shop-service/adapters/htmlpolicy"
	"cakeshop/contexts/shop/shop-service/adapters/memory"
	"cakeshop/contexts/shop/shop-service/application"
	"cakeshop/contexts/shop/shop-service/domain/entities"
	"cakeshop/contexts/shop/shop-service/ports"
)

// Module exposes the HTTP handler and the application service. Other
// contexts reach the service only through bridges in bootstrap.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Shops          ports.ShopRepository
	FAQs           ports.FAQRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Sanitizer      ports.Sanitizer
	Publisher      ports.EventPublisher
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	if deps.Sanitizer == nil {
		deps.Sanitizer = htmlpolicy.NewSanitizer()
	}
	service := application.Service{
		Shops:          deps.Shops,
		FAQs:           deps.FAQs,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		Sanitizer:      deps.Sanitizer,
		Publisher:      deps.Publisher,
		Logger:         deps.Logger,
		IdempotencyTTL: deps.IdempotencyTTL,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger, seed ...entities.Shop) Module {
	store := memory.NewStore(seed...)
	module := NewModule(Dependencies{
		Shops:          store,
		FAQs:           store,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
