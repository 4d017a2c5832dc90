package catalogservice

import (
	"log/slog"
	"time"

	httpadapter "cakeshop/contexts/shop/catalog-service/adapters/http"
	"cakeshop/contexts/shop/catalog-service/adapters/memory"
	"cakeshop/contexts/shop/catalog-service/application"
	"cakeshop/contexts/shop/catalog-service/domain/entities"
	"cakeshop/contexts/shop/catalog-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Products       ports.ProductRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Products:       deps.Products,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		Logger:         deps.Logger,
		IdempotencyTTL: deps.IdempotencyTTL,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger, seed ...entities.Product) Module {
	store := memory.NewStore(seed...)
	module := NewModule(Dependencies{
		Products:       store,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
