package mailerservice

import (
	"log/slog"
	"time"

	"cakeshop/contexts/notifications/mailer-service/adapters/memory"
	"cakeshop/contexts/notifications/mailer-service/application/workers"
	"cakeshop/contexts/notifications/mailer-service/domain/services"
	"cakeshop/contexts/notifications/mailer-service/ports"
)

type Module struct {
	Notifier workers.OrderNotifier
	Retrier  workers.DeliveryRetrier
	Store    *memory.Store
}

type Dependencies struct {
	Subscriber    ports.EventSubscriber
	Mailer        ports.Mailer
	Renderer      ports.Renderer
	Deliveries    ports.DeliveryLog
	Clock         ports.Clock
	Retry         services.RetryPolicy
	SendLease     time.Duration
	ConsumerGroup string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	notifier := workers.OrderNotifier{
		Subscriber:    deps.Subscriber,
		Mailer:        deps.Mailer,
		Renderer:      deps.Renderer,
		Deliveries:    deps.Deliveries,
		Clock:         deps.Clock,
		Retry:         deps.Retry,
		SendLease:     deps.SendLease,
		ConsumerGroup: deps.ConsumerGroup,
		Logger:        deps.Logger,
	}
	return Module{
		Notifier: notifier,
		Retrier:  workers.DeliveryRetrier{Notifier: notifier},
	}
}

// NewInMemoryModule captures mail in memory instead of sending it.
func NewInMemoryModule(subscriber ports.EventSubscriber, renderer ports.Renderer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Subscriber: subscriber,
		Mailer:     store,
		Renderer:   renderer,
		Deliveries: store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
