package workers

import (
	"context"
	"errors"
	"log/slog"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
)

// QuoteExpirer refuses quoted orders whose quote validity ran out.
type QuoteExpirer struct {
	Orders       ports.OrderRepository
	Transitioner application.Transitioner
	Clock        ports.Clock
	BatchSize    int
	Logger       *slog.Logger
}

func (e QuoteExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	limit := e.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := application.Now(e.Clock)

	expired, err := e.Orders.ListExpiredQuotes(ctx, now, limit)
	if err != nil {
		logger.Error("quote expiry sweep failed",
			"event", "order_quote_expiry_failed",
			"module", "ordering/order-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	refused := 0
	for _, order := range expired {
		_, err := e.Transitioner.Apply(ctx, order, entities.ActionExpireQuote, entities.ActorSystem, "", now)
		if errors.Is(err, domainerrors.ErrConcurrentUpdate) || errors.Is(err, domainerrors.ErrInvalidTransition) {
			// The customer or merchant acted first.
			continue
		}
		if err != nil {
			logger.Error("quote expiry failed",
				"event", "order_quote_expiry_order_failed",
				"module", "ordering/order-service",
				"layer", "worker",
				"order_id", order.OrderID,
				"error", err.Error(),
			)
			return err
		}
		refused++
	}
	if refused > 0 {
		logger.Info("quote expiry sweep completed",
			"event", "order_quote_expiry_completed",
			"module", "ordering/order-service",
			"layer", "worker",
			"expired_count", refused,
		)
	}
	return nil
}
