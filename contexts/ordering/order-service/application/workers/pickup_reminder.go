package workers

import (
	"context"
	"errors"
	"log/slog"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

// PickupReminder emits order.pickup_reminder for confirmed and ready orders
// picked up tomorrow. Each order is reminded once.
type PickupReminder struct {
	Orders    ports.OrderRepository
	Shops     ports.ShopDirectory
	Events    application.OrderEvents
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r PickupReminder) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 200
	}
	now := application.Now(r.Clock)
	tomorrow := entities.DateOnly(now).AddDate(0, 0, 1)

	candidates, err := r.Orders.ListReminderCandidates(ctx, tomorrow, limit)
	if err != nil {
		logger.Error("pickup reminder listing failed",
			"event", "order_pickup_reminder_list_failed",
			"module", "ordering/order-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	shops := map[string]ports.ShopSnapshot{}
	queued := 0
	for _, order := range candidates {
		shop, ok := shops[order.ShopID]
		if !ok {
			shop, err = r.Shops.FindShopByID(ctx, order.ShopID)
			if err != nil {
				return err
			}
			shops[order.ShopID] = shop
		}
		order.ReminderSentAt = &now
		event, err := r.Events.Build(ctx, contractsv1.OrderPickupReminder, order, shop, "", now)
		if err != nil {
			return err
		}
		err = r.Orders.MarkReminderSentWithOutbox(ctx, order.OrderID, now, event)
		if errors.Is(err, domainerrors.ErrConcurrentUpdate) {
			logger.Warn("pickup reminder skipped, order changed",
				"event", "order_pickup_reminder_skipped",
				"module", "ordering/order-service",
				"layer", "worker",
				"order_id", order.OrderID,
			)
			continue
		}
		if err != nil {
			logger.Error("pickup reminder write failed",
				"event", "order_pickup_reminder_write_failed",
				"module", "ordering/order-service",
				"layer", "worker",
				"order_id", order.OrderID,
				"error", err.Error(),
			)
			return err
		}
		queued++
	}
	if queued > 0 {
		logger.Info("pickup reminders queued",
			"event", "order_pickup_reminders_queued",
			"module", "ordering/order-service",
			"layer", "worker",
			"pickup_date", tomorrow.Format(entities.DateLayout),
			"reminder_count", queued,
		)
	}
	return nil
}
