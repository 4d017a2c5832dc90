package application

import (
	"context"
	"time"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	"cakeshop/contexts/ordering/order-service/ports"
)

// Transitioner applies a lifecycle action and writes the order together
// with the matching outbox event.
type Transitioner struct {
	Orders  ports.OrderRepository
	Shops   ports.ShopDirectory
	Events  OrderEvents
	Metrics ports.OrderMetrics
}

func (t Transitioner) Apply(
	ctx context.Context,
	order entities.Order,
	action entities.Action,
	actor entities.Actor,
	reason string,
	now time.Time,
) (entities.Order, error) {
	previous, err := order.Apply(action, actor, reason, now)
	if err != nil {
		return entities.Order{}, err
	}
	shop, err := t.Shops.FindShopByID(ctx, order.ShopID)
	if err != nil {
		return entities.Order{}, err
	}
	event, err := t.Events.Build(ctx, ActionEventType(action), order, shop, previous, now)
	if err != nil {
		return entities.Order{}, err
	}
	if err := t.Orders.UpdateOrderWithOutbox(ctx, order, previous, event); err != nil {
		return entities.Order{}, err
	}
	if t.Metrics != nil {
		t.Metrics.OrderTransitioned(string(previous), string(order.Status))
	}
	return order, nil
}
