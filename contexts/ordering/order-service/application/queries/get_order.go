package queries

import (
	"context"
	"log/slog"
	"strings"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
)

type GetOrderUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

// Execute returns an order of the merchant's shop.
func (u GetOrderUseCase) Execute(ctx context.Context, shopID string, orderID string) (entities.Order, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return entities.Order{}, domainerrors.ErrInvalidRequest
	}
	order, err := u.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.ShopID != shopID {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return order, nil
}
