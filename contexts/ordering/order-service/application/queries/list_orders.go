package queries

import (
	"context"
	"log/slog"
	"strings"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
)

type ListOrdersResult struct {
	Items []entities.Order
	Total int
	Page  int
	Limit int
}

type ListOrdersUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (u ListOrdersUseCase) Execute(ctx context.Context, filter ports.OrderFilter) (ListOrdersResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(filter.ShopID) == "" {
		return ListOrdersResult{}, domainerrors.ErrInvalidRequest
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return ListOrdersResult{}, domainerrors.ErrInvalidRequest
		}
	}
	if filter.PickupFrom != nil && filter.PickupTo != nil && filter.PickupTo.Before(*filter.PickupFrom) {
		return ListOrdersResult{}, domainerrors.ErrInvalidRequest
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	items, total, err := u.Orders.ListOrders(ctx, filter)
	if err != nil {
		logger.Error("list orders failed",
			"event", "order_list_failed",
			"module", "ordering/order-service",
			"layer", "application",
			"shop_id", filter.ShopID,
			"error", err.Error(),
		)
		return ListOrdersResult{}, err
	}
	return ListOrdersResult{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
