package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
)

// Summary feeds the dashboard home page.
type Summary struct {
	Counts map[entities.OrderStatus]int
	// ToPrepare holds confirmed and ready orders picked up in the next 7 days.
	ToPrepare         []entities.Order
	MonthRevenueCents int64
	Currency          string
}

type SummaryUseCase struct {
	Orders ports.OrderRepository
	Shops  ports.ShopDirectory
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u SummaryUseCase) Execute(ctx context.Context, shopID string) (Summary, error) {
	if strings.TrimSpace(shopID) == "" {
		return Summary{}, domainerrors.ErrInvalidRequest
	}
	shop, err := u.Shops.FindShopByID(ctx, shopID)
	if err != nil {
		return Summary{}, err
	}
	counts, err := u.Orders.StatusCounts(ctx, shopID)
	if err != nil {
		return Summary{}, err
	}
	full := make(map[entities.OrderStatus]int, len(entities.AllStatuses))
	for _, status := range entities.AllStatuses {
		full[status] = counts[status]
	}

	today := entities.DateOnly(application.Now(u.Clock))
	weekEnd := today.AddDate(0, 0, 6)
	toPrepare, _, err := u.Orders.ListOrders(ctx, ports.OrderFilter{
		ShopID:     shopID,
		Statuses:   []entities.OrderStatus{entities.StatusConfirmed, entities.StatusReady},
		PickupFrom: &today,
		PickupTo:   &weekEnd,
		Page:       1,
		Limit:      100,
	})
	if err != nil {
		return Summary{}, err
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	revenue, err := u.Orders.SumConfirmedRevenue(ctx, shopID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Counts:            full,
		ToPrepare:         toPrepare,
		MonthRevenueCents: revenue,
		Currency:          shop.Currency,
	}, nil
}
