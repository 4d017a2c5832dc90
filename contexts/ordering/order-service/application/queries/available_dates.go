package queries

import (
	"context"
	"log/slog"
	"strings"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/domain/services"
	"cakeshop/contexts/ordering/order-service/ports"
)

const (
	defaultAvailabilityDays = 30
	maxAvailabilityDays     = 90
)

type AvailableDatesQuery struct {
	ShopSlug  string
	ProductID string
	// From defaults to today; earlier dates are clamped to today.
	From string
	Days int
}

type AvailableDatesUseCase struct {
	Shops   ports.ShopDirectory
	Catalog ports.Catalog
	Orders  ports.OrderRepository
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (u AvailableDatesUseCase) Execute(ctx context.Context, query AvailableDatesQuery) ([]services.SlotStatus, error) {
	if strings.TrimSpace(query.ShopSlug) == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	days := query.Days
	if days <= 0 {
		days = defaultAvailabilityDays
	}
	if days > maxAvailabilityDays {
		days = maxAvailabilityDays
	}
	today := entities.DateOnly(application.Now(u.Clock))
	from := today
	if strings.TrimSpace(query.From) != "" {
		parsed, err := entities.ParseDate(query.From)
		if err != nil {
			return nil, domainerrors.ErrInvalidRequest
		}
		if parsed.After(today) {
			from = parsed
		}
	}

	shop, err := u.Shops.FindShopBySlug(ctx, strings.ToLower(strings.TrimSpace(query.ShopSlug)))
	if err != nil {
		return nil, err
	}
	if !shop.IsActive {
		return nil, domainerrors.ErrShopInactive
	}
	var productNotice *int
	if productID := strings.TrimSpace(query.ProductID); productID != "" {
		product, err := u.Catalog.GetProduct(ctx, shop.ShopID, productID)
		if err != nil {
			return nil, err
		}
		productNotice = product.MinDaysNotice
	}

	to := from.AddDate(0, 0, days-1)
	counts, err := u.Orders.CountActiveOrdersOnDates(ctx, shop.ShopID, from, to)
	if err != nil {
		return nil, err
	}
	rules := application.SlotRules(shop, productNotice)
	out := make([]services.SlotStatus, 0, days)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		out = append(out, services.EvaluateSlot(rules, date, today, counts[date.Format(entities.DateLayout)]))
	}
	return out, nil
}
