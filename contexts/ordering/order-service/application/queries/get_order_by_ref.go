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

// PublicOrder is what the customer sees on the order status page.
type PublicOrder struct {
	Order        entities.Order
	ShopName     string
	ShopSlug     string
	PaymentLink  string
	QuoteExpired bool
}

type GetOrderByRefUseCase struct {
	Orders ports.OrderRepository
	Shops  ports.ShopDirectory
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u GetOrderByRefUseCase) Execute(ctx context.Context, ref string) (PublicOrder, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return PublicOrder{}, domainerrors.ErrInvalidRequest
	}
	order, err := u.Orders.GetOrderByRef(ctx, ref)
	if err != nil {
		return PublicOrder{}, err
	}
	shop, err := u.Shops.FindShopByID(ctx, order.ShopID)
	if err != nil {
		return PublicOrder{}, err
	}
	if !shop.IsActive {
		return PublicOrder{}, domainerrors.ErrOrderNotFound
	}

	view := PublicOrder{
		Order:        order,
		ShopName:     shop.Name,
		ShopSlug:     shop.Slug,
		QuoteExpired: order.QuoteExpired(application.Now(u.Clock)),
	}
	if outstanding := order.OutstandingDepositCents(); outstanding > 0 && !view.QuoteExpired {
		view.PaymentLink, err = u.Shops.PaymentLink(ctx, shop.ShopID, outstanding)
		if err != nil {
			application.ResolveLogger(u.Logger).Warn("payment link unavailable",
				"event", "order_payment_link_failed",
				"module", "ordering/order-service",
				"layer", "application",
				"order_id", order.OrderID,
				"error", err.Error(),
			)
			view.PaymentLink = ""
		}
	}
	return view, nil
}
