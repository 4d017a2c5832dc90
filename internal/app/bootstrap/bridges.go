package bootstrap

import (
	"context"
	"errors"

	orderentities "cakeshop/contexts/ordering/order-service/domain/entities"
	ordererrors "cakeshop/contexts/ordering/order-service/domain/errors"
	orderservices "cakeshop/contexts/ordering/order-service/domain/services"
	orderports "cakeshop/contexts/ordering/order-service/ports"
	catalogapp "cakeshop/contexts/shop/catalog-service/application"
	catalogerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
	catalogservices "cakeshop/contexts/shop/catalog-service/domain/services"
	shopapp "cakeshop/contexts/shop/shop-service/application"
	shopentities "cakeshop/contexts/shop/shop-service/domain/entities"
	shoperrors "cakeshop/contexts/shop/shop-service/domain/errors"
)

// shopDirectory adapts the shop service to the ordering view of a shop.
// Inactive shops are returned as such; ordering decides how to expose them.
type shopDirectory struct {
	shops shopapp.Service
}

func (d shopDirectory) FindShopBySlug(ctx context.Context, slug string) (orderports.ShopSnapshot, error) {
	shop, err := d.shops.GetShopBySlug(ctx, slug, true)
	if err != nil {
		return orderports.ShopSnapshot{}, translateShopError(err)
	}
	return d.snapshot(ctx, shop)
}

func (d shopDirectory) FindShopByID(ctx context.Context, shopID string) (orderports.ShopSnapshot, error) {
	shop, err := d.shops.GetShop(ctx, shopID)
	if err != nil {
		return orderports.ShopSnapshot{}, translateShopError(err)
	}
	return d.snapshot(ctx, shop)
}

func (d shopDirectory) PaymentLink(ctx context.Context, shopID string, amountCents int64) (string, error) {
	link, err := d.shops.PaymentLink(ctx, shopID, amountCents)
	if err != nil {
		return "", translateShopError(err)
	}
	return link, nil
}

func (d shopDirectory) snapshot(ctx context.Context, shop shopentities.Shop) (orderports.ShopSnapshot, error) {
	schedule, err := d.shops.GetSchedule(ctx, shop.ShopID)
	if err != nil {
		return orderports.ShopSnapshot{}, translateShopError(err)
	}
	snapshot := orderports.ShopSnapshot{
		ShopID:            shop.ShopID,
		Slug:              shop.Slug,
		Name:              shop.Name,
		Email:             shop.Email,
		Currency:          shop.Currency,
		DepositPercentage: shop.DepositPercentage,
		MinDaysNotice:     shop.MinDaysNotice,
		PaypalHandle:      shop.Payment.PaypalHandle,
		IsActive:          shop.IsActive,
		Closures:          make([]orderservices.Closure, 0, len(schedule.Unavailabilities)),
	}
	for _, availability := range schedule.Availabilities {
		day := int(availability.Weekday)
		if day < 0 || day >= len(snapshot.Week) {
			continue
		}
		snapshot.Week[day] = orderservices.DaySchedule{
			IsOpen:          availability.IsOpen,
			DailyOrderLimit: availability.DailyOrderLimit,
		}
	}
	for _, closure := range schedule.Unavailabilities {
		snapshot.Closures = append(snapshot.Closures, orderservices.Closure{
			Start: closure.StartDate,
			End:   closure.EndDate,
		})
	}
	return snapshot, nil
}

func translateShopError(err error) error {
	switch {
	case errors.Is(err, shoperrors.ErrShopNotFound), errors.Is(err, shoperrors.ErrInvalidRequest):
		return ordererrors.ErrShopNotFound
	case errors.Is(err, shoperrors.ErrShopInactive):
		return ordererrors.ErrShopInactive
	default:
		return err
	}
}

// productCatalog adapts the catalog service to ordering.
type productCatalog struct {
	catalog catalogapp.Service
}

func (c productCatalog) GetProduct(ctx context.Context, shopID string, productID string) (orderports.ProductSnapshot, error) {
	product, err := c.catalog.GetProduct(ctx, shopID, productID, true)
	if err != nil {
		return orderports.ProductSnapshot{}, translateCatalogError(err)
	}
	return orderports.ProductSnapshot{
		ProductID:      product.ProductID,
		ShopID:         product.ShopID,
		Name:           product.Name,
		IsActive:       product.IsOrderable(),
		MinDaysNotice:  product.MinDaysNotice,
		BasePriceCents: product.BasePriceCents,
	}, nil
}

func (c productCatalog) PriceProduct(
	ctx context.Context,
	shopID string,
	productID string,
	selection map[string]any,
) (orderports.ProductSnapshot, error) {
	product, quote, err := c.catalog.PriceSelection(ctx, shopID, productID, catalogservices.Selection(selection))
	if err != nil {
		return orderports.ProductSnapshot{}, translateCatalogError(err)
	}
	lines := make([]orderentities.OrderLine, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lines = append(lines, orderentities.OrderLine{
			Label:      line.Label,
			Value:      line.Value,
			PriceCents: line.PriceCents,
		})
	}
	return orderports.ProductSnapshot{
		ProductID:      product.ProductID,
		ShopID:         product.ShopID,
		Name:           product.Name,
		IsActive:       product.IsOrderable(),
		MinDaysNotice:  product.MinDaysNotice,
		BasePriceCents: quote.BasePriceCents,
		Lines:          lines,
		TotalCents:     quote.TotalCents,
	}, nil
}

func translateCatalogError(err error) error {
	switch {
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		return ordererrors.ErrProductNotFound
	case errors.Is(err, catalogerrors.ErrProductInactive):
		return ordererrors.ErrProductUnavailable
	case errors.Is(err, catalogerrors.ErrInvalidSelection),
		errors.Is(err, catalogerrors.ErrRequiredFieldMissing),
		errors.Is(err, catalogerrors.ErrInvalidRequest):
		return ordererrors.ErrInvalidSelection
	default:
		return err
	}
}

var _ orderports.ShopDirectory = shopDirectory{}
var _ orderports.Catalog = productCatalog{}
