package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/domain/services"
	"cakeshop/contexts/ordering/order-service/ports"
)

const (
	maxRefAttempts     = 5
	maxMessageLength   = 2000
	maxInspirationURLs = 5
)

// PlacementResult is the stored response of checkout and custom requests.
type PlacementResult struct {
	Order       entities.Order
	PaymentLink string
	Replayed    bool
}

// checkSlot rejects a pickup date the shop cannot serve and returns the
// daily limit the write must enforce again, 0 when unlimited.
func checkSlot(
	ctx context.Context,
	orders ports.OrderRepository,
	shop ports.ShopSnapshot,
	productNotice *int,
	date time.Time,
	now time.Time,
) (int, error) {
	counts, err := orders.CountActiveOrdersOnDates(ctx, shop.ShopID, date, date)
	if err != nil {
		return 0, err
	}
	rules := application.SlotRules(shop, productNotice)
	status := services.EvaluateSlot(rules, date, now, counts[date.Format(entities.DateLayout)])
	if !status.Available {
		return 0, fmt.Errorf("%w: %s", domainerrors.ErrSlotUnavailable, status.Reason)
	}
	return rules.Week[date.Weekday()].DailyOrderLimit, nil
}

// createWithRef assigns a fresh ref and persists the order, retrying when
// the ref is already taken.
func createWithRef(
	ctx context.Context,
	orders ports.OrderRepository,
	refSource io.Reader,
	refPrefix string,
	dailyLimit int,
	order *entities.Order,
	build func(entities.Order) (ports.EventEnvelope, error),
) error {
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		ref, err := services.NewRef(refPrefix, refSource)
		if err != nil {
			return err
		}
		order.Ref = ref
		event, err := build(*order)
		if err != nil {
			return err
		}
		err = orders.CreateOrderWithOutbox(ctx, *order, dailyLimit, event)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainerrors.ErrDuplicateRef) {
			return err
		}
	}
	return domainerrors.ErrRefGenerationFailed
}

func activeShopBySlug(ctx context.Context, shops ports.ShopDirectory, slug string) (ports.ShopSnapshot, error) {
	shop, err := shops.FindShopBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return ports.ShopSnapshot{}, err
	}
	if !shop.IsActive {
		return ports.ShopSnapshot{}, domainerrors.ErrShopInactive
	}
	return shop, nil
}

func normalizeCustomer(customer entities.Customer) (entities.Customer, error) {
	customer = entities.Customer{
		Name:  strings.TrimSpace(customer.Name),
		Email: strings.ToLower(strings.TrimSpace(customer.Email)),
		Phone: strings.TrimSpace(customer.Phone),
	}
	if err := customer.Validate(); err != nil {
		return entities.Customer{}, err
	}
	return customer, nil
}

func validateInspirationURLs(values []string) ([]string, error) {
	if len(values) > maxInspirationURLs {
		return nil, domainerrors.ErrInvalidRequest
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, domainerrors.ErrInvalidRequest
		}
		out = append(out, value)
	}
	return out, nil
}
