package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/domain/services"
	"cakeshop/contexts/ordering/order-service/ports"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

type CheckoutCommand struct {
	IdempotencyKey string
	ShopSlug       string
	ProductID      string
	Selection      map[string]any
	Customer       entities.Customer
	PickupDate     string
	Message        string
}

type CheckoutUseCase struct {
	Shops          ports.ShopDirectory
	Catalog        ports.Catalog
	Orders         ports.OrderRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Events         application.OrderEvents
	RefSource      io.Reader
	RefPrefix      string
	Metrics        ports.OrderMetrics
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Execute places a catalog order: price the answers, check the pickup
// slot, then store the order with a fresh ref and its order.placed event.
// The order starts in to_verify while the customer pays the deposit.
func (u CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutCommand) (PlacementResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.ShopSlug) == "" || strings.TrimSpace(cmd.ProductID) == "" {
		return PlacementResult{}, domainerrors.ErrInvalidRequest
	}
	if len(cmd.Message) > maxMessageLength {
		return PlacementResult{}, domainerrors.ErrInvalidRequest
	}
	customer, err := normalizeCustomer(cmd.Customer)
	if err != nil {
		return PlacementResult{}, err
	}
	pickupDate, err := entities.ParseDate(cmd.PickupDate)
	if err != nil {
		return PlacementResult{}, err
	}

	selection, err := json.Marshal(cmd.Selection)
	if err != nil {
		return PlacementResult{}, fmt.Errorf("%w: selection: %v", domainerrors.ErrInvalidRequest, err)
	}
	requestHash := application.HashStrings(
		"checkout",
		strings.ToLower(strings.TrimSpace(cmd.ShopSlug)),
		cmd.ProductID,
		string(selection),
		customer.Name,
		customer.Email,
		customer.Phone,
		pickupDate.Format(entities.DateLayout),
		cmd.Message,
	)

	now := application.Now(u.Clock)
	var out PlacementResult
	replayed, err := application.IdempotencyRunner{Store: u.Idempotency, TTL: u.IdempotencyTTL}.Run(
		ctx,
		cmd.IdempotencyKey,
		requestHash,
		now,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			shop, err := activeShopBySlug(ctx, u.Shops, cmd.ShopSlug)
			if err != nil {
				return nil, err
			}
			product, err := u.Catalog.PriceProduct(ctx, shop.ShopID, cmd.ProductID, cmd.Selection)
			if err != nil {
				return nil, err
			}
			dailyLimit, err := checkSlot(ctx, u.Orders, shop, product.MinDaysNotice, pickupDate, now)
			if err != nil {
				return nil, err
			}

			orderID, err := u.IDGenerator.NewID(ctx)
			if err != nil {
				return nil, err
			}
			order := entities.Order{
				OrderID:      orderID,
				ShopID:       shop.ShopID,
				Kind:         entities.KindCatalog,
				Status:       entities.StatusToVerify,
				ProductID:    product.ProductID,
				ProductName:  product.Name,
				Lines:        product.Lines,
				Customer:     customer,
				PickupDate:   pickupDate,
				Message:      strings.TrimSpace(cmd.Message),
				TotalCents:   product.TotalCents,
				DepositCents: services.DepositCents(product.TotalCents, shop.DepositPercentage),
				Currency:     shop.Currency,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			err = createWithRef(ctx, u.Orders, u.RefSource, u.RefPrefix, dailyLimit, &order, func(o entities.Order) (ports.EventEnvelope, error) {
				return u.Events.Build(ctx, contractsv1.OrderPlaced, o, shop, "", now)
			})
			if err != nil {
				logger.Error("checkout write failed",
					"event", "order_checkout_write_failed",
					"module", "ordering/order-service",
					"layer", "application",
					"shop_id", shop.ShopID,
					"product_id", cmd.ProductID,
					"error", err.Error(),
				)
				return nil, err
			}

			result := PlacementResult{Order: order}
			if order.DepositCents > 0 {
				result.PaymentLink, err = u.Shops.PaymentLink(ctx, shop.ShopID, order.DepositCents)
				if err != nil {
					return nil, err
				}
			}
			if u.Metrics != nil {
				u.Metrics.OrderCreated(string(order.Kind))
			}
			logger.Info("catalog order placed",
				"event", "order_checkout_placed",
				"module", "ordering/order-service",
				"layer", "application",
				"shop_id", shop.ShopID,
				"order_id", order.OrderID,
				"ref", order.Ref,
				"total_cents", order.TotalCents,
			)
			return json.Marshal(result)
		},
	)
	out.Replayed = replayed
	return out, err
}
