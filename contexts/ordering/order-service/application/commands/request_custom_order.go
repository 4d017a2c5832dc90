package commands

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

type RequestCustomOrderCommand struct {
	IdempotencyKey  string
	ShopSlug        string
	Customer        entities.Customer
	PickupDate      string
	Message         string
	InspirationURLs []string
	BudgetCents     int64
}

type RequestCustomOrderUseCase struct {
	Shops          ports.ShopDirectory
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

// Execute records a custom cake request waiting for the merchant's quote.
func (u RequestCustomOrderUseCase) Execute(ctx context.Context, cmd RequestCustomOrderCommand) (PlacementResult, error) {
	logger := application.ResolveLogger(u.Logger)
	message := strings.TrimSpace(cmd.Message)
	if strings.TrimSpace(cmd.ShopSlug) == "" || message == "" || len(message) > maxMessageLength || cmd.BudgetCents < 0 {
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
	inspirations, err := validateInspirationURLs(cmd.InspirationURLs)
	if err != nil {
		return PlacementResult{}, err
	}

	requestHash := application.HashStrings(
		"request_custom_order",
		strings.ToLower(strings.TrimSpace(cmd.ShopSlug)),
		customer.Name,
		customer.Email,
		customer.Phone,
		pickupDate.Format(entities.DateLayout),
		message,
		strings.Join(inspirations, ","),
		strconv.FormatInt(cmd.BudgetCents, 10),
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
			dailyLimit, err := checkSlot(ctx, u.Orders, shop, nil, pickupDate, now)
			if err != nil {
				return nil, err
			}
			orderID, err := u.IDGenerator.NewID(ctx)
			if err != nil {
				return nil, err
			}
			order := entities.Order{
				OrderID:         orderID,
				ShopID:          shop.ShopID,
				Kind:            entities.KindCustom,
				Status:          entities.StatusPending,
				Customer:        customer,
				PickupDate:      pickupDate,
				Message:         message,
				InspirationURLs: inspirations,
				BudgetCents:     cmd.BudgetCents,
				Currency:        shop.Currency,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			err = createWithRef(ctx, u.Orders, u.RefSource, u.RefPrefix, dailyLimit, &order, func(o entities.Order) (ports.EventEnvelope, error) {
				return u.Events.Build(ctx, contractsv1.OrderRequested, o, shop, "", now)
			})
			if err != nil {
				logger.Error("custom order write failed",
					"event", "order_custom_request_write_failed",
					"module", "ordering/order-service",
					"layer", "application",
					"shop_id", shop.ShopID,
					"error", err.Error(),
				)
				return nil, err
			}
			if u.Metrics != nil {
				u.Metrics.OrderCreated(string(order.Kind))
			}
			logger.Info("custom order requested",
				"event", "order_custom_requested",
				"module", "ordering/order-service",
				"layer", "application",
				"shop_id", shop.ShopID,
				"order_id", order.OrderID,
				"ref", order.Ref,
			)
			return json.Marshal(PlacementResult{Order: order})
		},
	)
	out.Replayed = replayed
	return out, err
}
