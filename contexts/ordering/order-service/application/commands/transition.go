package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
)

const maxReasonLength = 500

// TransitionCommand targets an order by OrderID for merchant actions and
// by Ref for customer actions.
type TransitionCommand struct {
	IdempotencyKey string
	ShopID         string
	OrderID        string
	Ref            string
	Action         entities.Action
	Reason         string
}

type TransitionResult struct {
	Order    entities.Order
	Replayed bool
}

type TransitionUseCase struct {
	Orders         ports.OrderRepository
	Shops          ports.ShopDirectory
	Transitioner   application.Transitioner
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Merchant runs a dashboard action on an order of the merchant's shop.
func (u TransitionUseCase) Merchant(ctx context.Context, cmd TransitionCommand) (TransitionResult, error) {
	switch cmd.Action {
	case entities.ActionConfirmPayment, entities.ActionMarkReady, entities.ActionComplete, entities.ActionRefuse:
	default:
		return TransitionResult{}, domainerrors.ErrInvalidTransition
	}
	if strings.TrimSpace(cmd.ShopID) == "" || strings.TrimSpace(cmd.OrderID) == "" {
		return TransitionResult{}, domainerrors.ErrInvalidRequest
	}
	return u.run(ctx, cmd, entities.ActorMerchant, func() (entities.Order, error) {
		return merchantOrder(ctx, u.Orders, cmd.ShopID, cmd.OrderID)
	})
}

// Customer accepts or rejects a quote from the public order page.
func (u TransitionUseCase) Customer(ctx context.Context, cmd TransitionCommand) (TransitionResult, error) {
	if cmd.Action != entities.ActionAcceptQuote && cmd.Action != entities.ActionRejectQuote {
		return TransitionResult{}, domainerrors.ErrInvalidTransition
	}
	ref := strings.ToUpper(strings.TrimSpace(cmd.Ref))
	if ref == "" {
		return TransitionResult{}, domainerrors.ErrInvalidRequest
	}
	cmd.Ref = ref
	return u.run(ctx, cmd, entities.ActorCustomer, func() (entities.Order, error) {
		order, err := u.Orders.GetOrderByRef(ctx, ref)
		if err != nil {
			return entities.Order{}, err
		}
		shop, err := u.Shops.FindShopByID(ctx, order.ShopID)
		if err != nil {
			return entities.Order{}, err
		}
		if !shop.IsActive {
			return entities.Order{}, domainerrors.ErrShopInactive
		}
		return order, nil
	})
}

func (u TransitionUseCase) run(
	ctx context.Context,
	cmd TransitionCommand,
	actor entities.Actor,
	load func() (entities.Order, error),
) (TransitionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	reason := strings.TrimSpace(cmd.Reason)
	if len(reason) > maxReasonLength {
		return TransitionResult{}, domainerrors.ErrInvalidRequest
	}
	requestHash := application.HashStrings(
		"transition",
		string(actor),
		string(cmd.Action),
		cmd.ShopID,
		cmd.OrderID,
		cmd.Ref,
		reason,
	)

	now := application.Now(u.Clock)
	var out TransitionResult
	replayed, err := application.IdempotencyRunner{Store: u.Idempotency, TTL: u.IdempotencyTTL}.Run(
		ctx,
		cmd.IdempotencyKey,
		requestHash,
		now,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			order, err := load()
			if err != nil {
				return nil, err
			}
			updated, err := u.Transitioner.Apply(ctx, order, cmd.Action, actor, reason, now)
			if err != nil {
				logger.Warn("order transition rejected",
					"event", "order_transition_rejected",
					"module", "ordering/order-service",
					"layer", "application",
					"order_id", order.OrderID,
					"status", order.Status,
					"action", cmd.Action,
					"error", err.Error(),
				)
				return nil, err
			}
			logger.Info("order transitioned",
				"event", "order_transitioned",
				"module", "ordering/order-service",
				"layer", "application",
				"order_id", updated.OrderID,
				"shop_id", updated.ShopID,
				"from", order.Status,
				"to", updated.Status,
			)
			return json.Marshal(TransitionResult{Order: updated})
		},
	)
	out.Replayed = replayed
	return out, err
}

// merchantOrder hides orders of other shops behind ErrOrderNotFound.
func merchantOrder(ctx context.Context, orders ports.OrderRepository, shopID string, orderID string) (entities.Order, error) {
	order, err := orders.GetOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.ShopID != shopID {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return order, nil
}
