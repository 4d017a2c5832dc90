package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/domain/services"
	"cakeshop/contexts/ordering/order-service/ports"
)

const (
	DefaultQuoteValidDays = 7
	maxQuoteValidDays     = 60
)

type SendQuoteCommand struct {
	IdempotencyKey string
	ShopID         string
	OrderID        string
	AmountCents    int64
	// DepositCents defaults to the shop deposit percentage of the amount.
	DepositCents *int64
	Message      string
	ValidDays    int
}

type SendQuoteUseCase struct {
	Orders         ports.OrderRepository
	Shops          ports.ShopDirectory
	Transitioner   application.Transitioner
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u SendQuoteUseCase) Execute(ctx context.Context, cmd SendQuoteCommand) (TransitionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.ShopID) == "" || strings.TrimSpace(cmd.OrderID) == "" {
		return TransitionResult{}, domainerrors.ErrInvalidRequest
	}
	if cmd.AmountCents <= 0 || len(cmd.Message) > maxMessageLength {
		return TransitionResult{}, domainerrors.ErrInvalidQuote
	}
	if cmd.DepositCents != nil && (*cmd.DepositCents < 0 || *cmd.DepositCents > cmd.AmountCents) {
		return TransitionResult{}, domainerrors.ErrInvalidQuote
	}
	validDays := cmd.ValidDays
	if validDays == 0 {
		validDays = DefaultQuoteValidDays
	}
	if validDays < 0 || validDays > maxQuoteValidDays {
		return TransitionResult{}, domainerrors.ErrInvalidQuote
	}

	deposit := "default"
	if cmd.DepositCents != nil {
		deposit = strconv.FormatInt(*cmd.DepositCents, 10)
	}
	requestHash := application.HashStrings(
		"send_quote",
		cmd.ShopID,
		cmd.OrderID,
		strconv.FormatInt(cmd.AmountCents, 10),
		deposit,
		cmd.Message,
		strconv.Itoa(validDays),
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
			order, err := merchantOrder(ctx, u.Orders, cmd.ShopID, cmd.OrderID)
			if err != nil {
				return nil, err
			}
			if order.Status != entities.StatusPending {
				return nil, domainerrors.ErrInvalidTransition
			}
			shop, err := u.Shops.FindShopByID(ctx, cmd.ShopID)
			if err != nil {
				return nil, err
			}
			depositCents := services.DepositCents(cmd.AmountCents, shop.DepositPercentage)
			if cmd.DepositCents != nil {
				depositCents = *cmd.DepositCents
			}
			order.Quote = &entities.Quote{
				AmountCents:  cmd.AmountCents,
				DepositCents: depositCents,
				Message:      strings.TrimSpace(cmd.Message),
				ExpiresAt:    now.AddDate(0, 0, validDays),
			}
			updated, err := u.Transitioner.Apply(ctx, order, entities.ActionSendQuote, entities.ActorMerchant, "", now)
			if err != nil {
				return nil, err
			}
			logger.Info("quote sent",
				"event", "order_quote_sent",
				"module", "ordering/order-service",
				"layer", "application",
				"shop_id", cmd.ShopID,
				"order_id", cmd.OrderID,
				"amount_cents", cmd.AmountCents,
				"deposit_cents", depositCents,
			)
			return json.Marshal(TransitionResult{Order: updated})
		},
	)
	out.Replayed = replayed
	return out, err
}
