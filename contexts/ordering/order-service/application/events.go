package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	"cakeshop/contexts/ordering/order-service/ports"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

const sourceService = "order-service"

// OrderEvents builds the outbox envelopes written next to order changes.
type OrderEvents struct {
	Shops         ports.ShopDirectory
	IDGenerator   ports.IDGenerator
	PublicBaseURL string
}

// ActionEventType maps a lifecycle action to the event it emits.
func ActionEventType(action entities.Action) string {
	switch action {
	case entities.ActionSendQuote:
		return contractsv1.OrderQuoted
	case entities.ActionAcceptQuote:
		return contractsv1.OrderQuoteAccepted
	case entities.ActionConfirmPayment:
		return contractsv1.OrderConfirmed
	case entities.ActionMarkReady:
		return contractsv1.OrderReady
	case entities.ActionComplete:
		return contractsv1.OrderCompleted
	default:
		return contractsv1.OrderRefused
	}
}

func (e OrderEvents) Build(
	ctx context.Context,
	eventType string,
	order entities.Order,
	shop ports.ShopSnapshot,
	previous entities.OrderStatus,
	now time.Time,
) (ports.EventEnvelope, error) {
	eventID, err := e.IDGenerator.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	paymentLink := ""
	if outstanding := order.OutstandingDepositCents(); outstanding > 0 && e.Shops != nil {
		paymentLink, err = e.Shops.PaymentLink(ctx, order.ShopID, outstanding)
		if err != nil {
			return ports.EventEnvelope{}, err
		}
	}
	data, err := json.Marshal(EventData(order, shop, previous, paymentLink, e.OrderPageURL(order.Ref)))
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       now,
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "shop_id",
		PartitionKey:     order.ShopID,
		Data:             data,
	}, nil
}

func (e OrderEvents) OrderPageURL(ref string) string {
	base := strings.TrimRight(strings.TrimSpace(e.PublicBaseURL), "/")
	if base == "" || ref == "" {
		return ""
	}
	return base + "/orders/" + ref
}

func EventData(
	order entities.Order,
	shop ports.ShopSnapshot,
	previous entities.OrderStatus,
	paymentLink string,
	pageURL string,
) contractsv1.OrderEventData {
	lines := make([]contractsv1.OrderEventLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, contractsv1.OrderEventLine{
			Label:      line.Label,
			Value:      line.Value,
			PriceCents: line.PriceCents,
		})
	}
	data := contractsv1.OrderEventData{
		OrderID:        order.OrderID,
		Ref:            order.Ref,
		ShopID:         order.ShopID,
		ShopName:       shop.Name,
		ShopEmail:      shop.Email,
		Kind:           string(order.Kind),
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		ProductName:    order.ProductName,
		Lines:          lines,
		CustomerName:   order.Customer.Name,
		CustomerEmail:  order.Customer.Email,
		CustomerPhone:  order.Customer.Phone,
		PickupDate:     order.PickupDate.Format(entities.DateLayout),
		Message:        order.Message,
		TotalCents:     order.TotalCents,
		DepositCents:   order.DepositCents,
		Currency:       order.Currency,
		RefusalReason:  order.RefusalReason,
		RefusedBy:      string(order.RefusedBy),
		PaymentLink:    paymentLink,
		OrderPageURL:   pageURL,
	}
	if order.Quote != nil {
		data.QuoteMessage = order.Quote.Message
		data.QuoteExpiresAt = order.Quote.ExpiresAt.UTC().Format(time.RFC3339)
		if order.Status == entities.StatusQuoted {
			data.TotalCents = order.Quote.AmountCents
			data.DepositCents = order.Quote.DepositCents
		}
	}
	return data
}
