package workers

import (
	"context"
	"encoding/json"

	"cakeshop/contexts/notifications/mailer-service/application"
	"cakeshop/contexts/notifications/mailer-service/domain/entities"
	domainerrors "cakeshop/contexts/notifications/mailer-service/domain/errors"
	"cakeshop/contexts/notifications/mailer-service/domain/services"
	"cakeshop/contexts/notifications/mailer-service/ports"
)

// DeliveryRetrier resends failed deliveries once their retry time has come,
// and takes over pending ones whose sender let the lease run out.
type DeliveryRetrier struct {
	Notifier  OrderNotifier
	BatchSize int
}

func (r DeliveryRetrier) RunOnce(ctx context.Context) error {
	n := r.Notifier
	logger := application.ResolveLogger(n.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 50
	}

	now := n.now()
	due, err := n.Deliveries.ListDue(ctx, now, limit)
	if err != nil {
		logger.Error("due deliveries list failed",
			"event", "mailer_retry_list_failed",
			"module", "notifications/mailer-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	retried := 0
	for _, delivery := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		claimed, err := n.Deliveries.ClaimRetry(ctx, delivery.EventID, delivery.Recipient, delivery.Attempts, now, now.Add(n.lease()))
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		delivery.Attempts++
		delivery.Status = entities.DeliveryPending

		event, recipient, err := r.rebuild(delivery)
		if err != nil {
			if markErr := n.Deliveries.MarkFailed(ctx, delivery.EventID, delivery.Recipient, entities.DeliveryAbandoned, err.Error(), nil); markErr != nil {
				return markErr
			}
			logger.Error("stored delivery unreadable",
				"event", "mailer_retry_abandoned",
				"module", "notifications/mailer-service",
				"layer", "worker",
				"event_id", delivery.EventID,
				"role", string(delivery.Role),
				"error", err.Error(),
			)
			continue
		}
		if err := n.dispatch(ctx, delivery, event, recipient); err != nil {
			return err
		}
		retried++
	}

	if retried > 0 {
		logger.Info("failed deliveries retried",
			"event", "mailer_retry_completed",
			"module", "notifications/mailer-service",
			"layer", "worker",
			"retried_count", retried,
		)
	}
	return nil
}

// rebuild recovers the event and the recipient from the stored envelope.
func (r DeliveryRetrier) rebuild(delivery entities.Delivery) (ports.OrderEvent, entities.Recipient, error) {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(delivery.Envelope, &envelope); err != nil {
		return ports.OrderEvent{}, entities.Recipient{}, err
	}
	event, err := decodeOrderEvent(envelope)
	if err != nil {
		return ports.OrderEvent{}, entities.Recipient{}, err
	}
	for _, recipient := range services.Recipients(delivery.EventType, partiesOf(event)) {
		if recipient.Key() == delivery.Recipient {
			return event, recipient, nil
		}
	}
	return ports.OrderEvent{}, entities.Recipient{}, domainerrors.ErrUnknownRecipient
}
