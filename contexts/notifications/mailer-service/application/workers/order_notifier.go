package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cakeshop/contexts/notifications/mailer-service/application"
	"cakeshop/contexts/notifications/mailer-service/domain/entities"
	domainerrors "cakeshop/contexts/notifications/mailer-service/domain/errors"
	"cakeshop/contexts/notifications/mailer-service/domain/services"
	"cakeshop/contexts/notifications/mailer-service/ports"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

const defaultConsumerGroup = "mailer-service"

// OrderNotifier turns order lifecycle events into emails.
type OrderNotifier struct {
	Subscriber    ports.EventSubscriber
	Mailer        ports.Mailer
	Renderer      ports.Renderer
	Deliveries    ports.DeliveryLog
	Clock         ports.Clock
	Retry         services.RetryPolicy
	SendLease     time.Duration
	ConsumerGroup string
	Logger        *slog.Logger
}

func (n OrderNotifier) Start(ctx context.Context) error {
	if n.Subscriber == nil {
		return nil
	}
	group := strings.TrimSpace(n.ConsumerGroup)
	if group == "" {
		group = defaultConsumerGroup
	}
	for _, topic := range contractsv1.OrderTopics {
		if err := n.Subscriber.Subscribe(ctx, topic, group, n.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	application.ResolveLogger(n.Logger).Info("order notifier subscribed",
		"event", "mailer_notifier_started",
		"module", "notifications/mailer-service",
		"layer", "worker",
		"topic_count", len(contractsv1.OrderTopics),
		"consumer_group", group,
	)
	return nil
}

// Handle mails every recipient of one envelope. A failed send is recorded
// for DeliveryRetrier and does not fail the handler; only delivery log
// errors do, so the bus delivers the event again.
func (n OrderNotifier) Handle(ctx context.Context, envelope ports.EventEnvelope) error {
	logger := application.ResolveLogger(n.Logger)
	event, err := decodeOrderEvent(envelope)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	recipients := services.Recipients(envelope.EventType, partiesOf(event))
	if len(recipients) == 0 {
		logger.Debug("order event has no recipients",
			"event", "mailer_event_skipped",
			"module", "notifications/mailer-service",
			"layer", "worker",
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
		return nil
	}

	var errs []error
	for _, recipient := range recipients {
		if err := n.deliver(ctx, envelope, raw, event, recipient); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n OrderNotifier) deliver(
	ctx context.Context,
	envelope ports.EventEnvelope,
	raw []byte,
	event ports.OrderEvent,
	recipient entities.Recipient,
) error {
	now := n.now()
	lease := now.Add(n.lease())
	delivery := entities.Delivery{
		EventID:       envelope.EventID,
		EventType:     envelope.EventType,
		OrderRef:      event.Ref,
		Recipient:     recipient.Key(),
		Role:          recipient.Role,
		Status:        entities.DeliveryPending,
		Attempts:      1,
		NextAttemptAt: &lease,
		Envelope:      raw,
		CreatedAt:     now,
	}
	reserved, err := n.Deliveries.Reserve(ctx, delivery)
	if err != nil {
		return err
	}
	if !reserved {
		application.ResolveLogger(n.Logger).Debug("order email already handled",
			"event", "mailer_delivery_duplicate",
			"module", "notifications/mailer-service",
			"layer", "worker",
			"event_id", envelope.EventID,
			"role", string(recipient.Role),
		)
		return nil
	}
	return n.dispatch(ctx, delivery, event, recipient)
}

// dispatch renders and sends one reserved delivery, then records the
// outcome. Send errors end up in the delivery log, not in the result.
func (n OrderNotifier) dispatch(
	ctx context.Context,
	delivery entities.Delivery,
	event ports.OrderEvent,
	recipient entities.Recipient,
) error {
	logger := application.ResolveLogger(n.Logger)
	message, err := n.Renderer.Render(delivery.EventType, recipient.Role, event)
	if err == nil {
		message.To = recipient.Email
		message.ToName = recipient.Name
		if recipient.Role == entities.RoleCustomer {
			message.ReplyTo = event.ShopEmail
		}
		err = n.Mailer.Send(ctx, message)
	}
	if err != nil {
		return n.recordFailure(ctx, delivery, err)
	}

	if err := n.Deliveries.MarkSent(ctx, delivery.EventID, delivery.Recipient, message.Subject, n.now()); err != nil {
		return err
	}
	logger.Info("order email sent",
		"event", "mailer_delivery_sent",
		"module", "notifications/mailer-service",
		"layer", "worker",
		"event_id", delivery.EventID,
		"event_type", delivery.EventType,
		"order_ref", delivery.OrderRef,
		"role", string(recipient.Role),
		"attempt", delivery.Attempts,
	)
	return nil
}

func (n OrderNotifier) recordFailure(ctx context.Context, delivery entities.Delivery, sendErr error) error {
	logger := application.ResolveLogger(n.Logger)
	status := entities.DeliveryFailed
	var nextAttemptAt *time.Time
	// Template and address errors are permanent.
	retryable := !errors.Is(sendErr, domainerrors.ErrUnknownTemplate) && !errors.Is(sendErr, domainerrors.ErrInvalidRecipient)
	if next, ok := n.Retry.Next(delivery.Attempts, n.now()); ok && retryable {
		nextAttemptAt = &next
	} else {
		status = entities.DeliveryAbandoned
	}

	if err := n.Deliveries.MarkFailed(ctx, delivery.EventID, delivery.Recipient, status, sendErr.Error(), nextAttemptAt); err != nil {
		return errors.Join(sendErr, err)
	}
	if status == entities.DeliveryAbandoned {
		logger.Error("order email abandoned",
			"event", "mailer_delivery_abandoned",
			"module", "notifications/mailer-service",
			"layer", "worker",
			"event_id", delivery.EventID,
			"event_type", delivery.EventType,
			"order_ref", delivery.OrderRef,
			"role", string(delivery.Role),
			"attempts", delivery.Attempts,
			"error", sendErr.Error(),
		)
		return nil
	}
	logger.Warn("order email failed, retry scheduled",
		"event", "mailer_delivery_failed",
		"module", "notifications/mailer-service",
		"layer", "worker",
		"event_id", delivery.EventID,
		"event_type", delivery.EventType,
		"order_ref", delivery.OrderRef,
		"role", string(delivery.Role),
		"attempts", delivery.Attempts,
		"next_attempt_at", nextAttemptAt.Format(time.RFC3339),
		"error", sendErr.Error(),
	)
	return nil
}

func (n OrderNotifier) lease() time.Duration {
	if n.SendLease <= 0 {
		return services.DefaultSendLease
	}
	return n.SendLease
}

func (n OrderNotifier) now() time.Time {
	if n.Clock == nil {
		return time.Now().UTC()
	}
	return n.Clock.Now().UTC()
}

func decodeOrderEvent(envelope ports.EventEnvelope) (ports.OrderEvent, error) {
	if strings.TrimSpace(envelope.EventID) == "" || len(envelope.Data) == 0 {
		return ports.OrderEvent{}, domainerrors.ErrInvalidEvent
	}
	var event ports.OrderEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return ports.OrderEvent{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidEvent, err)
	}
	return event, nil
}

func partiesOf(event ports.OrderEvent) services.Parties {
	return services.Parties{
		CustomerName:  event.CustomerName,
		CustomerEmail: event.CustomerEmail,
		ShopName:      event.ShopName,
		ShopEmail:     event.ShopEmail,
		RefusedBy:     event.RefusedBy,
	}
}
