package ports

import (
	"context"
	"time"

	"cakeshop/contexts/notifications/mailer-service/domain/entities"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

type Clock interface {
	Now() time.Time
}

type EventEnvelope = contractsv1.Envelope

type OrderEvent = contractsv1.OrderEventData

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// Message is a rendered email ready to be handed to a transport.
type Message struct {
	To       string
	ToName   string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
}

type Mailer interface {
	Send(ctx context.Context, message Message) error
}

type Renderer interface {
	Render(eventType string, role entities.Role, event OrderEvent) (Message, error)
}

// DeliveryLog keeps one row per (event, recipient key).
type DeliveryLog interface {
	// Reserve stores a new pending delivery and returns false when the pair
	// already exists.
	Reserve(ctx context.Context, delivery entities.Delivery) (bool, error)
	MarkSent(ctx context.Context, eventID string, recipient string, subject string, sentAt time.Time) error
	// MarkFailed records a failed attempt. nextAttemptAt is nil for
	// DeliveryAbandoned.
	MarkFailed(
		ctx context.Context,
		eventID string,
		recipient string,
		status entities.DeliveryStatus,
		lastError string,
		nextAttemptAt *time.Time,
	) error
	// ListDue returns pending or failed deliveries whose NextAttemptAt has
	// passed, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]entities.Delivery, error)
	// ClaimRetry takes a due delivery for one more attempt: it becomes
	// pending until leaseUntil with attempts+1. It returns false when the row
	// is no longer due or another sweep claimed it first.
	ClaimRetry(ctx context.Context, eventID string, recipient string, attempts int, now time.Time, leaseUntil time.Time) (bool, error)
}
