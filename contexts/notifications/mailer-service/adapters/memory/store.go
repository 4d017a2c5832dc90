package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cakeshop/contexts/notifications/mailer-service/domain/entities"
	domainerrors "cakeshop/contexts/notifications/mailer-service/domain/errors"
	"cakeshop/contexts/notifications/mailer-service/ports"
)

// Store keeps deliveries and captured mail in memory. It doubles as the
// mailer when no SMTP server is configured.
type Store struct {
	mu         sync.Mutex
	deliveries map[string]entities.Delivery
	sent       []ports.Message
	failNext   error
}

func NewStore() *Store {
	return &Store{deliveries: make(map[string]entities.Delivery)}
}

func deliveryKey(eventID string, recipient string) string {
	return eventID + "|" + recipient
}

func (s *Store) Reserve(_ context.Context, delivery entities.Delivery) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := deliveryKey(delivery.EventID, delivery.Recipient)
	if _, exists := s.deliveries[key]; exists {
		return false, nil
	}
	delivery.Status = entities.DeliveryPending
	delivery.Envelope = append([]byte(nil), delivery.Envelope...)
	s.deliveries[key] = delivery
	return true, nil
}

func (s *Store) MarkSent(_ context.Context, eventID string, recipient string, subject string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := deliveryKey(eventID, recipient)
	delivery, ok := s.deliveries[key]
	if !ok {
		return domainerrors.ErrDeliveryNotFound
	}
	sentAt = sentAt.UTC()
	delivery.Status = entities.DeliverySent
	delivery.Subject = subject
	delivery.SentAt = &sentAt
	delivery.NextAttemptAt = nil
	delivery.LastError = ""
	s.deliveries[key] = delivery
	return nil
}

func (s *Store) MarkFailed(
	_ context.Context,
	eventID string,
	recipient string,
	status entities.DeliveryStatus,
	lastError string,
	nextAttemptAt *time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := deliveryKey(eventID, recipient)
	delivery, ok := s.deliveries[key]
	if !ok {
		return domainerrors.ErrDeliveryNotFound
	}
	delivery.Status = status
	delivery.LastError = lastError
	delivery.NextAttemptAt = nil
	if nextAttemptAt != nil {
		next := nextAttemptAt.UTC()
		delivery.NextAttemptAt = &next
	}
	s.deliveries[key] = delivery
	return nil
}

func (s *Store) ListDue(_ context.Context, now time.Time, limit int) ([]entities.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Delivery, 0)
	for _, delivery := range s.deliveries {
		if dueLocked(delivery, now) {
			delivery.Envelope = append([]byte(nil), delivery.Envelope...)
			out = append(out, delivery)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextAttemptAt.Before(*out[j].NextAttemptAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ClaimRetry(
	_ context.Context,
	eventID string,
	recipient string,
	attempts int,
	now time.Time,
	leaseUntil time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := deliveryKey(eventID, recipient)
	delivery, ok := s.deliveries[key]
	if !ok || delivery.Attempts != attempts || !dueLocked(delivery, now) {
		return false, nil
	}
	lease := leaseUntil.UTC()
	delivery.Status = entities.DeliveryPending
	delivery.Attempts++
	delivery.NextAttemptAt = &lease
	s.deliveries[key] = delivery
	return true, nil
}

func dueLocked(delivery entities.Delivery, now time.Time) bool {
	if delivery.Status != entities.DeliveryPending && delivery.Status != entities.DeliveryFailed {
		return false
	}
	return delivery.NextAttemptAt != nil && !delivery.NextAttemptAt.After(now)
}

func (s *Store) Send(_ context.Context, message ports.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.sent = append(s.sent, message)
	return nil
}

// FailNextSend makes the next Send return err.
func (s *Store) FailNextSend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) Sent() []ports.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Message(nil), s.sent...)
}

func (s *Store) Deliveries() []entities.Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Delivery, 0, len(s.deliveries))
	for _, delivery := range s.deliveries {
		out = append(out, delivery)
	}
	return out
}

var _ ports.DeliveryLog = (*Store)(nil)
var _ ports.Mailer = (*Store)(nil)
