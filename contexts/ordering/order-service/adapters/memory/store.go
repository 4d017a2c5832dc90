package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/domain/services"
	"cakeshop/contexts/ordering/order-service/ports"
)

type Store struct {
	mu          sync.RWMutex
	orders      map[string]entities.Order
	refs        map[string]string
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	sequence    uint64
}

func NewStore(seed ...entities.Order) *Store {
	store := &Store{
		orders:      make(map[string]entities.Order, len(seed)),
		refs:        make(map[string]string, len(seed)),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxSent:  make(map[string]time.Time),
	}
	for _, order := range seed {
		store.orders[order.OrderID] = cloneOrder(order)
		store.refs[order.Ref] = order.OrderID
	}
	return store
}

func (s *Store) CreateOrderWithOutbox(_ context.Context, order entities.Order, dailyLimit int, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.OrderID]; ok {
		return domainerrors.ErrInvalidRequest
	}
	if _, ok := s.refs[order.Ref]; ok {
		return domainerrors.ErrDuplicateRef
	}
	if dailyLimit > 0 && s.activeOnDateLocked(order.ShopID, order.PickupDate) >= dailyLimit {
		return fmt.Errorf("%w: %s", domainerrors.ErrSlotUnavailable, services.ReasonFull)
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.orders[order.OrderID] = cloneOrder(order)
	s.refs[order.Ref] = order.OrderID
	return nil
}

func (s *Store) UpdateOrderWithOutbox(
	_ context.Context,
	order entities.Order,
	expected entities.OrderStatus,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.OrderID]
	if !ok {
		return domainerrors.ErrOrderNotFound
	}
	if current.Status != expected {
		return domainerrors.ErrConcurrentUpdate
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.orders[order.OrderID] = cloneOrder(order)
	return nil
}

func (s *Store) MarkReminderSentWithOutbox(_ context.Context, orderID string, sentAt time.Time, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domainerrors.ErrOrderNotFound
	}
	if order.ReminderSentAt != nil {
		return domainerrors.ErrConcurrentUpdate
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	sent := sentAt.UTC()
	order.ReminderSentAt = &sent
	s.orders[orderID] = order
	return nil
}

func (s *Store) GetOrder(_ context.Context, orderID string) (entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) GetOrderByRef(_ context.Context, ref string) (entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orderID, ok := s.refs[ref]
	if !ok {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return cloneOrder(s.orders[orderID]), nil
}

func (s *Store) ListOrders(_ context.Context, filter ports.OrderFilter) ([]entities.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[entities.OrderStatus]struct{}, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses[status] = struct{}{}
	}
	items := make([]entities.Order, 0)
	for _, order := range s.orders {
		if order.ShopID != filter.ShopID {
			continue
		}
		if len(statuses) > 0 {
			if _, ok := statuses[order.Status]; !ok {
				continue
			}
		}
		if filter.PickupFrom != nil && order.PickupDate.Before(*filter.PickupFrom) {
			continue
		}
		if filter.PickupTo != nil && order.PickupDate.After(*filter.PickupTo) {
			continue
		}
		items = append(items, cloneOrder(order))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].PickupDate.Equal(items[j].PickupDate) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].PickupDate.Before(items[j].PickupDate)
	})

	total := len(items)
	start := (filter.Page - 1) * filter.Limit
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []entities.Order{}, total, nil
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return items[start:end], total, nil
}

func (s *Store) CountActiveOrdersOnDates(_ context.Context, shopID string, from time.Time, to time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from = entities.DateOnly(from)
	to = entities.DateOnly(to)
	counts := make(map[string]int)
	for _, order := range s.orders {
		if order.ShopID != shopID || order.Status == entities.StatusRefused {
			continue
		}
		date := entities.DateOnly(order.PickupDate)
		if date.Before(from) || date.After(to) {
			continue
		}
		counts[date.Format(entities.DateLayout)]++
	}
	return counts, nil
}

func (s *Store) activeOnDateLocked(shopID string, date time.Time) int {
	date = entities.DateOnly(date)
	total := 0
	for _, order := range s.orders {
		if order.ShopID == shopID && order.Status != entities.StatusRefused && entities.DateOnly(order.PickupDate).Equal(date) {
			total++
		}
	}
	return total
}

func (s *Store) ListExpiredQuotes(_ context.Context, now time.Time, limit int) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Order, 0)
	for _, order := range s.orders {
		if order.QuoteExpired(now) {
			items = append(items, cloneOrder(order))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Quote.ExpiresAt.Before(items[j].Quote.ExpiresAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListReminderCandidates(_ context.Context, pickupDate time.Time, limit int) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := entities.DateOnly(pickupDate)
	items := make([]entities.Order, 0)
	for _, order := range s.orders {
		if order.Status != entities.StatusConfirmed && order.Status != entities.StatusReady {
			continue
		}
		if order.ReminderSentAt != nil || !entities.DateOnly(order.PickupDate).Equal(day) {
			continue
		}
		items = append(items, cloneOrder(order))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) StatusCounts(_ context.Context, shopID string) (map[entities.OrderStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[entities.OrderStatus]int)
	for _, order := range s.orders {
		if order.ShopID == shopID {
			counts[order.Status]++
		}
	}
	return counts, nil
}

func (s *Store) SumConfirmedRevenue(_ context.Context, shopID string, from time.Time, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, order := range s.orders {
		if order.ShopID != shopID || order.ConfirmedAt == nil || order.Status == entities.StatusRefused {
			continue
		}
		if order.ConfirmedAt.Before(from) || !order.ConfirmedAt.Before(to) {
			continue
		}
		total += order.TotalCents
	}
	return total, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.After(record.ExpiresAt) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		messages = append(messages, s.outbox[id])
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrInvalidRequest
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

// OutboxEvents returns every outbox envelope in write order.
func (s *Store) OutboxEvents() []ports.EventEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]ports.EventEnvelope, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(s.outbox[id].Payload, &envelope); err == nil {
			events = append(events, envelope)
		}
	}
	return events
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("order_%d", value), nil
}

func (s *Store) appendOutboxLocked(event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.outbox[event.EventID] = ports.OutboxMessage{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt,
	}
	s.outboxOrder = append(s.outboxOrder, event.EventID)
	return nil
}

func cloneOrder(order entities.Order) entities.Order {
	out := order
	out.Lines = append([]entities.OrderLine(nil), order.Lines...)
	out.InspirationURLs = append([]string(nil), order.InspirationURLs...)
	if order.Quote != nil {
		quote := *order.Quote
		out.Quote = &quote
	}
	return out
}
