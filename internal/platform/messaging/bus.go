package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	eventsv1 "cakeshop/contracts/gen/events/v1"
)

const (
	defaultHandlerAttempts = 5
	defaultRetryBase       = 50 * time.Millisecond
	maxRetryDelay          = 2 * time.Second
	subscriberBuffer       = 128
)

// Bus is the in-process event bus used when no broker is configured.
// Publish waits for room in every subscriber buffer or for ctx to end; it
// never drops. A failing handler is retried with doubling backoff up to
// maxAttempts before the event is given up and logged.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscriber
	logger      *slog.Logger
	wg          sync.WaitGroup
	maxAttempts int
	retryBase   time.Duration
}

type subscriber struct {
	events chan eventsv1.Envelope
	done   chan struct{}
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]*subscriber),
		logger:      logger,
		maxAttempts: defaultHandlerAttempts,
		retryBase:   defaultRetryBase,
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event eventsv1.Envelope) error {
	b.mu.RLock()
	subs := append([]*subscriber(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.done:
		case sub.events <- event:
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscriber_count", len(subs),
	)
	return nil
}

func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, eventsv1.Envelope) error,
) error {
	sub := &subscriber{
		events: make(chan eventsv1.Envelope, subscriberBuffer),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, sub)
				close(sub.done)
				return
			case event := <-sub.events:
				b.consume(ctx, topic, consumerGroup, event, handler)
			}
		}
	}()
	return nil
}

func (b *Bus) consume(
	ctx context.Context,
	topic string,
	consumerGroup string,
	event eventsv1.Envelope,
	handler func(context.Context, eventsv1.Envelope) error,
) {
	delay := b.retryBase
	for attempt := 1; ; attempt++ {
		err := handler(ctx, event)
		if err == nil {
			return
		}
		if attempt >= b.maxAttempts || ctx.Err() != nil {
			b.logger.Error("consumer handler failed",
				"event", "bus_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"attempts", attempt,
				"error", err.Error(),
			)
			return
		}
		b.logger.Warn("consumer handler failed, retrying",
			"event", "bus_consume_retry",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"attempt", attempt,
			"error", err.Error(),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

// Wait blocks until every subscriber goroutine has observed its context
// cancellation.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) removeSubscriber(topic string, target *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]*subscriber, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscribers[topic] = filtered
}
