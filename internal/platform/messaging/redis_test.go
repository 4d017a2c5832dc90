package messaging

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	eventsv1 "cakeshop/contracts/gen/events/v1"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func TestDecodeStreamMessage(t *testing.T) {
	event, err := decodeStreamMessage(redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{payloadField: `{"event_id":"evt-1","event_type":"order.placed"}`},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.EventID != "evt-1" {
		t.Fatalf("expected evt-1, got %q", event.EventID)
	}

	if _, err := decodeStreamMessage(redis.XMessage{ID: "2-0", Values: map[string]interface{}{}}); err == nil {
		t.Fatal("expected error for entry without payload")
	}
	if _, err := decodeStreamMessage(redis.XMessage{ID: "3-0", Values: map[string]interface{}{payloadField: "{"}}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func newTestRedisBus(t *testing.T) *RedisBus {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	bus, err := NewRedisBus(client, "cakeshop:test:"+uuid.NewString(), nil)
	if err != nil {
		t.Fatalf("new redis bus: %v", err)
	}
	bus.block = 50 * time.Millisecond
	bus.claimIdle = 100 * time.Millisecond
	return bus
}

func TestRedisBusRedeliversUntilHandlerSucceeds(t *testing.T) {
	bus := newTestRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		bus.Wait()
	}()

	var calls atomic.Int32
	done := make(chan struct{})
	if err := bus.Subscribe(ctx, eventsv1.OrderPlaced, "mailer", func(_ context.Context, event eventsv1.Envelope) error {
		if calls.Add(1) == 1 {
			return errors.New("smtp: 421 try later")
		}
		if event.EventID == "evt-1" {
			close(done)
		}
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(context.Background(), eventsv1.OrderPlaced, eventsv1.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected the failed entry to be claimed again, got %d calls", calls.Load())
	}
}

func TestRedisBusFansOutAcrossGroups(t *testing.T) {
	bus := newTestRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		bus.Wait()
	}()

	received := make(chan string, 4)
	for _, group := range []string{"mailer", "live-a"} {
		group := group
		if err := bus.Subscribe(ctx, eventsv1.OrderReady, group, func(_ context.Context, event eventsv1.Envelope) error {
			received <- group + ":" + event.EventID
			return nil
		}); err != nil {
			t.Fatalf("subscribe %s: %v", group, err)
		}
	}
	if err := bus.Publish(context.Background(), eventsv1.OrderReady, eventsv1.Envelope{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case item := <-received:
			seen[item] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out, got %v", seen)
		}
	}
	if !seen["mailer:evt-2"] || !seen["live-a:evt-2"] {
		t.Fatalf("expected both groups to receive evt-2, got %v", seen)
	}
}
