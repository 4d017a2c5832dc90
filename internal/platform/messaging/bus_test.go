package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	eventsv1 "cakeshop/contracts/gen/events/v1"

	"go.uber.org/goleak"
)

func TestBusDeliversToEverySubscriberOfTopic(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan string, 4)
	for _, group := range []string{"mailer", "live"} {
		group := group
		if err := bus.Subscribe(ctx, eventsv1.OrderPlaced, group, func(_ context.Context, event eventsv1.Envelope) error {
			received <- group + ":" + event.EventID
			return nil
		}); err != nil {
			t.Fatalf("subscribe %s: %v", group, err)
		}
	}

	if err := bus.Publish(context.Background(), eventsv1.OrderPlaced, eventsv1.Envelope{EventID: "evt-1", EventType: eventsv1.OrderPlaced}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(context.Background(), eventsv1.OrderReady, eventsv1.Envelope{EventID: "evt-2", EventType: eventsv1.OrderReady}); err != nil {
		t.Fatalf("publish unrelated topic: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case item := <-received:
			seen[item] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery, got %v", seen)
		}
	}
	if !seen["mailer:evt-1"] || !seen["live:evt-1"] {
		t.Fatalf("expected both groups to receive evt-1, got %v", seen)
	}

	cancel()
	bus.Wait()
}

func TestBusPublishHonoursCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil)
	subCtx, cancelSub := context.WithCancel(context.Background())
	block := make(chan struct{})
	if err := bus.Subscribe(subCtx, eventsv1.OrderReady, "slow", func(context.Context, eventsv1.Envelope) error {
		<-block
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled publisher either returns ctx.Err or delivers into the buffer;
	// it must never block.
	done := make(chan struct{})
	go func() {
		_ = bus.Publish(ctx, eventsv1.OrderReady, eventsv1.Envelope{EventID: "evt-3"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on cancelled context")
	}

	close(block)
	cancelSub()
	bus.Wait()
}

func TestBusRetriesFailedHandler(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil)
	bus.retryBase = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan struct{})
	if err := bus.Subscribe(ctx, eventsv1.OrderPlaced, "mailer", func(context.Context, eventsv1.Envelope) error {
		if calls.Add(1) < 3 {
			return errors.New("smtp: 421 try later")
		}
		close(done)
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(context.Background(), eventsv1.OrderPlaced, eventsv1.Envelope{EventID: "evt-9"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected handler to succeed on third attempt, got %d calls", calls.Load())
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 handler calls, got %d", got)
	}

	cancel()
	bus.Wait()
}

func TestBusGivesUpAfterMaxAttempts(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil)
	bus.retryBase = time.Millisecond
	bus.maxAttempts = 2
	ctx, cancel := context.WithCancel(context.Background())

	calls := make(chan string, 8)
	if err := bus.Subscribe(ctx, eventsv1.OrderPlaced, "mailer", func(_ context.Context, event eventsv1.Envelope) error {
		calls <- event.EventID
		if event.EventID == "evt-bad" {
			return errors.New("boom")
		}
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, id := range []string{"evt-bad", "evt-good"} {
		if err := bus.Publish(context.Background(), eventsv1.OrderPlaced, eventsv1.Envelope{EventID: id}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}

	var got []string
	for len(got) < 3 {
		select {
		case id := <-calls:
			got = append(got, id)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[0] != "evt-bad" || got[1] != "evt-bad" || got[2] != "evt-good" {
		t.Fatalf("expected two attempts for evt-bad then evt-good, got %v", got)
	}

	cancel()
	bus.Wait()
}

func TestBusPublishWaitsForFullSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil)
	subCtx, cancelSub := context.WithCancel(context.Background())
	release := make(chan struct{})
	var handled atomic.Int32
	if err := bus.Subscribe(subCtx, eventsv1.OrderReady, "slow", func(context.Context, eventsv1.Envelope) error {
		<-release
		handled.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// One event is held by the handler and the buffer holds the rest.
	total := subscriberBuffer + 2
	published := make(chan error, 1)
	go func() {
		for i := 0; i < total; i++ {
			if err := bus.Publish(context.Background(), eventsv1.OrderReady, eventsv1.Envelope{EventID: "evt"}); err != nil {
				published <- err
				return
			}
		}
		published <- nil
	}()

	select {
	case err := <-published:
		t.Fatalf("expected publish to wait for a full subscriber, returned %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-published:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publish never resumed")
	}
	deadline := time.Now().Add(2 * time.Second)
	for handled.Load() != int32(total) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := handled.Load(); got != int32(total) {
		t.Fatalf("expected %d events handled, got %d", total, got)
	}

	cancelSub()
	bus.Wait()
}
