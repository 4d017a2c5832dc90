package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	eventsv1 "cakeshop/contracts/gen/events/v1"

	"github.com/gorilla/websocket"
)

func TestLiveStreamDeliversOnlyOwnShopEvents(t *testing.T) {
	server := newTestServer(t, Options{})
	shopID := createShop(t, server, "owner-live", "live-shop")
	otherShopID := createShop(t, server, "owner-other", "other-shop")

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/dashboard/v1/live?access_token=" + tokenFor(t, "owner-live")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial live stream: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for server.live.clientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected one registered client, got %d", server.live.clientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx := context.Background()
	if err := server.live.Broadcast(ctx, eventsv1.Envelope{
		EventID:      "evt-other",
		EventType:    eventsv1.OrderPlaced,
		PartitionKey: otherShopID,
		Data:         json.RawMessage(`{"ref":"CMD-OTHER1"}`),
	}); err != nil {
		t.Fatalf("broadcast other shop: %v", err)
	}
	if err := server.live.Broadcast(ctx, eventsv1.Envelope{
		EventID:      "evt-own",
		EventType:    eventsv1.OrderPlaced,
		PartitionKey: shopID,
		Data:         json.RawMessage(`{"ref":"CMD-OWN001"}`),
	}); err != nil {
		t.Fatalf("broadcast own shop: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg LiveMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read live message: %v", err)
	}
	if msg.EventID != "evt-own" {
		t.Fatalf("expected evt-own, got %s", msg.EventID)
	}
	if msg.EventType != eventsv1.OrderPlaced {
		t.Fatalf("expected %s, got %s", eventsv1.OrderPlaced, msg.EventType)
	}
}

func TestLiveStreamRequiresToken(t *testing.T) {
	server := newTestServer(t, Options{})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/dashboard/v1/live"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func TestBroadcastDropsWhenClientIsSlow(t *testing.T) {
	hub := NewLiveHub(nil)
	client := hub.register("shop-1")
	defer hub.unregister(client)

	for i := 0; i < liveSendBuffer+5; i++ {
		if err := hub.Broadcast(context.Background(), eventsv1.Envelope{
			EventID:      "evt",
			EventType:    eventsv1.OrderPlaced,
			PartitionKey: "shop-1",
		}); err != nil {
			t.Fatalf("broadcast %d: %v", i, err)
		}
	}
	if len(client.send) != liveSendBuffer {
		t.Fatalf("expected buffer of %d, got %d", liveSendBuffer, len(client.send))
	}
}

type recordingSubscriber struct {
	groups map[string]bool
}

func (r *recordingSubscriber) Subscribe(
	_ context.Context,
	_ string,
	consumerGroup string,
	_ func(context.Context, eventsv1.Envelope) error,
) error {
	r.groups[consumerGroup] = true
	return nil
}

func TestEachHubJoinsItsOwnConsumerGroup(t *testing.T) {
	subscriber := &recordingSubscriber{groups: map[string]bool{}}
	for i := 0; i < 2; i++ {
		if err := NewLiveHub(nil).Start(context.Background(), subscriber); err != nil {
			t.Fatalf("start hub %d: %v", i, err)
		}
	}
	if len(subscriber.groups) != 2 {
		t.Fatalf("expected two distinct consumer groups, got %v", subscriber.groups)
	}
	for group := range subscriber.groups {
		if !strings.HasPrefix(group, liveConsumerGroup+"-") {
			t.Fatalf("expected group prefixed with %q, got %q", liveConsumerGroup, group)
		}
	}
}
