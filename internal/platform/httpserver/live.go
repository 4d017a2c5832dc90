package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	eventsv1 "cakeshop/contracts/gen/events/v1"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	liveConsumerGroup = "dashboard-live"
	liveSendBuffer    = 32
	liveWriteTimeout  = 10 * time.Second
	livePingInterval  = 30 * time.Second
)

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, eventsv1.Envelope) error,
	) error
}

// LiveMessage is what a dashboard receives for each order event of its shop.
type LiveMessage struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type liveClient struct {
	shopID string
	send   chan []byte
}

// LiveHub fans order events out to the dashboards of the owning shop.
// A client that cannot keep up loses messages rather than blocking the bus.
// Each hub joins its own consumer group so every API replica sees every
// event for the dashboards connected to it.
type LiveHub struct {
	group    string
	mu       sync.RWMutex
	clients  map[*liveClient]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewLiveHub(logger *slog.Logger) *LiveHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHub{
		group:   liveConsumerGroup + "-" + uuid.NewString(),
		clients: make(map[*liveClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Start subscribes the hub to every order topic.
func (h *LiveHub) Start(ctx context.Context, subscriber EventSubscriber) error {
	if subscriber == nil {
		return nil
	}
	for _, topic := range eventsv1.OrderTopics {
		if err := subscriber.Subscribe(ctx, topic, h.group, h.Broadcast); err != nil {
			return err
		}
	}
	return nil
}

// Broadcast delivers an envelope to the clients of its shop. The shop id is
// the envelope partition key.
func (h *LiveHub) Broadcast(_ context.Context, event eventsv1.Envelope) error {
	payload, err := json.Marshal(LiveMessage{
		EventID:    event.EventID,
		EventType:  event.EventType,
		OccurredAt: event.OccurredAt,
		Data:       event.Data,
	})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.shopID != event.PartitionKey {
			continue
		}
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("dropping live message for slow client",
				"event", "live_send_drop",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"shop_id", client.shopID,
				"event_id", event.EventID,
			)
		}
	}
	return nil
}

func (h *LiveHub) register(shopID string) *liveClient {
	client := &liveClient{shopID: shopID, send: make(chan []byte, liveSendBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	return client
}

func (h *LiveHub) unregister(client *liveClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}

func (h *LiveHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and streams messages until the peer goes away.
func (h *LiveHub) Serve(w http.ResponseWriter, r *http.Request, shopID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := h.register(shopID)
	defer func() {
		h.unregister(client)
		_ = conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case payload := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.authenticated(s.withShop(func(w http.ResponseWriter, r *http.Request, shopID string) {
		s.live.Serve(w, r, shopID)
	}))(w, r)
}
