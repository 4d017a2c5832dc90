package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	eventsv1 "cakeshop/contracts/gen/events/v1"

	"github.com/go-redis/redis/v8"
)

const (
	payloadField          = "payload"
	defaultStreamMaxLen   = 100_000
	defaultReadBlock      = 2 * time.Second
	defaultClaimIdle      = 30 * time.Second
	defaultMaxDeliveries  = 10
	streamReadBatch       = 16
	streamErrorRetryDelay = time.Second
)

// RedisBus carries events across processes on Redis Streams. Every
// consumer group sees every event once; an entry is acknowledged only
// after the handler returns nil, and entries left pending longer than
// claimIdle are claimed again by any consumer of the group. Entries that
// fail maxDeliveries times or cannot be decoded are acknowledged and
// logged so they stop blocking the group.
type RedisBus struct {
	client        *redis.Client
	prefix        string
	logger        *slog.Logger
	consumer      string
	maxLen        int64
	block         time.Duration
	claimIdle     time.Duration
	maxDeliveries int64
	wg            sync.WaitGroup
}

func NewRedisBus(client *redis.Client, streamPrefix string, logger *slog.Logger) (*RedisBus, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if streamPrefix == "" {
		streamPrefix = "cakeshop"
	}
	return &RedisBus{
		client:        client,
		prefix:        streamPrefix,
		logger:        logger,
		consumer:      consumerName(),
		maxLen:        defaultStreamMaxLen,
		block:         defaultReadBlock,
		claimIdle:     defaultClaimIdle,
		maxDeliveries: defaultMaxDeliveries,
	}, nil
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "cakeshop"
	}
	return host + "-" + strconv.Itoa(os.Getpid())
}

func (b *RedisBus) stream(topic string) string {
	return b.prefix + ":events:" + topic
}

func (b *RedisBus) Publish(ctx context.Context, topic string, event eventsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream(topic),
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]interface{}{payloadField: payload},
	}).Result()
	if err != nil {
		return fmt.Errorf("redis xadd %s: %w", topic, err)
	}
	b.logger.Debug("event published",
		"event", "redis_bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"stream_id", id,
	)
	return nil
}

// Subscribe joins consumerGroup on the topic stream. A new group starts at
// the stream tail.
func (b *RedisBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, eventsv1.Envelope) error,
) error {
	stream := b.stream(topic)
	if err := b.client.XGroupCreateMkStream(ctx, stream, consumerGroup, "$").Err(); err != nil &&
		!strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("redis xgroup create %s/%s: %w", stream, consumerGroup, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ctx.Err() == nil {
			b.reclaim(ctx, stream, consumerGroup, handler)

			streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: b.consumer,
				Streams:  []string{stream, ">"},
				Count:    streamReadBatch,
				Block:    b.block,
			}).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				b.logger.Error("redis bus read failed",
					"event", "redis_bus_read_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"stream", stream,
					"consumer_group", consumerGroup,
					"error", err.Error(),
				)
				sleepCtx(ctx, streamErrorRetryDelay)
				continue
			}
			for _, item := range streams {
				for _, msg := range item.Messages {
					b.handle(ctx, stream, consumerGroup, msg, handler)
				}
			}
		}
	}()
	return nil
}

// Wait blocks until every subscriber loop has returned.
func (b *RedisBus) Wait() {
	b.wg.Wait()
}

func (b *RedisBus) reclaim(
	ctx context.Context,
	stream string,
	group string,
	handler func(context.Context, eventsv1.Envelope) error,
) {
	messages, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		MinIdle:  b.claimIdle,
		Start:    "0-0",
		Count:    streamReadBatch,
		Consumer: b.consumer,
	}).Result()
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, redis.Nil) {
			b.logger.Warn("redis bus reclaim failed",
				"event", "redis_bus_reclaim_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"stream", stream,
				"consumer_group", group,
				"error", err.Error(),
			)
		}
		return
	}
	for _, msg := range messages {
		if b.exhausted(ctx, stream, group, msg.ID) {
			b.logger.Error("redis bus giving up on entry",
				"event", "redis_bus_dead_letter",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"stream", stream,
				"consumer_group", group,
				"stream_id", msg.ID,
			)
			b.ack(ctx, stream, group, msg.ID)
			continue
		}
		b.handle(ctx, stream, group, msg, handler)
	}
}

func (b *RedisBus) exhausted(ctx context.Context, stream, group, id string) bool {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return false
	}
	return pending[0].RetryCount > b.maxDeliveries
}

func (b *RedisBus) handle(
	ctx context.Context,
	stream string,
	group string,
	msg redis.XMessage,
	handler func(context.Context, eventsv1.Envelope) error,
) {
	event, err := decodeStreamMessage(msg)
	if err != nil {
		b.logger.Error("redis bus payload decode failed",
			"event", "redis_bus_decode_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"stream", stream,
			"stream_id", msg.ID,
			"error", err.Error(),
		)
		b.ack(ctx, stream, group, msg.ID)
		return
	}
	if err := handler(ctx, event); err != nil {
		b.logger.Error("consumer handler failed",
			"event", "redis_bus_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"stream", stream,
			"consumer_group", group,
			"event_id", event.EventID,
			"stream_id", msg.ID,
			"error", err.Error(),
		)
		return
	}
	b.ack(ctx, stream, group, msg.ID)
}

func (b *RedisBus) ack(ctx context.Context, stream, group, id string) {
	if err := b.client.XAck(ctx, stream, group, id).Err(); err != nil && ctx.Err() == nil {
		b.logger.Warn("redis bus ack failed",
			"event", "redis_bus_ack_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"stream", stream,
			"consumer_group", group,
			"stream_id", id,
			"error", err.Error(),
		)
	}
}

func decodeStreamMessage(msg redis.XMessage) (eventsv1.Envelope, error) {
	var event eventsv1.Envelope
	raw, ok := msg.Values[payloadField]
	if !ok {
		return event, fmt.Errorf("stream entry %s has no %s field", msg.ID, payloadField)
	}
	var payload []byte
	switch value := raw.(type) {
	case string:
		payload = []byte(value)
	case []byte:
		payload = value
	default:
		return event, fmt.Errorf("stream entry %s: unexpected payload type %T", msg.ID, raw)
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("decode envelope: %w", err)
	}
	return event, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
