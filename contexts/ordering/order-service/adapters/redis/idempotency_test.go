package redisadapter

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *IdempotencyStore {
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
	return NewIdempotencyStore(client, "cakeshop:test:"+uuid.NewString())
}

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	record := ports.IdempotencyRecord{
		Key:         "checkout-1",
		RequestHash: "hash-a",
		Payload:     []byte(`{"ref":"CMD-ABCDEF"}`),
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, found, err := store.Get(ctx, record.Key, now)
	if err != nil || !found {
		t.Fatalf("expected record, got found=%t err=%v", found, err)
	}
	if got.RequestHash != "hash-a" || string(got.Payload) != string(record.Payload) {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("expected same-hash put to succeed, got %v", err)
	}
	record.RequestHash = "hash-b"
	if err := store.Put(ctx, record); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestIdempotencyStoreMissingKey(t *testing.T) {
	store := newTestStore(t)
	_, found, err := store.Get(context.Background(), "missing", time.Now())
	if err != nil || found {
		t.Fatalf("expected miss, got found=%t err=%v", found, err)
	}
}
