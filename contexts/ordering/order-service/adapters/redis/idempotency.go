package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"

	"github.com/go-redis/redis/v8"
)

// IdempotencyStore keeps replayable responses in Redis with the record
// expiry as key TTL.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewIdempotencyStore(client *redis.Client, prefix string) *IdempotencyStore {
	if prefix == "" {
		prefix = "cakeshop:orders:idempotency"
	}
	return &IdempotencyStore{client: client, prefix: prefix}
}

type idempotencyValue struct {
	RequestHash string    `json:"request_hash"`
	Payload     []byte    `json:"payload"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	var value idempotencyValue
	if err := json.Unmarshal(raw, &value); err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if !value.ExpiresAt.IsZero() && now.After(value.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         key,
		RequestHash: value.RequestHash,
		Payload:     value.Payload,
		ExpiresAt:   value.ExpiresAt.UTC(),
	}, true, nil
}

func (s *IdempotencyStore) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	raw, err := json.Marshal(idempotencyValue{
		RequestHash: record.RequestHash,
		Payload:     record.Payload,
		ExpiresAt:   record.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	stored, err := s.client.SetNX(ctx, s.key(record.Key), raw, ttl).Result()
	if err != nil {
		return err
	}
	if stored {
		return nil
	}
	existing, found, err := s.Get(ctx, record.Key, time.Now().UTC())
	if err != nil {
		return err
	}
	if found && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (s *IdempotencyStore) key(key string) string {
	return s.prefix + ":" + key
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)
