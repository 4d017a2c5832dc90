package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
)

// IdempotencyRunner replays the stored response of a key when the request
// hash matches and rejects the key when it does not.
type IdempotencyRunner struct {
	Store ports.IdempotencyStore
	TTL   time.Duration
}

func (r IdempotencyRunner) Run(
	ctx context.Context,
	key string,
	requestHash string,
	now time.Time,
	decode func([]byte) error,
	exec func() ([]byte, error),
) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, domainerrors.ErrIdempotencyKeyRequired
	}
	record, found, err := r.Store.Get(ctx, key, now)
	if err != nil {
		return false, err
	}
	if found {
		if record.RequestHash != requestHash {
			return false, domainerrors.ErrIdempotencyConflict
		}
		return true, decode(record.Payload)
	}

	payload, err := exec()
	if err != nil {
		return false, err
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if err := r.Store.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(ttl),
	}); err != nil {
		return false, err
	}
	return false, decode(payload)
}

func HashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func Now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
