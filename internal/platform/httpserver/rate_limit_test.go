package httpserver

import (
	"testing"
	"time"
)

func TestIPRateLimiterBucketsPerClient(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(1, 2, time.Minute)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if limiter.Allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if !limiter.Allow("b") {
		t.Fatalf("expected another client to be allowed")
	}

	now = now.Add(time.Second)
	if !limiter.Allow("a") {
		t.Fatalf("expected a token to refill after one second")
	}
}

func TestIPRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(1, 1, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	limiter.Allow("b")
	if limiter.size() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", limiter.size())
	}

	now = now.Add(2 * time.Minute)
	limiter.Allow("c")
	if limiter.size() != 1 {
		t.Fatalf("expected idle clients to be swept, got %d", limiter.size())
	}
}
