package services

import (
	"testing"
	"time"
)

func TestRetryPolicyDoublesUpToCap(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Minute, MaxDelay: 5 * time.Minute}
	failedAt := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		attempts int
		delay    time.Duration
	}{
		{attempts: 1, delay: time.Minute},
		{attempts: 2, delay: 2 * time.Minute},
		{attempts: 3, delay: 4 * time.Minute},
		{attempts: 4, delay: 5 * time.Minute},
	}
	for _, tc := range cases {
		next, ok := policy.Next(tc.attempts, failedAt)
		if !ok {
			t.Fatalf("attempt %d: expected a retry", tc.attempts)
		}
		if got := next.Sub(failedAt); got != tc.delay {
			t.Fatalf("attempt %d: expected delay %s, got %s", tc.attempts, tc.delay, got)
		}
	}
	if _, ok := policy.Next(5, failedAt); ok {
		t.Fatalf("expected attempts to be exhausted")
	}
}

func TestRetryPolicyDefaults(t *testing.T) {
	next, ok := RetryPolicy{}.Next(1, time.Time{})
	if !ok || next.Sub(time.Time{}) != DefaultBaseDelay {
		t.Fatalf("expected default base delay, got %s ok=%t", next.Sub(time.Time{}), ok)
	}
	if _, ok := (RetryPolicy{}).Next(DefaultMaxAttempts, time.Time{}); ok {
		t.Fatalf("expected default max attempts to stop retries")
	}
}
