package services

import "time"

const (
	DefaultMaxAttempts = 6
	DefaultBaseDelay   = time.Minute
	DefaultMaxDelay    = time.Hour
	// DefaultSendLease bounds how long a pending delivery may stay in flight
	// before the sweep treats its sender as gone.
	DefaultSendLease = 10 * time.Minute
)

// RetryPolicy spaces failed sends with a doubling delay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = DefaultMaxDelay
		if p.MaxDelay < p.BaseDelay {
			p.MaxDelay = p.BaseDelay
		}
	}
	return p
}

// Next returns when to try again after the given number of failed
// attempts, or false once the attempts are used up.
func (p RetryPolicy) Next(attempts int, failedAt time.Time) (time.Time, bool) {
	p = p.withDefaults()
	if attempts >= p.MaxAttempts {
		return time.Time{}, false
	}
	delay := p.BaseDelay
	for i := 1; i < attempts && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return failedAt.Add(delay), true
}
