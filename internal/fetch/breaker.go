package fetch

import (
	"errors"
	"sync"
	"time"
)

// ErrDegraded is returned while the breaker is open; no call reaches the
// external store in that window.
var ErrDegraded = errors.New("external store degraded: circuit breaker open")

// Breaker counts consecutive quota-exceeded responses and opens for a
// cooldown once the threshold is hit. A success or a non-quota error
// resets the counter and closes the breaker immediately.
type Breaker struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	backoffBase time.Duration
	backoffMax  time.Duration
	consecutive int
	openUntil   time.Time
	now         func() time.Time
}

func NewBreaker(threshold int, cooldown, backoffBase, backoffMax time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		threshold:   threshold,
		cooldown:    cooldown,
		backoffBase: backoffBase,
		backoffMax:  backoffMax,
		now:         time.Now,
	}
}

// Allow reports whether a call may proceed. Once the cooldown has elapsed
// the breaker closes and calls flow again.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openUntil.IsZero() {
		return nil
	}
	if b.now().Before(b.openUntil) {
		return ErrDegraded
	}
	b.openUntil = time.Time{}
	b.consecutive = 0
	return nil
}

// Record feeds a call outcome into the breaker.
func (b *Breaker) Record(quotaExceeded bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !quotaExceeded {
		b.consecutive = 0
		b.openUntil = time.Time{}
		return
	}
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
	}
}

// Backoff returns the delay to wait before the next call, proportional to
// the consecutive quota-failure count and capped at the maximum.
func (b *Breaker) Backoff() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consecutive == 0 {
		return 0
	}
	delay := time.Duration(b.consecutive) * b.backoffBase
	if delay > b.backoffMax {
		delay = b.backoffMax
	}
	return delay
}
