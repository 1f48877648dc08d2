package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	b := NewBreaker(3, 5*time.Minute, time.Second, 30*time.Second)
	b.now = func() time.Time { return now }

	b.Record(true)
	b.Record(true)
	require.NoError(t, b.Allow(), "breaker must stay closed below the threshold")

	b.Record(true)
	assert.ErrorIs(t, b.Allow(), ErrDegraded)
}

func TestBreakerClosesAfterCooldown(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	b := NewBreaker(3, 5*time.Minute, time.Second, 30*time.Second)
	b.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		b.Record(true)
	}
	require.ErrorIs(t, b.Allow(), ErrDegraded)

	now = now.Add(4 * time.Minute)
	require.ErrorIs(t, b.Allow(), ErrDegraded, "breaker must hold through the cooldown")

	now = now.Add(time.Minute)
	assert.NoError(t, b.Allow())
	assert.Equal(t, time.Duration(0), b.Backoff(), "closing resets the failure count")
}

func TestBreakerResetOnSuccess(t *testing.T) {
	b := NewBreaker(3, 5*time.Minute, time.Second, 30*time.Second)

	b.Record(true)
	b.Record(true)
	b.Record(false)
	b.Record(true)
	b.Record(true)
	assert.NoError(t, b.Allow(), "a success in between must reset the consecutive count")
}

func TestBreakerBackoffProportionalAndCapped(t *testing.T) {
	b := NewBreaker(10, 5*time.Minute, time.Second, 3*time.Second)

	assert.Equal(t, time.Duration(0), b.Backoff())

	b.Record(true)
	assert.Equal(t, time.Second, b.Backoff())

	b.Record(true)
	assert.Equal(t, 2*time.Second, b.Backoff())

	b.Record(true)
	b.Record(true)
	assert.Equal(t, 3*time.Second, b.Backoff(), "backoff is capped at the maximum")
}
