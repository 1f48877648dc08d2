// Package cache provides the TTL caches used to memoize external reads.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a key→value store with per-entry expiry.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Noop[V any] struct{}

func (Noop[V]) Get(context.Context, string) (V, bool, error) {
	var zero V
	return zero, false, nil
}

func (Noop[V]) Set(context.Context, string, V, time.Duration) error { return nil }

func (Noop[V]) Delete(context.Context, string) error { return nil }

type entry[V any] struct {
	value      V
	insertedAt time.Time
	ttl        time.Duration
}

// TTL is the in-memory cache. Expired entries are lazily evicted on read.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	now     func() time.Time
}

func NewTTL[V any]() *TTL[V] {
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

func (c *TTL[V]) Get(_ context.Context, key string) (V, bool, error) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false, nil
	}
	if e.ttl > 0 && c.now().Sub(e.insertedAt) > e.ttl {
		delete(c.entries, key)
		return zero, false, nil
	}
	return e.value, true, nil
}

func (c *TTL[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, insertedAt: c.now(), ttl: ttl}
	return nil
}

func (c *TTL[V]) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
