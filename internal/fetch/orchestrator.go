// Package fetch coordinates calls to the external row store: TTL
// memoization, single-flight deduplication, a minimum-interval debounce,
// quota backoff and a circuit breaker.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"butcherdesk/backend/internal/cache"
	"butcherdesk/backend/internal/codec"
	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/rowstore"
)

type Options struct {
	RowTTL      time.Duration
	CatalogTTL  time.Duration
	RateTTL     time.Duration
	MinInterval time.Duration
	CallTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		RowTTL:      30 * time.Second,
		CatalogTTL:  10 * time.Minute,
		RateTTL:     10 * time.Minute,
		MinInterval: 4 * time.Second,
		CallTimeout: 20 * time.Second,
	}
}

type Orchestrator struct {
	store   rowstore.Store
	rows    cache.Cache[[]codec.Row]
	catalog cache.Cache[[]domain.PriceEntry]
	rates   cache.Cache[[]domain.RateConfig]
	breaker *Breaker
	group   singleflight.Group
	opts    Options
	log     zerolog.Logger

	mu     sync.Mutex
	recent map[string]debounceEntry
	now    func() time.Time
}

// debounceEntry holds the last fetched value for a key so repeat fetches
// inside the min-interval window are suppressed even when the cache
// itself missed (TTL expiry, cache backend error).
type debounceEntry struct {
	value any
	at    time.Time
}

func New(store rowstore.Store, rows cache.Cache[[]codec.Row], catalog cache.Cache[[]domain.PriceEntry], rates cache.Cache[[]domain.RateConfig], breaker *Breaker, opts Options, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		rows:    rows,
		catalog: catalog,
		rates:   rates,
		breaker: breaker,
		opts:    opts,
		log:     log,
		recent:  make(map[string]debounceEntry),
		now:     time.Now,
	}
}

// OrderRows returns the order rows for a butcher, served from cache when
// fresh. Concurrent callers for the same butcher share one in-flight
// fetch; a caller that abandons its context does not cancel the fetch for
// the other waiters.
func (o *Orchestrator) OrderRows(ctx context.Context, butcherID string) ([]codec.Row, error) {
	return fetchCached(ctx, o, "orders/"+butcherID, o.rows, o.opts.RowTTL, func(callCtx context.Context) ([]codec.Row, error) {
		return o.store.FetchOrderRows(callCtx, butcherID)
	})
}

// Entries implements pricing.Catalog over the external catalog partition.
func (o *Orchestrator) Entries(ctx context.Context, butcher domain.Butcher) ([]domain.PriceEntry, error) {
	return fetchCached(ctx, o, "catalog/"+butcher.ID, o.catalog, o.opts.CatalogTTL, func(callCtx context.Context) ([]domain.PriceEntry, error) {
		return o.store.FetchCatalogRows(callCtx, butcher)
	})
}

// Rates implements pricing.RateSource.
func (o *Orchestrator) Rates(ctx context.Context, butcherID string) ([]domain.RateConfig, error) {
	return fetchCached(ctx, o, "rates/"+butcherID, o.rates, o.opts.RateTTL, func(callCtx context.Context) ([]domain.RateConfig, error) {
		return o.store.FetchRateRows(callCtx, butcherID)
	})
}

// InvalidateOrders drops the cached order rows and the debounce window
// for a butcher so the next read reflects a write that just landed.
func (o *Orchestrator) InvalidateOrders(ctx context.Context, butcherID string) {
	key := "orders/" + butcherID
	o.dropRecent(key)
	if err := o.rows.Delete(ctx, key); err != nil {
		o.log.Warn().Err(err).Str("butcher_id", butcherID).Msg("drop cached order rows")
	}
}

// fetchCached is the shared read path: cache, debounce, single-flight,
// breaker, backoff, then the store call under a bounded timeout.
func fetchCached[V any](ctx context.Context, o *Orchestrator, key string, c cache.Cache[V], ttl time.Duration, call func(context.Context) (V, error)) (V, error) {
	var zero V
	if cached, ok, err := c.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		o.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling through to store")
	}

	// A key fetched moments ago re-serves the last result instead of
	// hitting the store again. Invalidation drops the window, so a read
	// right after a write still refetches.
	if v, ok := o.recentValue(key); ok {
		return v.(V), nil
	}

	result, err, _ := o.group.Do(key, func() (any, error) {
		if err := o.breaker.Allow(); err != nil {
			return nil, err
		}
		if delay := o.breaker.Backoff(); delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		// The call runs on its own bounded context so an abandoned caller
		// does not cancel it for the remaining single-flight waiters.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CallTimeout)
		defer cancel()

		value, err := call(callCtx)
		o.breaker.Record(rowstore.IsQuota(err))
		if err != nil {
			o.log.Warn().Err(err).Str("key", key).Msg("store fetch failed")
			return nil, err
		}

		if err := c.Set(callCtx, key, value, ttl); err != nil {
			o.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
		o.markFetched(key, value)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(V), nil
}

func (o *Orchestrator) recentValue(key string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.recent[key]
	if !ok || o.now().Sub(e.at) >= o.opts.MinInterval {
		return nil, false
	}
	return e.value, true
}

func (o *Orchestrator) markFetched(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recent[key] = debounceEntry{value: value, at: o.now()}
}

func (o *Orchestrator) dropRecent(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.recent, key)
}
