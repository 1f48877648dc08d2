// Package rowstore defines the contract against the external tabular
// store that holds order, catalog and rate rows. The store is slow,
// quota-limited and eventually consistent; callers are expected to go
// through the fetch orchestrator rather than hitting it directly.
package rowstore

import (
	"context"
	"errors"

	"butcherdesk/backend/internal/codec"
	"butcherdesk/backend/internal/domain"
)

var (
	// ErrNotFound means the addressed row is absent. Updates handle this
	// by policy (skip or lazy-create), never by blind re-append.
	ErrNotFound = errors.New("row not found")
	// ErrQuotaExceeded is the rate-limit response that drives the circuit
	// breaker and backoff in the fetch orchestrator.
	ErrQuotaExceeded = errors.New("external store quota exceeded")
)

// IsQuota reports whether err is (or wraps) a quota-exceeded response.
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

type Store interface {
	FetchOrderRows(ctx context.Context, butcherID string) ([]codec.Row, error)
	AppendOrderRow(ctx context.Context, butcherID string, row codec.Row) error
	UpdateOrderRow(ctx context.Context, butcherID string, orderNo int, patch codec.RowPatch) error
	FetchCatalogRows(ctx context.Context, butcher domain.Butcher) ([]domain.PriceEntry, error)
	FetchRateRows(ctx context.Context, butcherID string) ([]domain.RateConfig, error)
}
