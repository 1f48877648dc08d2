// Package revenue computes per-item and order revenue from captured
// preparation amounts.
package revenue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/pricing"
)

type Engine struct {
	prices *pricing.Resolver
	rates  *pricing.RateResolver
	log    zerolog.Logger
}

func NewEngine(prices *pricing.Resolver, rates *pricing.RateResolver, log zerolog.Logger) *Engine {
	return &Engine{prices: prices, rates: rates, log: log}
}

// Result is the computed order revenue: the total and the per-item map
// keyed by the size-qualified item key.
type Result struct {
	Total decimal.Decimal
	Items map[string]decimal.Decimal
}

// Compute derives revenue for every non-rejected item:
//
//	itemRevenue = purchasePrice × capturedAmount × (1 − commissionRate)
//
// Rejected items contribute zero. When the order already carries a
// per-item revenue map the stored values are reused as-is; recomputation
// against a live catalog would drift if prices changed mid-flight.
func (e *Engine) Compute(ctx context.Context, butcher domain.Butcher, order *domain.Order) (Result, error) {
	if len(order.ItemRevenues) > 0 {
		return reuseStored(order), nil
	}

	amounts := order.CapturedAmounts(butcher.Vendor)
	items := make(map[string]decimal.Decimal, len(order.Items))
	total := decimal.Zero

	for _, item := range order.Items {
		key := domain.RevenueKey(item.Name, item.Size)
		if item.IsRejected() {
			items[key] = decimal.Zero
			continue
		}

		amount, err := capturedAmount(item, amounts)
		if err != nil {
			return Result{}, err
		}

		resolved, err := e.prices.Resolve(ctx, butcher, item.Name, item.Size)
		if err != nil {
			return Result{}, err
		}

		category := resolved.Category
		if category == "" {
			category = item.Category
		}
		commission, _, err := e.rates.Resolve(ctx, butcher.ID, category)
		if err != nil {
			return Result{}, err
		}

		rev := resolved.Price.
			Mul(amount).
			Mul(decimal.NewFromFloat(1).Sub(decimal.NewFromFloat(commission)))
		if rev.IsNegative() {
			rev = decimal.Zero
		}
		items[key] = rev
		total = total.Add(rev)

		e.log.Debug().
			Str("butcher_id", butcher.ID).
			Str("item", item.Name).
			Str("price", resolved.Price.String()).
			Str("amount", amount.String()).
			Float64("commission", commission).
			Str("revenue", rev.String()).
			Msg("item revenue computed")
	}

	return Result{Total: total, Items: items}, nil
}

func reuseStored(order *domain.Order) Result {
	items := make(map[string]decimal.Decimal, len(order.ItemRevenues))
	total := decimal.Zero
	for k, v := range order.ItemRevenues {
		items[k] = v
		total = total.Add(v)
	}
	return Result{Total: total, Items: items}
}

func capturedAmount(item domain.OrderItem, amounts map[string]string) (decimal.Decimal, error) {
	raw := amounts[item.Name]
	if raw == "" {
		raw = item.PreparingWeight
	}
	if raw == "" {
		// Capture-exempt items fall back to the ordered quantity.
		raw = item.Quantity
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("revenue: item %q has no usable amount (%q): %w", item.Name, raw, err)
	}
	return amount, nil
}
