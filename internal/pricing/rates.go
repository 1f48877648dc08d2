package pricing

import (
	"context"
	"fmt"
	"strings"

	"butcherdesk/backend/internal/domain"
)

// Default rates applied when no configured row matches the category.
const (
	DefaultCommissionRedMeat = 0.07
	DefaultCommission        = 0.05
	DefaultMarkup            = 0.00
)

// RateSource supplies configured commission/markup rows for a butcher.
type RateSource interface {
	Rates(ctx context.Context, butcherID string) ([]domain.RateConfig, error)
}

type RateResolver struct {
	source RateSource
}

func NewRateResolver(source RateSource) *RateResolver {
	return &RateResolver{source: source}
}

// Resolve returns (commissionRate, markupRate) for a butcher category:
// exact case-insensitive match first, then substring containment in either
// direction, then hard-coded defaults.
func (r *RateResolver) Resolve(ctx context.Context, butcherID, category string) (float64, float64, error) {
	category = strings.TrimSpace(category)

	var rates []domain.RateConfig
	if r.source != nil {
		var err error
		rates, err = r.source.Rates(ctx, butcherID)
		if err != nil {
			return 0, 0, fmt.Errorf("pricing: fetch rates for %s: %w", butcherID, err)
		}
	}

	for _, rate := range rates {
		if strings.EqualFold(rate.Category, category) {
			return rate.CommissionRate, rate.MarkupRate, nil
		}
	}

	lower := strings.ToLower(category)
	for _, rate := range rates {
		configured := strings.ToLower(rate.Category)
		if configured == "" || lower == "" {
			continue
		}
		if strings.Contains(lower, configured) || strings.Contains(configured, lower) {
			return rate.CommissionRate, rate.MarkupRate, nil
		}
	}

	commission, markup := DefaultRates(category)
	return commission, markup, nil
}

// DefaultRates returns the hard-coded fallback rates for a category.
func DefaultRates(category string) (commission, markup float64) {
	lower := strings.ToLower(category)
	if strings.Contains(lower, "beef") || strings.Contains(lower, "mutton") {
		return DefaultCommissionRedMeat, DefaultMarkup
	}
	return DefaultCommission, DefaultMarkup
}
