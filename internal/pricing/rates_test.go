package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butcherdesk/backend/internal/domain"
)

type staticRates struct {
	rates []domain.RateConfig
}

func (s staticRates) Rates(ctx context.Context, butcherID string) ([]domain.RateConfig, error) {
	return s.rates, nil
}

func TestRateResolveExact(t *testing.T) {
	r := NewRateResolver(staticRates{rates: []domain.RateConfig{
		{Category: "chicken", CommissionRate: 0.10, MarkupRate: 0.05},
	}})

	commission, markup, err := r.Resolve(context.Background(), "butcher-meat-01", "Chicken")
	require.NoError(t, err)
	assert.Equal(t, 0.10, commission)
	assert.Equal(t, 0.05, markup)
}

func TestRateResolveSubstring(t *testing.T) {
	r := NewRateResolver(staticRates{rates: []domain.RateConfig{
		{Category: "chicken", CommissionRate: 0.10, MarkupRate: 0.05},
	}})

	commission, _, err := r.Resolve(context.Background(), "butcher-meat-01", "country chicken")
	require.NoError(t, err)
	assert.Equal(t, 0.10, commission)

	// Containment works in the other direction too.
	commission, _, err = r.Resolve(context.Background(), "butcher-meat-01", "chick")
	require.NoError(t, err)
	assert.Equal(t, 0.10, commission)
}

func TestRateResolveDefaults(t *testing.T) {
	r := NewRateResolver(staticRates{})

	commission, markup, err := r.Resolve(context.Background(), "butcher-meat-01", "mutton")
	require.NoError(t, err)
	assert.Equal(t, DefaultCommissionRedMeat, commission)
	assert.Equal(t, DefaultMarkup, markup)

	commission, _, err = r.Resolve(context.Background(), "butcher-fish-01", "fish")
	require.NoError(t, err)
	assert.Equal(t, DefaultCommission, commission)
}

func TestRateResolveNilSource(t *testing.T) {
	r := NewRateResolver(nil)

	commission, _, err := r.Resolve(context.Background(), "butcher-meat-01", "beef")
	require.NoError(t, err)
	assert.Equal(t, DefaultCommissionRedMeat, commission)
}

func TestDefaultRates(t *testing.T) {
	commission, _ := DefaultRates("Beef Cuts")
	assert.Equal(t, DefaultCommissionRedMeat, commission)

	commission, _ = DefaultRates("chicken")
	assert.Equal(t, DefaultCommission, commission)
}
