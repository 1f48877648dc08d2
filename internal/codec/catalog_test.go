package codec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butcherdesk/backend/internal/domain"
)

func TestParseCatalogRowWeightBased(t *testing.T) {
	entry, err := ParseCatalogRow(
		[]string{"1", "Chicken Curry Cut", "chicken", "small", "180", "240.50", "kg"},
		domain.VendorWeightBased,
	)
	require.NoError(t, err)
	assert.Equal(t, "Chicken Curry Cut", entry.ItemName)
	assert.Equal(t, "small", entry.Size)
	assert.True(t, entry.PurchasePrice.Equal(decimal.NewFromInt(180)))
	assert.True(t, entry.SellingPrice.Equal(decimal.NewFromFloat(240.50)))
	assert.Equal(t, domain.UnitKg, entry.Unit)
}

func TestParseCatalogRowCountBased(t *testing.T) {
	entry, err := ParseCatalogRow(
		[]string{"2", "Mackerel", "sea fish", "45", "60", "nos"},
		domain.VendorCountBased,
	)
	require.NoError(t, err)
	assert.Equal(t, "Mackerel", entry.ItemName)
	assert.Empty(t, entry.Size)
	assert.True(t, entry.PurchasePrice.Equal(decimal.NewFromInt(45)))
}

func TestParseCatalogRowErrors(t *testing.T) {
	var parseErr *ParseError

	// Count-based arity applied to a weight-based vendor.
	_, err := ParseCatalogRow([]string{"2", "Mackerel", "sea fish", "45", "60", "nos"}, domain.VendorWeightBased)
	require.ErrorAs(t, err, &parseErr)

	_, err = ParseCatalogRow([]string{"1", "", "chicken", "", "180", "240", "kg"}, domain.VendorWeightBased)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "itemName", parseErr.Field)

	_, err = ParseCatalogRow([]string{"1", "Chicken Leg", "chicken", "", "free", "240", "kg"}, domain.VendorWeightBased)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "purchasePrice", parseErr.Field)
}
