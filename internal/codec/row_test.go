package codec

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butcherdesk/backend/internal/domain"
)

func TestParseRowArity(t *testing.T) {
	_, err := ParseRow([]string{"2026-09-01", "3", "Chicken Leg"})
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)

	_, err = ParseRow([]string{"2026-09-01", "not-a-number", "Chicken Leg", "", "", "", "", "", "", "", ""})
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "orderNo", parseErr.Field)

	row, err := ParseRow([]string{"2026-09-01", "3", "Chicken Leg", "2", "", "", "", "", "", "new", ""})
	require.NoError(t, err)
	assert.Equal(t, 3, row.OrderNo)
	assert.Equal(t, "2026-09-01", row.Date)
}

func TestRowFieldsRoundTrip(t *testing.T) {
	row := Row{
		Date:    "2026-09-01",
		OrderNo: 7,
		Items:   "Chicken Leg, Mutton Shoulder",
		Status:  "new",
	}
	parsed, err := ParseRow(row.Fields())
	require.NoError(t, err)
	assert.Equal(t, row.OrderNo, parsed.OrderNo)
	assert.Equal(t, row.Items, parsed.Items)
}

func TestDecodeOrderKeyedFormat(t *testing.T) {
	row := Row{
		Date:             "2026-09-01",
		OrderNo:          4,
		Items:            "Chicken Leg, Mutton Shoulder",
		Quantities:       "2, 1",
		CutTypes:         "curry cut, ",
		PreparingAmounts: "Chicken Leg: 1.8, Mutton Shoulder: rejected",
		StartTime:        "2026-09-01T10:00:00Z",
		Status:           "Chicken Leg - accepted, Mutton Shoulder - rejected - out of stock",
	}

	order, err := DecodeOrder(row, domain.VendorWeightBased)
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01/4", order.ID)
	assert.Equal(t, domain.StatusPreparing, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "1.8", order.Items[0].PreparingWeight)
	assert.Equal(t, "curry cut", order.Items[0].CutType)
	assert.Equal(t, "out of stock", order.Items[1].Rejected)
	assert.Equal(t, map[string]string{"Chicken Leg": "1.8"}, order.ItemWeights)
	require.NotNil(t, order.PreparationStartTime)
}

func TestDecodeOrderCompletedWithRevenue(t *testing.T) {
	row := Row{
		Date:             "2026-09-01",
		OrderNo:          9,
		Items:            "Chicken Leg",
		Quantities:       "2",
		PreparingAmounts: "Chicken Leg: 1.8",
		CompletionTime:   "2026-09-01T12:30:00Z",
		StartTime:        "2026-09-01T10:00:00Z",
		Status:           "Chicken Leg - accepted",
		Revenue:          "Chicken Leg: 324.00",
	}

	order, err := DecodeOrder(row, domain.VendorWeightBased)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, order.Status)
	assert.True(t, order.Revenue.Equal(decimal.NewFromFloat(324)))
	assert.True(t, order.ItemRevenues["Chicken Leg_default"].Equal(decimal.NewFromFloat(324)))
}

func TestDecodeOrderLegacyRow(t *testing.T) {
	row := Row{
		Date:             "2025-03-12",
		OrderNo:          2,
		Items:            "Mackerel, Sardine",
		Quantities:       "4, 10",
		PreparingAmounts: "4, 8",
		Status:           "ready to pick up",
		Revenue:          "216.0, 152",
	}

	order, err := DecodeOrder(row, domain.VendorCountBased)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, order.Status)
	assert.Equal(t, map[string]string{"Mackerel": "4", "Sardine": "8"}, order.ItemQuantities)
	assert.Equal(t, domain.UnitNos, order.Items[0].Unit)
	assert.True(t, order.ItemRevenues["Mackerel_default"].Equal(decimal.NewFromFloat(216)))
}

func TestDecodeOrderLegacyFreeTextRejection(t *testing.T) {
	row := Row{
		Date:    "2025-03-12",
		OrderNo: 5,
		Items:   "Mackerel",
		Status:  "boat did not come in",
	}

	order, err := DecodeOrder(row, domain.VendorCountBased)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, order.Status)
	assert.Equal(t, "boat did not come in", order.RejectionReason)
	assert.Equal(t, "boat did not come in", order.Items[0].Rejected)
}

func TestEncodeDecodeOrderRoundTrip(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	order := &domain.Order{
		ID: "2026-09-01/4",
		Items: []domain.OrderItem{
			{Name: "Chicken Leg", Quantity: "2", Unit: domain.UnitKg, PreparingWeight: "1.8"},
			{Name: "Mutton Shoulder", Quantity: "1", Unit: domain.UnitKg, Rejected: "out of stock"},
		},
		Status:               domain.StatusCompleted,
		PreparationStartTime: &start,
		PreparationEndTime:   &end,
		ItemWeights:          map[string]string{"Chicken Leg": "1.8"},
		Revenue:              decimal.NewFromFloat(324),
		ItemRevenues: map[string]decimal.Decimal{
			"Chicken Leg_default":     decimal.NewFromFloat(324),
			"Mutton Shoulder_default": decimal.Zero,
		},
	}

	decoded, err := DecodeOrder(EncodeOrder(order, domain.VendorWeightBased), domain.VendorWeightBased)
	require.NoError(t, err)

	assert.Equal(t, order.ID, decoded.ID)
	assert.Equal(t, order.Status, decoded.Status)
	assert.Equal(t, order.ItemWeights, decoded.ItemWeights)
	assert.Equal(t, "out of stock", decoded.Items[1].Rejected)
	assert.True(t, order.Revenue.Equal(decoded.Revenue))
	assert.True(t, decoded.PreparationEndTime.Equal(end))
}

// A legacy row decoded and re-encoded lands in the keyed format with the
// same meaning.
func TestLegacyRowReencodesAsKeyed(t *testing.T) {
	legacy := Row{
		Date:             "2025-03-12",
		OrderNo:          2,
		Items:            "Mackerel",
		Quantities:       "4",
		PreparingAmounts: "4",
		Status:           "accepted",
	}

	order, err := DecodeOrder(legacy, domain.VendorCountBased)
	require.NoError(t, err)

	reencoded := EncodeOrder(order, domain.VendorCountBased)
	assert.Equal(t, "Mackerel - accepted", reencoded.Status)
	assert.Equal(t, "Mackerel: 4", reencoded.PreparingAmounts)
	assert.Equal(t, EncodingKeyed, DetectStatusEncoding(reencoded.Status))
}
