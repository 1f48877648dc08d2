package codec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butcherdesk/backend/internal/domain"
)

func TestDetectValueEncoding(t *testing.T) {
	assert.Equal(t, EncodingKeyed, DetectValueEncoding("Chicken Leg: 1.8"))
	assert.Equal(t, EncodingKeyed, DetectValueEncoding("Chicken Leg: 1.8, Mutton: 2"))
	assert.Equal(t, EncodingLegacy, DetectValueEncoding("1.8, 2"))
	assert.Equal(t, EncodingLegacy, DetectValueEncoding(""))
	// A ": " without any letter is still legacy.
	assert.Equal(t, EncodingLegacy, DetectValueEncoding("1: 2"))
}

func TestDetectStatusEncoding(t *testing.T) {
	assert.Equal(t, EncodingKeyed, DetectStatusEncoding("Chicken Leg - accepted"))
	assert.Equal(t, EncodingKeyed, DetectStatusEncoding("Chicken Leg - rejected - too small"))
	assert.Equal(t, EncodingLegacy, DetectStatusEncoding("ready to pick up"))
	assert.Equal(t, EncodingLegacy, DetectStatusEncoding("customer cancelled at gate"))
}

func TestStatusFieldRoundTrip(t *testing.T) {
	items := []domain.OrderItem{
		{Name: "Chicken Leg"},
		{Name: "Mutton Shoulder", Rejected: "out of stock"},
		{Name: "Beef Brisket", Rejected: "rejected"},
	}

	encoded := EncodeStatusField(items)
	assert.Equal(t, "Chicken Leg - accepted, Mutton Shoulder - rejected - out of stock, Beef Brisket - rejected - rejected", encoded)

	decoded := DecodeStatusField(encoded)
	require.Equal(t, EncodingKeyed, decoded.Encoding)
	require.Len(t, decoded.Decisions, 3)
	assert.True(t, decoded.Decisions[0].Accepted)
	assert.Equal(t, "Chicken Leg", decoded.Decisions[0].Name)
	assert.False(t, decoded.Decisions[1].Accepted)
	assert.Equal(t, "out of stock", decoded.Decisions[1].Reason)
}

func TestStatusFieldTrilingualName(t *testing.T) {
	items := []domain.OrderItem{{Name: "Kozhi - Chicken - കോഴി"}}
	decoded := DecodeStatusField(EncodeStatusField(items))
	require.Len(t, decoded.Decisions, 1)
	assert.Equal(t, "Kozhi - Chicken - കോഴി", decoded.Decisions[0].Name)
	assert.True(t, decoded.Decisions[0].Accepted)
}

func TestStatusFieldLegacyTokens(t *testing.T) {
	cases := map[string]domain.OrderStatus{
		"new":              domain.StatusNew,
		"accepted":         domain.StatusPreparing,
		"Ready To Pick Up": domain.StatusPreparing,
		"completed":        domain.StatusCompleted,
		"declined":         domain.StatusRejected,
	}
	for field, want := range cases {
		decoded := DecodeStatusField(field)
		assert.Equal(t, EncodingLegacy, decoded.Encoding, field)
		assert.Equal(t, want, decoded.Legacy, field)
	}
}

func TestStatusFieldLegacyFreeTextIsRejection(t *testing.T) {
	decoded := DecodeStatusField("shop closed for the day")
	assert.Equal(t, EncodingLegacy, decoded.Encoding)
	assert.Equal(t, domain.StatusRejected, decoded.Legacy)
	assert.Equal(t, "shop closed for the day", decoded.LegacyReason)
}

func TestStatusFieldEmpty(t *testing.T) {
	decoded := DecodeStatusField("   ")
	assert.Equal(t, domain.StatusNew, decoded.Legacy)
	assert.Empty(t, decoded.Decisions)
}

func TestAmountFieldRoundTrip(t *testing.T) {
	items := []domain.OrderItem{
		{Name: "Chicken Leg"},
		{Name: "Mutton Shoulder", Rejected: "no stock"},
	}
	amounts := map[string]string{"Chicken Leg": "1.8"}

	encoded := EncodeAmountField(items, amounts)
	assert.Equal(t, "Chicken Leg: 1.8, Mutton Shoulder: rejected", encoded)

	decoded := DecodeAmountField(encoded, []string{"Chicken Leg", "Mutton Shoulder"})
	assert.Equal(t, map[string]string{"Chicken Leg": "1.8"}, decoded)
}

func TestAmountFieldLegacyPositional(t *testing.T) {
	decoded := DecodeAmountField("1.8, 2", []string{"Chicken Leg", "Mutton Shoulder"})
	assert.Equal(t, map[string]string{"Chicken Leg": "1.8", "Mutton Shoulder": "2"}, decoded)

	// Extra positional values beyond the item list are ignored.
	decoded = DecodeAmountField("1.8, 2, 3", []string{"Chicken Leg"})
	assert.Equal(t, map[string]string{"Chicken Leg": "1.8"}, decoded)
}

func TestAmountFieldMalformed(t *testing.T) {
	assert.Empty(t, DecodeAmountField("", nil))
	assert.Empty(t, DecodeAmountField("  ,  , ", nil))
}

func TestRevenueFieldRoundTrip(t *testing.T) {
	items := []domain.OrderItem{{Name: "Chicken Leg"}}
	revenues := map[string]decimal.Decimal{
		domain.RevenueKey("Chicken Leg", ""): decimal.NewFromFloat(324),
	}

	encoded := EncodeRevenueField(items, revenues)
	assert.Equal(t, "Chicken Leg: 324.00", encoded)

	decoded := DecodeRevenueField(encoded, []string{"Chicken Leg"})
	require.Contains(t, decoded, "Chicken Leg")
	assert.True(t, decoded["Chicken Leg"].Equal(decimal.NewFromFloat(324)))
}

func TestRevenueFieldLegacyPositional(t *testing.T) {
	decoded := DecodeRevenueField("324.00, 118.5", []string{"Chicken Leg", "Mutton Shoulder"})
	require.Len(t, decoded, 2)
	assert.True(t, decoded["Mutton Shoulder"].Equal(decimal.NewFromFloat(118.5)))
}

func TestRevenueFieldSizeQualifiedKeys(t *testing.T) {
	items := []domain.OrderItem{
		{Name: "Chicken Curry Cut", Size: "small"},
		{Name: "Chicken Curry Cut", Size: "large"},
	}
	revenues := map[string]decimal.Decimal{
		"Chicken Curry Cut_small": decimal.NewFromInt(100),
		"Chicken Curry Cut_large": decimal.NewFromInt(150),
	}
	encoded := EncodeRevenueField(items, revenues)
	assert.Equal(t, "Chicken Curry Cut: 100.00, Chicken Curry Cut: 150.00", encoded)
}
