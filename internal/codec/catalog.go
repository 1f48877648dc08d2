package codec

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"butcherdesk/backend/internal/domain"
)

// Catalog rows are 6 fields for count-based vendors and 7 for weight-based
// ones, which carry an extra size column after the category:
// [serial, itemName, category, (size,) purchasePrice, sellingPrice, unit].
const (
	catalogFieldsCount  = 6
	catalogFieldsWeight = 7
)

// ParseCatalogRow validates one raw catalog row for the given vendor type.
func ParseCatalogRow(fields []string, vendor domain.VendorType) (domain.PriceEntry, error) {
	want := catalogFieldsCount
	if vendor == domain.VendorWeightBased {
		want = catalogFieldsWeight
	}
	if len(fields) != want {
		return domain.PriceEntry{}, &ParseError{Index: len(fields), Field: "catalog row", Reason: fmt.Sprintf("expected %d fields for %s vendor, got %d", want, vendor, len(fields))}
	}

	entry := domain.PriceEntry{
		ItemName: strings.TrimSpace(fields[1]),
		Category: strings.TrimSpace(fields[2]),
	}
	if entry.ItemName == "" {
		return domain.PriceEntry{}, &ParseError{Index: 1, Field: "itemName", Reason: "empty"}
	}

	next := 3
	if vendor == domain.VendorWeightBased {
		entry.Size = strings.TrimSpace(fields[3])
		next = 4
	}

	purchase, err := decimal.NewFromString(strings.TrimSpace(fields[next]))
	if err != nil {
		return domain.PriceEntry{}, &ParseError{Index: next, Field: "purchasePrice", Reason: fmt.Sprintf("not a number: %q", fields[next])}
	}
	selling, err := decimal.NewFromString(strings.TrimSpace(fields[next+1]))
	if err != nil {
		return domain.PriceEntry{}, &ParseError{Index: next + 1, Field: "sellingPrice", Reason: fmt.Sprintf("not a number: %q", fields[next+1])}
	}
	entry.PurchasePrice = purchase
	entry.SellingPrice = selling
	entry.Unit = strings.TrimSpace(fields[next+2])
	return entry, nil
}
