package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VendorType decides how captured amounts are interpreted: weight-based
// vendors record kilograms, count-based vendors record piece counts.
type VendorType string

const (
	VendorWeightBased VendorType = "meat"
	VendorCountBased  VendorType = "fish"
)

const (
	UnitKg  = "kg"
	UnitNos = "nos"
)

// SizeDefault is the sentinel size for items without a size tier.
const SizeDefault = "default"

type Butcher struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Vendor VendorType `json:"vendor"`
}

type OrderItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Size     string `json:"size,omitempty"`
	CutType  string `json:"cut_type,omitempty"`
	Category string `json:"category,omitempty"`
	// Rejected holds the rejection reason; a non-empty value means the
	// item was declined at acceptance time.
	Rejected string `json:"rejected,omitempty"`
	// PreparingWeight is the captured amount recorded at acceptance.
	PreparingWeight string `json:"preparing_weight,omitempty"`
}

func (i OrderItem) IsRejected() bool {
	return i.Rejected != ""
}

type Order struct {
	ID                   string                     `json:"id"`
	Items                []OrderItem                `json:"items"`
	Status               OrderStatus                `json:"status"`
	OrderTime            *time.Time                 `json:"order_time,omitempty"`
	PreparationStartTime *time.Time                 `json:"preparation_start_time,omitempty"`
	PreparationEndTime   *time.Time                 `json:"preparation_end_time,omitempty"`
	PickedWeight         float64                    `json:"picked_weight,omitempty"`
	ItemWeights          map[string]string          `json:"item_weights,omitempty"`
	ItemQuantities       map[string]string          `json:"item_quantities,omitempty"`
	Revenue              decimal.Decimal            `json:"revenue"`
	ItemRevenues         map[string]decimal.Decimal `json:"item_revenues,omitempty"`
	RejectionReason      string                     `json:"rejection_reason,omitempty"`
}

// CapturedAmounts returns the per-item captured amount map for the given
// vendor type. Weight-based vendors track ItemWeights, count-based vendors
// track ItemQuantities; the two are mutually exclusive.
func (o *Order) CapturedAmounts(vendor VendorType) map[string]string {
	if vendor == VendorCountBased {
		return o.ItemQuantities
	}
	return o.ItemWeights
}

func (o *Order) SetCapturedAmounts(vendor VendorType, amounts map[string]string) {
	if vendor == VendorCountBased {
		o.ItemQuantities = amounts
		return
	}
	o.ItemWeights = amounts
}

func (o *Order) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusRejected
}

// Clone returns a deep copy. Mutations of the copy never alias the
// original, which is what lets callers keep a pre-mutation snapshot for
// revert-on-write-failure.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = make([]OrderItem, len(o.Items))
	copy(clone.Items, o.Items)
	clone.OrderTime = cloneTime(o.OrderTime)
	clone.PreparationStartTime = cloneTime(o.PreparationStartTime)
	clone.PreparationEndTime = cloneTime(o.PreparationEndTime)
	clone.ItemWeights = cloneStringMap(o.ItemWeights)
	clone.ItemQuantities = cloneStringMap(o.ItemQuantities)
	if o.ItemRevenues != nil {
		clone.ItemRevenues = make(map[string]decimal.Decimal, len(o.ItemRevenues))
		for k, v := range o.ItemRevenues {
			clone.ItemRevenues[k] = v
		}
	}
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RevenueKey builds the per-item revenue map key. The size qualifier keeps
// same-named items of different sizes from colliding.
func RevenueKey(itemName, size string) string {
	if size == "" {
		size = SizeDefault
	}
	return itemName + "_" + size
}

// PriceEntry is one row of a butcher's price catalog.
type PriceEntry struct {
	ItemName      string          `json:"item_name"`
	Category      string          `json:"category"`
	Size          string          `json:"size,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Unit          string          `json:"unit"`
}

// RateConfig holds the commission and markup percentages for one butcher
// category. Both rates are fractions in [0,1].
type RateConfig struct {
	ButcherID      string  `json:"butcher_id"`
	Category       string  `json:"category"`
	CommissionRate float64 `json:"commission_rate"`
	MarkupRate     float64 `json:"markup_rate"`
}
