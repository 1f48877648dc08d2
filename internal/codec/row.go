package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/orderid"
)

// RowFieldCount is the fixed column count of an order row:
// [date, orderNo, items, quantities, sizes, cutTypes, preparingAmounts,
// completionTime, startTime, status, revenue].
const RowFieldCount = 11

// ParseError reports a row that does not match the expected schema. Rows
// are never silently padded; callers get a tagged error instead.
type ParseError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row parse error at field %d (%s): %s", e.Index, e.Field, e.Reason)
}

// Row is the typed form of one order row. Multi-valued columns stay in
// their comma-joined text encoding; the field codecs above interpret them.
type Row struct {
	Date             string
	OrderNo          int
	Items            string
	Quantities       string
	Sizes            string
	CutTypes         string
	PreparingAmounts string
	CompletionTime   string
	StartTime        string
	Status           string
	Revenue          string
}

// RowPatch is a partial update of the mutable row columns. Nil fields are
// left untouched by the store.
type RowPatch struct {
	PreparingAmounts *string
	CompletionTime   *string
	StartTime        *string
	Status           *string
	Revenue          *string
}

func (r Row) Apply(patch RowPatch) Row {
	if patch.PreparingAmounts != nil {
		r.PreparingAmounts = *patch.PreparingAmounts
	}
	if patch.CompletionTime != nil {
		r.CompletionTime = *patch.CompletionTime
	}
	if patch.StartTime != nil {
		r.StartTime = *patch.StartTime
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.Revenue != nil {
		r.Revenue = *patch.Revenue
	}
	return r
}

// ParseRow validates arity and field types for one raw row.
func ParseRow(fields []string) (Row, error) {
	if len(fields) != RowFieldCount {
		return Row{}, &ParseError{Index: len(fields), Field: "row", Reason: fmt.Sprintf("expected %d fields, got %d", RowFieldCount, len(fields))}
	}
	if strings.TrimSpace(fields[0]) == "" {
		return Row{}, &ParseError{Index: 0, Field: "date", Reason: "empty"}
	}
	orderNo, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Row{}, &ParseError{Index: 1, Field: "orderNo", Reason: fmt.Sprintf("not a number: %q", fields[1])}
	}
	if strings.TrimSpace(fields[2]) == "" {
		return Row{}, &ParseError{Index: 2, Field: "items", Reason: "empty"}
	}
	return Row{
		Date:             strings.TrimSpace(fields[0]),
		OrderNo:          orderNo,
		Items:            fields[2],
		Quantities:       fields[3],
		Sizes:            fields[4],
		CutTypes:         fields[5],
		PreparingAmounts: fields[6],
		CompletionTime:   fields[7],
		StartTime:        fields[8],
		Status:           fields[9],
		Revenue:          fields[10],
	}, nil
}

func (r Row) Fields() []string {
	return []string{
		r.Date,
		strconv.Itoa(r.OrderNo),
		r.Items,
		r.Quantities,
		r.Sizes,
		r.CutTypes,
		r.PreparingAmounts,
		r.CompletionTime,
		r.StartTime,
		r.Status,
		r.Revenue,
	}
}

const rowTimeLayout = time.RFC3339

// legacyTimeLayout shows up in rows written before timestamps were
// normalized to RFC 3339.
const legacyTimeLayout = "2006-01-02 15:04:05"

func EncodeTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(rowTimeLayout)
}

func DecodeTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse(rowTimeLayout, value); err == nil {
		return &t
	}
	if t, err := time.Parse(legacyTimeLayout, value); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}

func splitList(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	parts := strings.Split(field, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func positional(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// DecodeOrder hydrates a typed Order from a row, accepting both field
// formats. Malformed status/amount/revenue fields degrade to empty maps
// rather than failing the whole row.
func DecodeOrder(row Row, vendor domain.VendorType) (*domain.Order, error) {
	names := splitList(row.Items)
	if len(names) == 0 {
		return nil, &ParseError{Index: 2, Field: "items", Reason: "no item names"}
	}
	quantities := splitList(row.Quantities)
	sizes := splitList(row.Sizes)
	cutTypes := splitList(row.CutTypes)

	items := make([]domain.OrderItem, len(names))
	for i, name := range names {
		items[i] = domain.OrderItem{
			ID:       fmt.Sprintf("%d-%d", row.OrderNo, i+1),
			Name:     name,
			Quantity: positional(quantities, i),
			Unit:     unitForVendor(vendor),
			Size:     positional(sizes, i),
			CutType:  positional(cutTypes, i),
		}
	}

	status := DecodeStatusField(row.Status)
	rejectionReason := ""
	if status.Encoding == EncodingKeyed {
		byName := make(map[string]ItemDecision, len(status.Decisions))
		for _, d := range status.Decisions {
			byName[d.Name] = d
		}
		for i := range items {
			if d, ok := byName[items[i].Name]; ok && !d.Accepted {
				reason := d.Reason
				if reason == "" {
					reason = "rejected"
				}
				items[i].Rejected = reason
			}
		}
	} else if status.Legacy == domain.StatusRejected {
		reason := status.LegacyReason
		if reason == "" {
			reason = "rejected"
		}
		for i := range items {
			items[i].Rejected = reason
		}
		rejectionReason = reason
	}

	amounts := DecodeAmountField(row.PreparingAmounts, names)
	for i := range items {
		if amount, ok := amounts[items[i].Name]; ok && !items[i].IsRejected() {
			items[i].PreparingWeight = amount
		}
	}

	order := &domain.Order{
		ID:                   orderid.Compose(dayFromRow(row), row.OrderNo),
		Items:                items,
		PreparationStartTime: DecodeTime(row.StartTime),
		PreparationEndTime:   DecodeTime(row.CompletionTime),
		RejectionReason:      rejectionReason,
	}
	if len(amounts) > 0 {
		order.SetCapturedAmounts(vendor, amounts)
	}

	revenueByName := DecodeRevenueField(row.Revenue, names)
	if len(revenueByName) > 0 {
		order.ItemRevenues = make(map[string]decimal.Decimal, len(revenueByName))
		total := decimal.Zero
		for _, item := range items {
			rev, ok := revenueByName[item.Name]
			if !ok {
				continue
			}
			order.ItemRevenues[domain.RevenueKey(item.Name, item.Size)] = rev
			total = total.Add(rev)
		}
		order.Revenue = total
	}

	order.Status = resolveStatus(status, items, order)
	if order.Status == domain.StatusRejected && order.RejectionReason == "" {
		order.RejectionReason = firstRejectionReason(items)
	}
	return order, nil
}

func resolveStatus(status StatusField, items []domain.OrderItem, order *domain.Order) domain.OrderStatus {
	if status.Encoding == EncodingLegacy {
		return status.Legacy
	}
	accepted := domain.StatusPreparing
	if order.PreparationEndTime != nil || len(order.ItemRevenues) > 0 {
		accepted = domain.StatusCompleted
	}
	derived, err := domain.DeriveStatus(items, accepted)
	if err != nil {
		return domain.StatusNew
	}
	return derived
}

func firstRejectionReason(items []domain.OrderItem) string {
	for _, item := range items {
		if item.IsRejected() {
			return item.Rejected
		}
	}
	return ""
}

func dayFromRow(row Row) time.Time {
	if t, err := time.Parse("2006-01-02", row.Date); err == nil {
		return t
	}
	if t := DecodeTime(row.Date); t != nil {
		return *t
	}
	return time.Time{}
}

func unitForVendor(vendor domain.VendorType) string {
	if vendor == domain.VendorCountBased {
		return domain.UnitNos
	}
	return domain.UnitKg
}

// EncodeOrder serializes an order back into a row, always emitting the
// keyed field formats.
func EncodeOrder(order *domain.Order, vendor domain.VendorType) Row {
	names := make([]string, len(order.Items))
	quantities := make([]string, len(order.Items))
	sizes := make([]string, len(order.Items))
	cutTypes := make([]string, len(order.Items))
	for i, item := range order.Items {
		names[i] = item.Name
		quantities[i] = item.Quantity
		sizes[i] = item.Size
		cutTypes[i] = item.CutType
	}

	day, _ := orderid.Day(order.ID)
	seq, _ := orderid.Seq(order.ID)

	// Intake rows carry no item-level decisions yet; the bare "new" token
	// is the only status both formats agree on.
	statusField := EncodeStatusField(order.Items)
	if order.Status == domain.StatusNew {
		statusField = string(domain.StatusNew)
	}

	return Row{
		Date:             day.Format("2006-01-02"),
		OrderNo:          seq,
		Items:            strings.Join(names, ", "),
		Quantities:       strings.Join(quantities, ", "),
		Sizes:            strings.Join(sizes, ", "),
		CutTypes:         strings.Join(cutTypes, ", "),
		PreparingAmounts: EncodeAmountField(order.Items, order.CapturedAmounts(vendor)),
		CompletionTime:   EncodeTime(order.PreparationEndTime),
		StartTime:        EncodeTime(order.PreparationStartTime),
		Status:           statusField,
		Revenue:          EncodeRevenueField(order.Items, order.ItemRevenues),
	}
}
