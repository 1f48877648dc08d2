// Package codec serializes order state into the external store's flat-row
// text encoding and decodes rows written in either the current keyed format
// or the legacy positional format.
package codec

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"butcherdesk/backend/internal/domain"
)

// Encoding tags which of the two historical field formats a value uses.
type Encoding int

const (
	// EncodingKeyed is the current "<itemName>: <value>" format.
	EncodingKeyed Encoding = iota
	// EncodingLegacy is the old bare positional format.
	EncodingLegacy
)

const (
	acceptedMarker = " - accepted"
	rejectedMarker = " - rejected"
)

// DetectValueEncoding classifies an amount or revenue field: the keyed
// format carries a ": " separator together with at least one letter, the
// legacy format is a bare positional list.
func DetectValueEncoding(field string) Encoding {
	if strings.Contains(field, ": ") && strings.IndexFunc(field, unicode.IsLetter) >= 0 {
		return EncodingKeyed
	}
	return EncodingLegacy
}

// DetectStatusEncoding classifies a status field. Keyed detection must run
// before legacy token matching because a legacy free-text rejection reason
// matches no token at all.
func DetectStatusEncoding(field string) Encoding {
	if strings.Contains(field, acceptedMarker) || strings.Contains(field, rejectedMarker) {
		return EncodingKeyed
	}
	return EncodingLegacy
}

// ItemDecision is one per-item outcome parsed from a keyed status field.
type ItemDecision struct {
	Name     string
	Accepted bool
	Reason   string
}

// StatusField is the decoded form of the status column.
type StatusField struct {
	Encoding  Encoding
	Decisions []ItemDecision
	// Legacy holds the aggregate status when the field used the old bare
	// token format (or a free-text rejection reason).
	Legacy       domain.OrderStatus
	LegacyReason string
}

// EncodeStatusField always emits the keyed format:
// "<itemName> - accepted" or "<itemName> - rejected[ - <reason>]".
func EncodeStatusField(items []domain.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsRejected() {
			part := item.Name + rejectedMarker
			if reason := strings.TrimSpace(item.Rejected); reason != "" {
				part += " - " + reason
			}
			parts = append(parts, part)
		} else {
			parts = append(parts, item.Name+acceptedMarker)
		}
	}
	return strings.Join(parts, ", ")
}

var legacyStatusTokens = map[string]domain.OrderStatus{
	"new":              domain.StatusNew,
	"accepted":         domain.StatusPreparing,
	"preparing":        domain.StatusPreparing,
	"ready to pick up": domain.StatusPreparing,
	"completed":        domain.StatusCompleted,
	"rejected":         domain.StatusRejected,
	"declined":         domain.StatusRejected,
}

// DecodeStatusField parses either format. Item names may themselves contain
// " - " (tri-lingual composites), so keyed entries are split on the
// accepted/rejected marker rather than naively on the separator.
func DecodeStatusField(field string) StatusField {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return StatusField{Encoding: EncodingLegacy, Legacy: domain.StatusNew}
	}

	if DetectStatusEncoding(trimmed) == EncodingKeyed {
		decisions := make([]ItemDecision, 0, 4)
		for _, part := range strings.Split(trimmed, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if idx := strings.Index(part, rejectedMarker); idx >= 0 {
				reason := strings.TrimPrefix(part[idx+len(rejectedMarker):], " - ")
				decisions = append(decisions, ItemDecision{
					Name:   part[:idx],
					Reason: strings.TrimSpace(reason),
				})
				continue
			}
			if idx := strings.Index(part, acceptedMarker); idx >= 0 {
				decisions = append(decisions, ItemDecision{Name: part[:idx], Accepted: true})
			}
		}
		return StatusField{Encoding: EncodingKeyed, Decisions: decisions}
	}

	if status, ok := legacyStatusTokens[strings.ToLower(trimmed)]; ok {
		return StatusField{Encoding: EncodingLegacy, Legacy: status}
	}
	// Legacy ambiguity: free text with no recognized token is a rejection
	// reason.
	return StatusField{Encoding: EncodingLegacy, Legacy: domain.StatusRejected, LegacyReason: trimmed}
}

const rejectedValue = "rejected"

// EncodeAmountField emits "<itemName>: <amount>" for accepted items and
// "<itemName>: rejected" for declined ones, preserving item order.
func EncodeAmountField(items []domain.OrderItem, amounts map[string]string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsRejected() {
			parts = append(parts, item.Name+": "+rejectedValue)
			continue
		}
		amount := amounts[item.Name]
		if amount == "" {
			amount = item.PreparingWeight
		}
		if amount == "" {
			continue
		}
		parts = append(parts, item.Name+": "+amount)
	}
	return strings.Join(parts, ", ")
}

// DecodeAmountField returns item name -> captured amount. Legacy fields are
// bare positional lists mapped onto itemNames by index. Rejected markers and
// malformed entries are dropped; an empty or unparseable field yields an
// empty map.
func DecodeAmountField(field string, itemNames []string) map[string]string {
	amounts := make(map[string]string)
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return amounts
	}

	if DetectValueEncoding(trimmed) == EncodingKeyed {
		for _, part := range strings.Split(trimmed, ",") {
			name, value, ok := splitKeyed(part)
			if !ok || value == rejectedValue {
				continue
			}
			amounts[name] = value
		}
		return amounts
	}

	for i, part := range strings.Split(trimmed, ",") {
		if i >= len(itemNames) {
			break
		}
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		amounts[itemNames[i]] = value
	}
	return amounts
}

// EncodeRevenueField emits "<itemName>: <revenue>" with two decimal places,
// looking revenues up by the size-qualified key.
func EncodeRevenueField(items []domain.OrderItem, revenues map[string]decimal.Decimal) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		rev, ok := revenues[domain.RevenueKey(item.Name, item.Size)]
		if !ok {
			continue
		}
		parts = append(parts, item.Name+": "+rev.StringFixed(2))
	}
	return strings.Join(parts, ", ")
}

// DecodeRevenueField returns item name -> revenue for either format.
// Entries that do not parse as numbers are dropped.
func DecodeRevenueField(field string, itemNames []string) map[string]decimal.Decimal {
	revenues := make(map[string]decimal.Decimal)
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return revenues
	}

	if DetectValueEncoding(trimmed) == EncodingKeyed {
		for _, part := range strings.Split(trimmed, ",") {
			name, value, ok := splitKeyed(part)
			if !ok {
				continue
			}
			if rev, err := decimal.NewFromString(value); err == nil {
				revenues[name] = rev
			}
		}
		return revenues
	}

	for i, part := range strings.Split(trimmed, ",") {
		if i >= len(itemNames) {
			break
		}
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if rev, err := decimal.NewFromString(value); err == nil {
			revenues[itemNames[i]] = rev
		}
	}
	return revenues
}

// splitKeyed splits "<name>: <value>" on the last ": " so names containing
// the separator still parse.
func splitKeyed(part string) (name, value string, ok bool) {
	part = strings.TrimSpace(part)
	idx := strings.LastIndex(part, ": ")
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(part[:idx])
	value = strings.TrimSpace(part[idx+2:])
	if name == "" || value == "" {
		return "", "", false
	}
	return name, value, true
}
