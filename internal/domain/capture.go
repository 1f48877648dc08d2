package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingAmount = errors.New("captured amount is required")
	ErrInvalidAmount = errors.New("captured amount is not a positive number")
	ErrEmptyReason   = errors.New("rejection reason must not be empty")
)

// OutOfRangeError is returned when a captured amount exceeds the configured
// ceiling for its unit. It is a validation failure, never silently clamped.
type OutOfRangeError struct {
	ItemName string
	Unit     string
	Amount   string
	Ceiling  float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("captured amount %s %s for %q exceeds ceiling %g", e.Amount, e.Unit, e.ItemName, e.Ceiling)
}

// CapturePolicy configures amount validation and the weight-capture
// exemption rules.
type CapturePolicy struct {
	// NosCeiling is the maximum accepted piece count for "nos" items.
	NosCeiling int
	// KgCeiling is the maximum accepted weight for "kg" items.
	KgCeiling float64
	// ExemptCategories lists count-like catalog categories whose items do
	// not require capture; they are auto-assigned the ordered quantity.
	ExemptCategories []string
	// ForceCapturePatterns are normalized item-name substrings that always
	// require capture, overriding the category exemption.
	ForceCapturePatterns []string
}

func DefaultCapturePolicy() CapturePolicy {
	return CapturePolicy{
		NosCeiling:           20,
		KgCeiling:            10.0,
		ExemptCategories:     []string{"eggs", "ready to cook"},
		ForceCapturePatterns: []string{"curry cut", "biryani cut"},
	}
}

// NeedsCapture reports whether the item must carry an explicit captured
// amount. Name-pattern overrides are checked before the category exemption.
func (p CapturePolicy) NeedsCapture(item OrderItem) bool {
	name := strings.ToLower(item.Name)
	for _, pattern := range p.ForceCapturePatterns {
		if pattern != "" && strings.Contains(name, pattern) {
			return true
		}
	}
	category := strings.ToLower(strings.TrimSpace(item.Category))
	for _, exempt := range p.ExemptCategories {
		if category != "" && category == strings.ToLower(exempt) {
			return false
		}
	}
	return true
}

// ValidateAmount checks a captured amount against the unit's numeric rules:
// "nos" amounts must be positive integers within the nos ceiling, "kg"
// amounts positive rationals within the kg ceiling.
func (p CapturePolicy) ValidateAmount(item OrderItem, amount string) error {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return fmt.Errorf("%w: item %q", ErrMissingAmount, item.Name)
	}

	switch item.Unit {
	case UnitNos:
		n, err := strconv.Atoi(amount)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: item %q amount %q", ErrInvalidAmount, item.Name, amount)
		}
		if n > p.NosCeiling {
			return &OutOfRangeError{ItemName: item.Name, Unit: item.Unit, Amount: amount, Ceiling: float64(p.NosCeiling)}
		}
	default:
		f, err := strconv.ParseFloat(amount, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%w: item %q amount %q", ErrInvalidAmount, item.Name, amount)
		}
		if f > p.KgCeiling {
			return &OutOfRangeError{ItemName: item.Name, Unit: item.Unit, Amount: amount, Ceiling: p.KgCeiling}
		}
	}
	return nil
}
