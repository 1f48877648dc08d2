// Package orderid composes and parses order identifiers. An order id is a
// date partition joined with a numeric sequence that is unique per butcher
// per day, e.g. "2026-09-01/17".
package orderid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func Compose(day time.Time, seq int) string {
	return fmt.Sprintf("%s/%d", day.Format(dateLayout), seq)
}

// Seq extracts the trailing numeric sequence from an order id. It accepts
// both composite ids ("2026-09-01/17") and bare sequence strings ("17").
func Seq(id string) (int, error) {
	trimmed := strings.TrimSpace(id)
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	seq, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("order id %q has no numeric sequence: %w", id, err)
	}
	return seq, nil
}

// Day extracts the date partition from a composite order id. Bare sequence
// ids have no date partition and return the zero time.
func Day(id string) (time.Time, error) {
	idx := strings.LastIndex(id, "/")
	if idx < 0 {
		return time.Time{}, nil
	}
	day, err := time.Parse(dateLayout, id[:idx])
	if err != nil {
		return time.Time{}, fmt.Errorf("order id %q has an invalid date partition: %w", id, err)
	}
	return day, nil
}
