// Package pricing resolves catalog purchase prices and commission/markup
// rates for butcher order items.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"butcherdesk/backend/internal/domain"
)

// FuzzyThreshold is the minimum normalized similarity for the fallback
// match; the best candidate must score strictly above it.
const FuzzyThreshold = 0.70

// Catalog supplies price entries for a butcher. The fetch orchestrator
// implements this over the external store with TTL memoization.
type Catalog interface {
	Entries(ctx context.Context, butcher domain.Butcher) ([]domain.PriceEntry, error)
}

// CategoryMatcher derives a catalog category for an item name. It is an
// injected collaborator; when nil, the category of the matched catalog
// entry is used instead.
type CategoryMatcher interface {
	ResolveCategory(ctx context.Context, butcherID, itemName string) (string, error)
}

// Result carries the resolved purchase price and category. Category is
// populated even on a price miss so rate lookups can still proceed.
type Result struct {
	Price    decimal.Decimal
	Category string
}

type Resolver struct {
	catalog    Catalog
	categories CategoryMatcher
	log        zerolog.Logger
}

func NewResolver(catalog Catalog, categories CategoryMatcher, log zerolog.Logger) *Resolver {
	return &Resolver{catalog: catalog, categories: categories, log: log}
}

// Resolve looks up the purchase price for (butcher, itemName, size).
// Count-based vendors ignore size entirely; weight-based vendors try
// size-qualified names first. When no exact match exists, a Levenshtein
// similarity fallback accepts the best candidate above FuzzyThreshold,
// otherwise the price is zero and the caller decides on a default.
func (r *Resolver) Resolve(ctx context.Context, butcher domain.Butcher, itemName, size string) (Result, error) {
	entries, err := r.catalog.Entries(ctx, butcher)
	if err != nil {
		return Result{}, fmt.Errorf("pricing: fetch catalog for %s: %w", butcher.ID, err)
	}

	lookup := CanonicalName(itemName)
	category := ""
	if r.categories != nil {
		if c, err := r.categories.ResolveCategory(ctx, butcher.ID, lookup); err == nil {
			category = c
		}
	}

	var entry *domain.PriceEntry
	if butcher.Vendor == domain.VendorCountBased {
		entry = matchExact(entries, lookup)
	} else {
		entry = matchWeighted(entries, lookup, size)
	}

	if entry == nil {
		entry = r.matchFuzzy(entries, lookup, butcher.ID)
	}
	if entry == nil {
		r.log.Debug().Str("butcher_id", butcher.ID).Str("item", lookup).Msg("no catalog price match")
		return Result{Price: decimal.Zero, Category: category}, nil
	}

	if category == "" {
		category = entry.Category
	}
	return Result{Price: entry.PurchasePrice, Category: category}, nil
}

// CanonicalName normalizes a lookup name. Tri-lingual composites of the
// form "translit - english - native" collapse to the middle (english)
// segment.
func CanonicalName(name string) string {
	parts := strings.Split(name, " - ")
	if len(parts) >= 3 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(name)
}

func matchExact(entries []domain.PriceEntry, lookup string) *domain.PriceEntry {
	for i := range entries {
		if strings.EqualFold(entries[i].ItemName, lookup) {
			return &entries[i]
		}
	}
	return nil
}

func matchWeighted(entries []domain.PriceEntry, lookup, size string) *domain.PriceEntry {
	size = strings.TrimSpace(size)
	if size != "" && size != domain.SizeDefault {
		sized := []string{
			fmt.Sprintf("%s (%s)", lookup, size),
			fmt.Sprintf("%s %s", lookup, size),
		}
		for i := range entries {
			for _, candidate := range sized {
				if strings.EqualFold(entries[i].ItemName, candidate) {
					return &entries[i]
				}
			}
			if strings.EqualFold(entries[i].ItemName, lookup) && strings.EqualFold(entries[i].Size, size) {
				return &entries[i]
			}
		}
		return nil
	}
	return matchExact(entries, lookup)
}

func (r *Resolver) matchFuzzy(entries []domain.PriceEntry, lookup, butcherID string) *domain.PriceEntry {
	best := -1
	bestScore := 0.0
	for i := range entries {
		score := Similarity(lookup, entries[i].ItemName)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 || bestScore <= FuzzyThreshold {
		return nil
	}
	r.log.Debug().
		Str("butcher_id", butcherID).
		Str("item", lookup).
		Str("matched", entries[best].ItemName).
		Float64("score", bestScore).
		Msg("fuzzy catalog price match")
	return &entries[best]
}

// Similarity is a normalized Levenshtein ratio in [0,1] over lowercased,
// trimmed names.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	// Two empty names carry no signal; never treat them as a match.
	if longest == 0 {
		return 0
	}
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
