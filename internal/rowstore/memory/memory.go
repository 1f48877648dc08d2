// Package memory is the in-memory row store used for dev mode and tests.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"butcherdesk/backend/internal/codec"
	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/rowstore"
)

type Store struct {
	mu      sync.RWMutex
	orders  map[string][]codec.Row
	catalog map[string][]domain.PriceEntry
	rates   map[string][]domain.RateConfig
}

func New() *Store {
	return &Store{
		orders:  make(map[string][]codec.Row),
		catalog: make(map[string][]domain.PriceEntry),
		rates:   make(map[string][]domain.RateConfig),
	}
}

// NewSeeded returns a store pre-loaded with a demo catalog and rates for
// the two dev butchers wired up by cmd/server.
func NewSeeded() *Store {
	s := New()
	s.SeedCatalog("butcher-meat-01", []domain.PriceEntry{
		{ItemName: "Chicken Leg", Category: "chicken", Size: "", PurchasePrice: decimal.NewFromInt(200), SellingPrice: decimal.NewFromInt(260), Unit: domain.UnitKg},
		{ItemName: "Chicken Curry Cut (small)", Category: "chicken", Size: "small", PurchasePrice: decimal.NewFromInt(180), SellingPrice: decimal.NewFromInt(240), Unit: domain.UnitKg},
		{ItemName: "Chicken Curry Cut (large)", Category: "chicken", Size: "large", PurchasePrice: decimal.NewFromInt(190), SellingPrice: decimal.NewFromInt(250), Unit: domain.UnitKg},
		{ItemName: "Mutton Shoulder", Category: "mutton", Size: "", PurchasePrice: decimal.NewFromInt(620), SellingPrice: decimal.NewFromInt(740), Unit: domain.UnitKg},
		{ItemName: "Beef Brisket", Category: "beef", Size: "", PurchasePrice: decimal.NewFromInt(480), SellingPrice: decimal.NewFromInt(560), Unit: domain.UnitKg},
	})
	s.SeedCatalog("butcher-fish-01", []domain.PriceEntry{
		{ItemName: "Mackerel", Category: "sea fish", PurchasePrice: decimal.NewFromInt(45), SellingPrice: decimal.NewFromInt(60), Unit: domain.UnitNos},
		{ItemName: "Sardine", Category: "sea fish", PurchasePrice: decimal.NewFromInt(20), SellingPrice: decimal.NewFromInt(30), Unit: domain.UnitNos},
		{ItemName: "Prawns", Category: "shellfish", PurchasePrice: decimal.NewFromInt(90), SellingPrice: decimal.NewFromInt(120), Unit: domain.UnitNos},
	})
	s.SeedRates("butcher-meat-01", []domain.RateConfig{
		{ButcherID: "butcher-meat-01", Category: "chicken", CommissionRate: 0.10, MarkupRate: 0.05},
		{ButcherID: "butcher-meat-01", Category: "mutton", CommissionRate: 0.07, MarkupRate: 0.00},
	})
	return s
}

func (s *Store) SeedCatalog(butcherID string, entries []domain.PriceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[butcherID] = entries
}

func (s *Store) SeedRates(butcherID string, rates []domain.RateConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[butcherID] = rates
}

func (s *Store) FetchOrderRows(_ context.Context, butcherID string) ([]codec.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.orders[butcherID]
	out := make([]codec.Row, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) AppendOrderRow(_ context.Context, butcherID string, row codec.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[butcherID] = append(s.orders[butcherID], row)
	return nil
}

func (s *Store) UpdateOrderRow(_ context.Context, butcherID string, orderNo int, patch codec.RowPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.orders[butcherID]
	for i := range rows {
		if rows[i].OrderNo == orderNo {
			rows[i] = rows[i].Apply(patch)
			return nil
		}
	}
	return rowstore.ErrNotFound
}

func (s *Store) FetchCatalogRows(_ context.Context, butcher domain.Butcher) ([]domain.PriceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.catalog[butcher.ID]
	out := make([]domain.PriceEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) FetchRateRows(_ context.Context, butcherID string) ([]domain.RateConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rates := s.rates[butcherID]
	out := make([]domain.RateConfig, len(rates))
	copy(out, rates)
	return out, nil
}
