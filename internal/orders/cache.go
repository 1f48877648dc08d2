// Package orders holds the in-memory staging store for in-flight orders
// and the service that reconciles it against the external row store.
package orders

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/orderid"
)

// Cache is the authoritative working copy of orders between acceptance
// and completion, keyed (butcherID, orderNo). Entries are deep-copied on
// the way in and out, so callers can hold pre-mutation snapshots and
// revert after a failed external write. Single-process only.
type Cache struct {
	mu     sync.RWMutex
	orders map[string]map[int]*domain.Order
	closed bool
}

func NewCache() *Cache {
	return &Cache{orders: make(map[string]map[int]*domain.Order)}
}

// Close drops all entries. The cache is unusable afterwards.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = nil
	c.closed = true
}

// Put upserts the full order record.
func (c *Cache) Put(butcherID string, order *domain.Order) error {
	seq, err := orderid.Seq(order.ID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	byNo, ok := c.orders[butcherID]
	if !ok {
		byNo = make(map[int]*domain.Order)
		c.orders[butcherID] = byNo
	}
	byNo[seq] = order.Clone()
	return nil
}

func (c *Cache) Get(butcherID string, orderNo int) (*domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	order, ok := c.orders[butcherID][orderNo]
	if !ok {
		return nil, false
	}
	return order.Clone(), true
}

// GetAll returns an unordered snapshot of a butcher's cached orders.
func (c *Cache) GetAll(butcherID string) []*domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byNo := c.orders[butcherID]
	out := make([]*domain.Order, 0, len(byNo))
	for _, order := range byNo {
		out = append(out, order.Clone())
	}
	return out
}

// Patch is a partial update of an order's mutable fields; nil fields are
// left untouched.
type Patch struct {
	Status               *domain.OrderStatus
	Items                []domain.OrderItem
	PreparationStartTime *time.Time
	PreparationEndTime   *time.Time
	PickedWeight         *float64
	ItemWeights          map[string]string
	ItemQuantities       map[string]string
	Revenue              *decimal.Decimal
	ItemRevenues         map[string]decimal.Decimal
	RejectionReason      *string
}

// ApplyPatch applies a partial update in place. It is a no-op when the
// order is not cached; the return value reports whether anything changed.
func (c *Cache) ApplyPatch(butcherID string, orderNo int, patch Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.orders[butcherID][orderNo]
	if !ok {
		return false
	}
	if patch.Status != nil {
		order.Status = *patch.Status
	}
	if patch.Items != nil {
		order.Items = make([]domain.OrderItem, len(patch.Items))
		copy(order.Items, patch.Items)
	}
	if patch.PreparationStartTime != nil {
		t := *patch.PreparationStartTime
		order.PreparationStartTime = &t
	}
	if patch.PreparationEndTime != nil {
		t := *patch.PreparationEndTime
		order.PreparationEndTime = &t
	}
	if patch.PickedWeight != nil {
		order.PickedWeight = *patch.PickedWeight
	}
	if patch.ItemWeights != nil {
		order.ItemWeights = copyMap(patch.ItemWeights)
	}
	if patch.ItemQuantities != nil {
		order.ItemQuantities = copyMap(patch.ItemQuantities)
	}
	if patch.Revenue != nil {
		order.Revenue = *patch.Revenue
	}
	if patch.ItemRevenues != nil {
		order.ItemRevenues = make(map[string]decimal.Decimal, len(patch.ItemRevenues))
		for k, v := range patch.ItemRevenues {
			order.ItemRevenues[k] = v
		}
	}
	if patch.RejectionReason != nil {
		order.RejectionReason = *patch.RejectionReason
	}
	return true
}

func (c *Cache) Remove(butcherID string, orderNo int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders[butcherID], orderNo)
}

func (c *Cache) Clear(butcherID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, butcherID)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
