package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"butcherdesk/backend/internal/codec"
	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/fetch"
	"butcherdesk/backend/internal/orderid"
	"butcherdesk/backend/internal/revenue"
	"butcherdesk/backend/internal/rowstore"
)

var ErrOrderNotFound = errors.New("order not found")

// Dispatcher receives the outbound notification when an order's
// item-level decisions are finalized. Implementations must not block; the
// notify queue handles retries.
type Dispatcher interface {
	OrderResponded(butcher domain.Butcher, order *domain.Order)
}

// ItemDecision is one caller-supplied accept/reject outcome for an item.
type ItemDecision struct {
	Name   string `json:"name"`
	Accept bool   `json:"accept"`
	// Amount is the captured weight/count for accepted items.
	Amount string `json:"amount,omitempty"`
	// Reason is mandatory for rejected items.
	Reason string `json:"reason,omitempty"`
}

type Service struct {
	store    rowstore.Store
	fetcher  *fetch.Orchestrator
	cache    *Cache
	engine   *revenue.Engine
	policy   domain.CapturePolicy
	dispatch Dispatcher
	log      zerolog.Logger
	locks    sync.Map
	now      func() time.Time
}

func NewService(store rowstore.Store, fetcher *fetch.Orchestrator, cache *Cache, engine *revenue.Engine, policy domain.CapturePolicy, dispatch Dispatcher, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		fetcher:  fetcher,
		cache:    cache,
		engine:   engine,
		policy:   policy,
		dispatch: dispatch,
		log:      log,
		now:      time.Now,
	}
}

// lockOrder serializes concurrent mutations of the same order so a
// completion write cannot race ahead of an acceptance write.
func (s *Service) lockOrder(butcherID string, orderNo int) func() {
	key := butcherID + "/" + strconv.Itoa(orderNo)
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// List merges the external store's view with the in-memory staging cache.
// Cached entries win: they are the working copy for orders whose external
// write is still deferred.
func (s *Service) List(ctx context.Context, butcher domain.Butcher) ([]*domain.Order, error) {
	rows, err := s.fetcher.OrderRows(ctx, butcher.ID)
	if err != nil {
		return nil, err
	}

	byNo := make(map[int]*domain.Order, len(rows))
	for _, row := range rows {
		order, err := codec.DecodeOrder(row, butcher.Vendor)
		if err != nil {
			s.log.Warn().Err(err).Str("butcher_id", butcher.ID).Int("order_no", row.OrderNo).Msg("skipping undecodable order row")
			continue
		}
		byNo[row.OrderNo] = order
	}
	for _, cached := range s.cache.GetAll(butcher.ID) {
		if seq, err := orderid.Seq(cached.ID); err == nil {
			byNo[seq] = cached
		}
	}

	out := make([]*domain.Order, 0, len(byNo))
	for _, order := range byNo {
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get prefers the cached working copy over the external store.
func (s *Service) Get(ctx context.Context, butcher domain.Butcher, orderNo int) (*domain.Order, error) {
	if cached, ok := s.cache.Get(butcher.ID, orderNo); ok {
		return cached, nil
	}
	orders, err := s.List(ctx, butcher)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if seq, err := orderid.Seq(order.ID); err == nil && seq == orderNo {
			return order, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%d", ErrOrderNotFound, butcher.ID, orderNo)
}

// Intake registers a new order: next free sequence for today, status
// "new", appended to the external store and staged in the cache.
func (s *Service) Intake(ctx context.Context, butcher domain.Butcher, items []domain.OrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	seq, err := s.nextSeq(ctx, butcher)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:        orderid.Compose(now, seq),
		Items:     items,
		Status:    domain.StatusNew,
		OrderTime: &now,
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = fmt.Sprintf("%d-%d", seq, i+1)
		}
		if order.Items[i].Unit == "" {
			if butcher.Vendor == domain.VendorCountBased {
				order.Items[i].Unit = domain.UnitNos
			} else {
				order.Items[i].Unit = domain.UnitKg
			}
		}
	}

	row := codec.EncodeOrder(order, butcher.Vendor)
	if err := s.store.AppendOrderRow(ctx, butcher.ID, row); err != nil {
		return nil, fmt.Errorf("orders: append intake row: %w", err)
	}
	if err := s.cache.Put(butcher.ID, order); err != nil {
		return nil, err
	}
	s.fetcher.InvalidateOrders(ctx, butcher.ID)

	s.log.Info().Str("butcher_id", butcher.ID).Str("order_id", order.ID).Int("items", len(items)).Msg("order intake")
	return order, nil
}

// nextSeq needs the store's view to stay collision-free: minting a
// sequence from the staging cache alone could reuse an orderNo that
// already exists externally, so a degraded store fails the intake.
func (s *Service) nextSeq(ctx context.Context, butcher domain.Butcher) (int, error) {
	rows, err := s.fetcher.OrderRows(ctx, butcher.ID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, row := range rows {
		if row.OrderNo > max {
			max = row.OrderNo
		}
	}
	for _, cached := range s.cache.GetAll(butcher.ID) {
		if seq, err := orderid.Seq(cached.ID); err == nil && seq > max {
			max = seq
		}
	}
	return max + 1, nil
}

// Accept applies item-level accept/reject decisions and the captured
// amounts, transitioning the order to preparing (or straight to rejected
// when every item was declined).
func (s *Service) Accept(ctx context.Context, butcher domain.Butcher, orderNo int, decisions []ItemDecision) (*domain.Order, error) {
	unlock := s.lockOrder(butcher.ID, orderNo)
	defer unlock()

	order, err := s.Get(ctx, butcher, orderNo)
	if err != nil {
		return nil, err
	}
	snapshot := order.Clone()

	if len(order.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	byName := make(map[string]ItemDecision, len(decisions))
	for _, d := range decisions {
		byName[d.Name] = d
	}

	amounts := make(map[string]string, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		decision, ok := byName[item.Name]
		if ok && !decision.Accept {
			reason := trimmed(decision.Reason)
			if reason == "" {
				return nil, fmt.Errorf("%w: item %q", domain.ErrEmptyReason, item.Name)
			}
			item.Rejected = reason
			item.PreparingWeight = ""
			continue
		}

		amount := ""
		if ok {
			amount = trimmed(decision.Amount)
		}
		if s.policy.NeedsCapture(*item) {
			if err := s.policy.ValidateAmount(*item, amount); err != nil {
				return nil, err
			}
		} else if amount == "" {
			// Weight-exempt items inherit the ordered quantity.
			amount = item.Quantity
		}
		item.Rejected = ""
		item.PreparingWeight = amount
		amounts[item.Name] = amount
	}

	newStatus, err := domain.DeriveStatus(order.Items, domain.StatusPreparing)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(order.Status, newStatus); err != nil {
		return nil, err
	}

	order.Status = newStatus
	order.SetCapturedAmounts(butcher.Vendor, amounts)
	if newStatus == domain.StatusRejected {
		order.RejectionReason = firstReason(order.Items)
	} else {
		// Preparation only starts when something was actually accepted.
		now := s.now().UTC()
		order.PreparationStartTime = &now
	}

	if err := s.cache.Put(butcher.ID, order); err != nil {
		return nil, err
	}
	patch := codec.RowPatch{
		PreparingAmounts: ptr(codec.EncodeAmountField(order.Items, amounts)),
		StartTime:        ptr(codec.EncodeTime(order.PreparationStartTime)),
		Status:           ptr(codec.EncodeStatusField(order.Items)),
	}
	if err := s.writeOrder(ctx, butcher, orderNo, order, snapshot, patch); err != nil {
		s.revert(butcher.ID, snapshot)
		return nil, err
	}

	s.fetcher.InvalidateOrders(ctx, butcher.ID)
	if s.dispatch != nil {
		s.dispatch.OrderResponded(butcher, order.Clone())
	}
	if newStatus == domain.StatusRejected {
		// Terminal encoding is durable; drop the staging entry.
		s.cache.Remove(butcher.ID, orderNo)
	}

	s.log.Info().Str("butcher_id", butcher.ID).Str("order_id", order.ID).Str("status", string(newStatus)).Msg("order decisions applied")
	return order, nil
}

// Complete confirms final amounts, computes revenue exactly once and
// transitions the order to completed. The staging cache entry is dropped
// after the durable write.
func (s *Service) Complete(ctx context.Context, butcher domain.Butcher, orderNo int, finalAmounts map[string]string) (*domain.Order, error) {
	unlock := s.lockOrder(butcher.ID, orderNo)
	defer unlock()

	order, err := s.Get(ctx, butcher, orderNo)
	if err != nil {
		return nil, err
	}
	snapshot := order.Clone()

	if err := domain.Transition(order.Status, domain.StatusCompleted); err != nil {
		return nil, err
	}

	amounts := order.CapturedAmounts(butcher.Vendor)
	if amounts == nil {
		amounts = make(map[string]string)
	}
	for i := range order.Items {
		item := &order.Items[i]
		if item.IsRejected() {
			continue
		}
		if amount, ok := finalAmounts[item.Name]; ok {
			amount = trimmed(amount)
			if err := s.policy.ValidateAmount(*item, amount); err != nil {
				return nil, err
			}
			item.PreparingWeight = amount
			amounts[item.Name] = amount
		}
	}
	order.SetCapturedAmounts(butcher.Vendor, amounts)

	result, err := s.engine.Compute(ctx, butcher, order)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order.Status = domain.StatusCompleted
	order.PreparationEndTime = &now
	order.Revenue = result.Total
	order.ItemRevenues = result.Items
	order.PickedWeight = totalPicked(amounts)

	if err := s.cache.Put(butcher.ID, order); err != nil {
		return nil, err
	}
	patch := codec.RowPatch{
		PreparingAmounts: ptr(codec.EncodeAmountField(order.Items, amounts)),
		CompletionTime:   ptr(codec.EncodeTime(order.PreparationEndTime)),
		Status:           ptr(codec.EncodeStatusField(order.Items)),
		Revenue:          ptr(codec.EncodeRevenueField(order.Items, order.ItemRevenues)),
	}
	if err := s.writeOrder(ctx, butcher, orderNo, order, snapshot, patch); err != nil {
		s.revert(butcher.ID, snapshot)
		return nil, err
	}

	s.cache.Remove(butcher.ID, orderNo)
	s.fetcher.InvalidateOrders(ctx, butcher.ID)

	s.log.Info().Str("butcher_id", butcher.ID).Str("order_id", order.ID).Str("revenue", order.Revenue.StringFixed(2)).Msg("order completed")
	return order, nil
}

// Reject declines the whole order with one reason. Valid from new or
// preparing; the revenue engine is never invoked.
func (s *Service) Reject(ctx context.Context, butcher domain.Butcher, orderNo int, reason string) (*domain.Order, error) {
	reason = trimmed(reason)
	if reason == "" {
		return nil, domain.ErrEmptyReason
	}

	unlock := s.lockOrder(butcher.ID, orderNo)
	defer unlock()

	order, err := s.Get(ctx, butcher, orderNo)
	if err != nil {
		return nil, err
	}
	snapshot := order.Clone()

	if err := domain.Transition(order.Status, domain.StatusRejected); err != nil {
		return nil, err
	}

	for i := range order.Items {
		order.Items[i].Rejected = reason
		order.Items[i].PreparingWeight = ""
	}
	order.Status = domain.StatusRejected
	order.RejectionReason = reason

	if err := s.cache.Put(butcher.ID, order); err != nil {
		return nil, err
	}
	patch := codec.RowPatch{
		Status: ptr(codec.EncodeStatusField(order.Items)),
	}
	if err := s.writeOrder(ctx, butcher, orderNo, order, snapshot, patch); err != nil {
		s.revert(butcher.ID, snapshot)
		return nil, err
	}

	s.cache.Remove(butcher.ID, orderNo)
	s.fetcher.InvalidateOrders(ctx, butcher.ID)
	if s.dispatch != nil {
		s.dispatch.OrderResponded(butcher, order.Clone())
	}

	s.log.Info().Str("butcher_id", butcher.ID).Str("order_id", order.ID).Str("reason", reason).Msg("order rejected")
	return order, nil
}

// writeOrder applies the update with the missing-row policy: when the row
// is gone and the pre-update order already carried revenue or sat in a
// terminal state, the update is skipped rather than re-created (a
// re-append would duplicate the row); otherwise one lazy create is
// attempted before giving up.
func (s *Service) writeOrder(ctx context.Context, butcher domain.Butcher, orderNo int, order, snapshot *domain.Order, patch codec.RowPatch) error {
	err := s.store.UpdateOrderRow(ctx, butcher.ID, orderNo, patch)
	if err == nil {
		return nil
	}
	if !errors.Is(err, rowstore.ErrNotFound) {
		return fmt.Errorf("orders: update row %s/%d: %w", butcher.ID, orderNo, err)
	}

	if !snapshot.Revenue.IsZero() || snapshot.IsTerminal() {
		s.log.Warn().Str("butcher_id", butcher.ID).Int("order_no", orderNo).Msg("row missing for settled order, skipping update")
		return nil
	}

	row := codec.EncodeOrder(order, butcher.Vendor)
	if err := s.store.AppendOrderRow(ctx, butcher.ID, row); err != nil {
		return fmt.Errorf("orders: lazy-create row %s/%d: %w", butcher.ID, orderNo, err)
	}
	s.log.Info().Str("butcher_id", butcher.ID).Int("order_no", orderNo).Msg("row missing, lazily re-created")
	return nil
}

func (s *Service) revert(butcherID string, snapshot *domain.Order) {
	if err := s.cache.Put(butcherID, snapshot); err != nil {
		s.log.Error().Err(err).Str("butcher_id", butcherID).Str("order_id", snapshot.ID).Msg("failed to revert cache after write failure")
	}
}

func firstReason(items []domain.OrderItem) string {
	for _, item := range items {
		if item.IsRejected() {
			return item.Rejected
		}
	}
	return ""
}

func totalPicked(amounts map[string]string) float64 {
	total := 0.0
	for _, raw := range amounts {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			total += f
		}
	}
	return total
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func ptr(s string) *string { return &s }
