package notify

import (
	"context"

	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/orderid"
)

// OrderResponseItem is one finalized item decision sent to the dispatch
// service: either an accepted amount or a rejection reason.
type OrderResponseItem struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	AcceptedAmount string `json:"accepted_amount,omitempty"`
	RejectedReason string `json:"rejected_reason,omitempty"`
}

type OrderResponse struct {
	ButcherID string              `json:"butcher_id"`
	OrderNo   int                 `json:"order_no"`
	Status    string              `json:"status"`
	Items     []OrderResponseItem `json:"items"`
}

type CatalogChanged struct {
	ButcherID string `json:"butcher_id"`
}

type Publisher interface {
	PublishOrderResponse(ctx context.Context, msg OrderResponse) error
	PublishCatalogChanged(ctx context.Context, msg CatalogChanged) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishOrderResponse(context.Context, OrderResponse) error { return nil }

func (NoopPublisher) PublishCatalogChanged(context.Context, CatalogChanged) error { return nil }

// Dispatch adapts the queue + publisher pair to the order service's
// Dispatcher interface.
type Dispatch struct {
	queue *Queue
	pub   Publisher
}

func NewDispatch(queue *Queue, pub Publisher) *Dispatch {
	return &Dispatch{queue: queue, pub: pub}
}

func (d *Dispatch) OrderResponded(butcher domain.Butcher, order *domain.Order) {
	seq, err := orderid.Seq(order.ID)
	if err != nil {
		return
	}
	msg := OrderResponse{
		ButcherID: butcher.ID,
		OrderNo:   seq,
		Status:    string(order.Status),
		Items:     make([]OrderResponseItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		msg.Items = append(msg.Items, OrderResponseItem{
			ItemID:         item.ID,
			Name:           item.Name,
			AcceptedAmount: item.PreparingWeight,
			RejectedReason: item.Rejected,
		})
	}
	d.queue.Enqueue("order-response", func(ctx context.Context) error {
		return d.pub.PublishOrderResponse(ctx, msg)
	})
}

func (d *Dispatch) CatalogChanged(butcherID string) {
	msg := CatalogChanged{ButcherID: butcherID}
	d.queue.Enqueue("catalog-changed", func(ctx context.Context) error {
		return d.pub.PublishCatalogChanged(ctx, msg)
	})
}
