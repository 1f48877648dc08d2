package domain

import (
	"errors"
	"fmt"
)

type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusPreparing OrderStatus = "preparing"
	StatusCompleted OrderStatus = "completed"
	StatusRejected  OrderStatus = "rejected"
)

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusNew: {
		StatusPreparing: true,
		StatusRejected:  true,
	},
	StatusPreparing: {
		StatusCompleted: true,
		StatusRejected:  true,
	},
	StatusCompleted: {},
	StatusRejected:  {},
}

var (
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to OrderStatus) bool {
	next, ok := allowedTransitions[from]
	return ok && next[to]
}

// Transition validates from -> to and returns a wrapped ErrInvalidTransition
// naming both states when the change is not allowed.
func Transition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// DeriveStatus folds item-level outcomes into the aggregate status: rejected
// iff every item carries a rejection reason, otherwise the accepted status.
// The fold is order-independent. An empty item set is invalid.
func DeriveStatus(items []OrderItem, accepted OrderStatus) (OrderStatus, error) {
	if len(items) == 0 {
		return "", ErrEmptyOrder
	}
	for _, item := range items {
		if !item.IsRejected() {
			return accepted, nil
		}
	}
	return StatusRejected, nil
}
