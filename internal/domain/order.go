package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrOrderNotReserved = errors.New("order is not in reserved status")
	ErrOrderCancelled   = errors.New("order has been cancelled")
	ErrOrderFulfilled   = errors.New("order has already been fulfilled")
)

// OrderStatus represents the reservation lifecycle of an order.
type OrderStatus string

const (
	OrderStatusReserved  OrderStatus = "reserved"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderLine records one requested item and the allocation the ledger granted.
// The stock/buffer split is kept so fulfillment and cancellation can reverse
// or deduct exactly what was reserved.
type OrderLine struct {
	SKU          string          `bson:"sku" json:"sku"`
	RequestedQty int             `bson:"requestedQty" json:"requestedQty"`
	Allocation   AllocationSplit `bson:"allocation" json:"allocation"`

	// Fulfilled marks a line whose ledger deduction has been claimed by a
	// fulfillment run, making a crashed or repeated run resumable without
	// double-deducting.
	Fulfilled bool `bson:"fulfilled" json:"-"`
}

// AllocatedQty is the total quantity reserved for this line.
func (l OrderLine) AllocatedQty() int {
	return l.Allocation.Allocated()
}

// Unfulfilled is the shortfall for this line at reservation time.
func (l OrderLine) Unfulfilled() int {
	return l.Allocation.Unfulfilled
}

// Order groups the allocation results of one reservation request. It owns its
// lines exclusively until it reaches a terminal status.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrderID    string             `bson:"orderId" json:"orderId"`
	FollowUpID string             `bson:"followUpId" json:"followUpId"`
	Lines      []OrderLine        `bson:"lines" json:"lines"`
	Status     OrderStatus        `bson:"status" json:"status"`

	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	FulfilledAt *time.Time `bson:"fulfilledAt,omitempty" json:"fulfilledAt,omitempty"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewOrder creates a reserved order for a follow-up record.
func NewOrder(orderID, followUpID, createdBy string, lines []OrderLine) *Order {
	now := time.Now().UTC()
	return &Order{
		OrderID:      orderID,
		FollowUpID:   followUpID,
		Lines:        lines,
		Status:       OrderStatusReserved,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}
}

// HasShortfall reports whether any line could not be fully allocated.
func (o *Order) HasShortfall() bool {
	for _, line := range o.Lines {
		if line.Unfulfilled() > 0 {
			return true
		}
	}
	return false
}

// MarkFulfilled transitions reserved → fulfilled.
func (o *Order) MarkFulfilled() error {
	switch o.Status {
	case OrderStatusReserved:
	case OrderStatusFulfilled:
		return ErrOrderFulfilled
	case OrderStatusCancelled:
		return ErrOrderCancelled
	default:
		return ErrOrderNotReserved
	}

	now := time.Now().UTC()
	o.Status = OrderStatusFulfilled
	o.FulfilledAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(&OrderFulfilledEvent{
		OrderID:     o.OrderID,
		FollowUpID:  o.FollowUpID,
		FulfilledAt: now,
	})

	return nil
}

// MarkCancelled transitions reserved → cancelled.
func (o *Order) MarkCancelled() error {
	switch o.Status {
	case OrderStatusReserved:
	case OrderStatusFulfilled:
		return ErrOrderFulfilled
	case OrderStatusCancelled:
		return ErrOrderCancelled
	default:
		return ErrOrderNotReserved
	}

	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now().UTC()

	o.AddDomainEvent(&OrderCancelledEvent{
		OrderID:     o.OrderID,
		FollowUpID:  o.FollowUpID,
		CancelledAt: o.UpdatedAt,
	})

	return nil
}

func (o *Order) AddDomainEvent(event DomainEvent) {
	o.DomainEvents = append(o.DomainEvents, event)
}

func (o *Order) ClearDomainEvents() {
	o.DomainEvents = make([]DomainEvent, 0)
}

func (o *Order) GetDomainEvents() []DomainEvent {
	return o.DomainEvents
}
