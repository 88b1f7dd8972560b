package domain

import "time"

// DomainEvent is the interface for all domain events.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// StockReservedEvent is published when a reservation earmarks stock.
type StockReservedEvent struct {
	SKU         string    `json:"sku"`
	OrderID     string    `json:"orderId"`
	StockTaken  int       `json:"stockTaken"`
	BufferTaken int       `json:"bufferTaken"`
	Unfulfilled int       `json:"unfulfilled"`
	ReservedAt  time.Time `json:"reservedAt"`
}

func (e *StockReservedEvent) EventType() string     { return "inventory.stock.reserved" }
func (e *StockReservedEvent) OccurredAt() time.Time { return e.ReservedAt }

// DemandRecordedEvent is published when a reservation leaves a shortfall.
type DemandRecordedEvent struct {
	DemandID   string       `json:"demandId"`
	OrderID    string       `json:"orderId"`
	FollowUpID string       `json:"followUpId"`
	Lines      []DemandLine `json:"lines"`
	RecordedAt time.Time    `json:"recordedAt"`
}

func (e *DemandRecordedEvent) EventType() string     { return "inventory.demand.recorded" }
func (e *DemandRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// OrderFulfilledEvent is published when a reserved order is delivered.
type OrderFulfilledEvent struct {
	OrderID     string    `json:"orderId"`
	FollowUpID  string    `json:"followUpId"`
	FulfilledAt time.Time `json:"fulfilledAt"`
}

func (e *OrderFulfilledEvent) EventType() string     { return "inventory.order.fulfilled" }
func (e *OrderFulfilledEvent) OccurredAt() time.Time { return e.FulfilledAt }

// OrderCancelledEvent is published when a reserved order is cancelled and its
// allocations released.
type OrderCancelledEvent struct {
	OrderID     string    `json:"orderId"`
	FollowUpID  string    `json:"followUpId"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *OrderCancelledEvent) EventType() string     { return "inventory.order.cancelled" }
func (e *OrderCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// StockReceivedEvent is published when intake adds supply to a pool.
type StockReceivedEvent struct {
	SKU        string    `json:"sku"`
	Quantity   int       `json:"quantity"`
	Pool       string    `json:"pool"` // "stock" or "buffer"
	ReceivedAt time.Time `json:"receivedAt"`
}

func (e *StockReceivedEvent) EventType() string     { return "inventory.stock.received" }
func (e *StockReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }
