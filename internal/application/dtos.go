package application

import "time"

// MoneyDTO represents a monetary value in responses
type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// StockItemDTO represents a stock item in responses
type StockItemDTO struct {
	SKU              string    `json:"sku"`
	ProductName      string    `json:"productName"`
	UnitPrice        MoneyDTO  `json:"unitPrice"`
	Quantity         int       `json:"quantity"`
	BufferStock      int       `json:"bufferStock"`
	ReservedQuantity int       `json:"reservedQuantity"`
	ReservedBuffer   int       `json:"reservedBuffer"`
	AvailableStock   int       `json:"availableStock"`
	AvailableBuffer  int       `json:"availableBuffer"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AllocationDTO represents the stock/buffer split granted to one line
type AllocationDTO struct {
	StockTaken  int `json:"stockTaken"`
	BufferTaken int `json:"bufferTaken"`
	Unfulfilled int `json:"unfulfilled"`
}

// OrderLineDTO represents one line of a reservation order
type OrderLineDTO struct {
	SKU          string        `json:"sku"`
	RequestedQty int           `json:"requestedQty"`
	Allocation   AllocationDTO `json:"allocation"`
}

// OrderDTO represents a reservation order in responses
type OrderDTO struct {
	OrderID     string         `json:"orderId"`
	FollowUpID  string         `json:"followUpId"`
	Lines       []OrderLineDTO `json:"lines"`
	Status      string         `json:"status"`
	CreatedBy   string         `json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	FulfilledAt *time.Time     `json:"fulfilledAt,omitempty"`
}

// ReservationResultDTO is the outcome of a committed reservation: the order
// plus the demand record when the allocation left a shortfall.
type ReservationResultDTO struct {
	Order  *OrderDTO  `json:"order"`
	Demand *DemandDTO `json:"demand,omitempty"`
}

// PreviewLineDTO represents the allocation one line would receive
type PreviewLineDTO struct {
	SKU          string        `json:"sku"`
	RequestedQty int           `json:"requestedQty"`
	Allocation   AllocationDTO `json:"allocation"`
}

// PreviewDTO represents a dry-run allocation result
type PreviewDTO struct {
	Lines        []PreviewLineDTO `json:"lines"`
	FullyCovered bool             `json:"fullyCovered"`
}

// DemandLineDTO represents the outstanding quantity for one item
type DemandLineDTO struct {
	SKU            string `json:"sku"`
	UnfulfilledQty int    `json:"unfulfilledQty"`
}

// DemandDTO represents a shortfall record in responses
type DemandDTO struct {
	DemandID   string          `json:"demandId"`
	OrderID    string          `json:"orderId"`
	FollowUpID string          `json:"followUpId"`
	Lines      []DemandLineDTO `json:"lines"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// CounterSnapshotDTO represents a frozen view of the ledger counters
type CounterSnapshotDTO struct {
	Quantity         int `json:"quantity"`
	BufferStock      int `json:"bufferStock"`
	ReservedQuantity int `json:"reservedQuantity"`
	ReservedBuffer   int `json:"reservedBuffer"`
}

// MovementDTO represents a stock movement in responses
type MovementDTO struct {
	MovementID  string             `json:"movementId"`
	SKU         string             `json:"sku"`
	Type        string             `json:"type"`
	Amount      int                `json:"amount"`
	Before      CounterSnapshotDTO `json:"before"`
	After       CounterSnapshotDTO `json:"after"`
	ReferenceID string             `json:"referenceId,omitempty"`
	Actor       string             `json:"actor"`
	CreatedAt   time.Time          `json:"createdAt"`
}
