package domain

import (
	"context"
	"time"
)

// StockItemRepository persists the stock ledger.
type StockItemRepository interface {
	// Insert creates a new item; returns ErrDuplicateSKU when the SKU exists.
	Insert(ctx context.Context, item *StockItem) error

	// FindBySKU returns nil, nil when the item does not exist.
	FindBySKU(ctx context.Context, sku string) (*StockItem, error)

	FindAll(ctx context.Context, limit, offset int) ([]*StockItem, error)

	// Update writes the item's counters conditionally on the version it was
	// read at, incrementing the version. Returns ErrVersionConflict when a
	// concurrent writer got there first.
	Update(ctx context.Context, item *StockItem) error
}

// OrderRepository persists reservation orders.
type OrderRepository interface {
	Insert(ctx context.Context, order *Order) error

	// FindByID returns nil, nil when the order does not exist.
	FindByID(ctx context.Context, orderID string) (*Order, error)

	FindByFollowUp(ctx context.Context, followUpID string) ([]*Order, error)

	// TransitionStatus atomically moves an order between statuses; reports
	// false when the order was not in the expected source status.
	TransitionStatus(ctx context.Context, orderID string, from, to OrderStatus, fulfilledAt *time.Time) (bool, error)

	// ClaimLine atomically marks an order line as fulfilled; reports false
	// when the line was already claimed by another fulfillment run.
	ClaimLine(ctx context.Context, orderID, sku string) (bool, error)

	// ReleaseClaim reverses ClaimLine for a line whose deduction did not
	// commit; reports false when the line was not claimed.
	ReleaseClaim(ctx context.Context, orderID, sku string) (bool, error)
}

// DemandRepository persists shortfall records.
type DemandRepository interface {
	Insert(ctx context.Context, demand *Demand) error

	// FindByOrderID returns nil, nil when the order has no demand.
	FindByOrderID(ctx context.Context, orderID string) (*Demand, error)

	FindOpen(ctx context.Context, limit, offset int) ([]*Demand, error)

	DeleteByOrderID(ctx context.Context, orderID string) error
}

// MovementRepository is the append-only movement log.
type MovementRepository interface {
	Insert(ctx context.Context, movement *StockMovement) error

	FindBySKU(ctx context.Context, sku string, limit, offset int) ([]*StockMovement, error)
}

// EventPublisher publishes domain events to interested consumers. Publishing
// is best-effort; callers must not fail primary mutations on publish errors.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	PublishAll(ctx context.Context, events []DomainEvent) error
}
