package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInsufficientBuffer     = errors.New("insufficient unreserved buffer stock")
	ErrCounterInvariant       = errors.New("stock counter invariant violated")
	ErrVersionConflict        = errors.New("stock item was modified concurrently")
	ErrConcurrentModification = errors.New("stock item update retries exhausted")
	ErrDuplicateSKU           = errors.New("item with this sku already exists")
)

// StockItem is the stock ledger row for one sellable item. It is the single
// source of truth for availability and the only shared mutable document in
// the allocation core.
//
// Counter semantics:
//   - Quantity is on-hand stock; reservations only earmark it (ReservedQuantity),
//     the physical units stay counted until fulfillment.
//   - BufferStock is the secondary/incoming pool; reserving from it shrinks the
//     pool immediately so it cannot be double-promised before it is counted in.
type StockItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SKU         string             `bson:"sku" json:"sku"`
	ProductName string             `bson:"productName" json:"productName"`
	UnitPrice   Money              `bson:"unitPrice" json:"unitPrice"`

	Quantity         int `bson:"quantity" json:"quantity"`
	BufferStock      int `bson:"bufferStock" json:"bufferStock"`
	ReservedQuantity int `bson:"reservedQuantity" json:"reservedQuantity"`
	ReservedBuffer   int `bson:"reservedBuffer" json:"reservedBuffer"`

	// Version is the optimistic-concurrency token. Every counter update is
	// conditional on the version read and increments it.
	Version int64 `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewStockItem creates a stock item with an opening balance.
func NewStockItem(sku, productName string, unitPrice Money, openingQty, openingBuffer int) (*StockItem, error) {
	if sku == "" {
		return nil, errors.New("sku is required")
	}
	if openingQty < 0 || openingBuffer < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &StockItem{
		SKU:          sku,
		ProductName:  productName,
		UnitPrice:    unitPrice,
		Quantity:     openingQty,
		BufferStock:  openingBuffer,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}, nil
}

// AvailableStock returns on-hand units not yet earmarked by open orders.
func (i *StockItem) AvailableStock() int {
	return i.Quantity - i.ReservedQuantity
}

// AvailableBuffer returns buffer units not yet earmarked. The pool shrinks at
// reserve time while the marker remains until fulfillment, so the difference
// is clamped at zero.
func (i *StockItem) AvailableBuffer() int {
	if available := i.BufferStock - i.ReservedBuffer; available > 0 {
		return available
	}
	return 0
}

// AvailableToPromise is the total quantity a new reservation could obtain.
func (i *StockItem) AvailableToPromise() int {
	return i.AvailableStock() + i.AvailableBuffer()
}

// Snapshot captures the four counters for movement before/after records.
func (i *StockItem) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Quantity:         i.Quantity,
		BufferStock:      i.BufferStock,
		ReservedQuantity: i.ReservedQuantity,
		ReservedBuffer:   i.ReservedBuffer,
	}
}

// ApplyAllocation commits an allocation split against the ledger: the stock
// portion is earmarked, the buffer portion is earmarked and the buffer pool
// shrinks by the same amount.
func (i *StockItem) ApplyAllocation(split AllocationSplit) error {
	if split.StockTaken < 0 || split.BufferTaken < 0 {
		return ErrInvalidQuantity
	}

	i.ReservedQuantity += split.StockTaken
	i.ReservedBuffer += split.BufferTaken
	i.BufferStock -= split.BufferTaken
	i.UpdatedAt = time.Now().UTC()

	return i.checkInvariants()
}

// ReleaseAllocation reverses exactly what ApplyAllocation did, restoring the
// buffer pool that was shrunk at reserve time. Used by order cancellation.
func (i *StockItem) ReleaseAllocation(split AllocationSplit) error {
	if split.StockTaken < 0 || split.BufferTaken < 0 {
		return ErrInvalidQuantity
	}

	i.ReservedQuantity -= split.StockTaken
	i.ReservedBuffer -= split.BufferTaken
	i.BufferStock += split.BufferTaken
	i.UpdatedAt = time.Now().UTC()

	return i.checkInvariants()
}

// ApplyFulfillment permanently deducts a previously reserved split. The stock
// portion leaves both Quantity and ReservedQuantity; the buffer pool was
// already decremented at reserve time, so only its reservation marker clears.
func (i *StockItem) ApplyFulfillment(split AllocationSplit) error {
	if split.StockTaken < 0 || split.BufferTaken < 0 {
		return ErrInvalidQuantity
	}

	i.Quantity -= split.StockTaken
	i.ReservedQuantity -= split.StockTaken
	i.ReservedBuffer -= split.BufferTaken
	i.UpdatedAt = time.Now().UTC()

	return i.checkInvariants()
}

// AddBuffer records incoming supply into the buffer pool.
func (i *StockItem) AddBuffer(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	i.BufferStock += quantity
	i.UpdatedAt = time.Now().UTC()

	i.AddDomainEvent(&StockReceivedEvent{
		SKU:        i.SKU,
		Quantity:   quantity,
		Pool:       "buffer",
		ReceivedAt: i.UpdatedAt,
	})

	return i.checkInvariants()
}

// TransferBuffer moves counted-in buffer units into on-hand stock. Only the
// unreserved portion of the buffer may transfer.
func (i *StockItem) TransferBuffer(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > i.AvailableBuffer() {
		return ErrInsufficientBuffer
	}

	i.BufferStock -= quantity
	i.Quantity += quantity
	i.UpdatedAt = time.Now().UTC()

	i.AddDomainEvent(&StockReceivedEvent{
		SKU:        i.SKU,
		Quantity:   quantity,
		Pool:       "stock",
		ReceivedAt: i.UpdatedAt,
	})

	return i.checkInvariants()
}

// checkInvariants fails loudly on any negative or over-reserved counter. A
// violation indicates a concurrency bug, never a business condition, so it is
// surfaced as an error rather than clamped.
func (i *StockItem) checkInvariants() error {
	if i.ReservedQuantity < 0 || i.ReservedQuantity > i.Quantity {
		return fmt.Errorf("%w: sku=%s reservedQuantity=%d quantity=%d",
			ErrCounterInvariant, i.SKU, i.ReservedQuantity, i.Quantity)
	}
	// The buffer pool shrinks at reserve time while its reservation marker
	// grows, so the two counters are disjoint; only non-negativity holds.
	if i.ReservedBuffer < 0 || i.BufferStock < 0 {
		return fmt.Errorf("%w: sku=%s reservedBuffer=%d bufferStock=%d",
			ErrCounterInvariant, i.SKU, i.ReservedBuffer, i.BufferStock)
	}
	return nil
}

func (i *StockItem) AddDomainEvent(event DomainEvent) {
	i.DomainEvents = append(i.DomainEvents, event)
}

func (i *StockItem) ClearDomainEvents() {
	i.DomainEvents = make([]DomainEvent, 0)
}

func (i *StockItem) GetDomainEvents() []DomainEvent {
	return i.DomainEvents
}
