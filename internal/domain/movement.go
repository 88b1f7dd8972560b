package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementDeliver       MovementType = "deliver"
	MovementAddBuffer     MovementType = "add-buffer"
	MovementTransfer      MovementType = "transfer"
	MovementReserveStock  MovementType = "reserve_stock"
	MovementReserveBuffer MovementType = "reserve_buffer"
)

// CounterSnapshot freezes the four ledger counters of a stock item at a point
// in time. Movements carry one snapshot from before and one from after the
// mutation they record.
type CounterSnapshot struct {
	Quantity         int `bson:"quantity" json:"quantity"`
	BufferStock      int `bson:"bufferStock" json:"bufferStock"`
	ReservedQuantity int `bson:"reservedQuantity" json:"reservedQuantity"`
	ReservedBuffer   int `bson:"reservedBuffer" json:"reservedBuffer"`
}

// StockMovement is the append-only audit record of one counter change. It is
// never mutated after creation. The ledger and order state stay authoritative
// even if a movement write fails; movements exist for audit and debugging.
type StockMovement struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	MovementID string             `bson:"movementId" json:"movementId"`
	SKU        string             `bson:"sku" json:"sku"`
	Type       MovementType       `bson:"type" json:"type"`

	// Amount is signed: positive for reservations and intake, negative for
	// fulfillment deductions.
	Amount int             `bson:"amount" json:"amount"`
	Before CounterSnapshot `bson:"before" json:"before"`
	After  CounterSnapshot `bson:"after" json:"after"`

	// ReferenceID links the movement to the order (or intake request) that
	// caused it.
	ReferenceID string    `bson:"referenceId,omitempty" json:"referenceId,omitempty"`
	Actor       string    `bson:"actor" json:"actor"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// NewStockMovement creates a movement record from a before/after counter pair.
func NewStockMovement(movementID, sku string, movementType MovementType, amount int, before, after CounterSnapshot, referenceID, actor string) *StockMovement {
	return &StockMovement{
		MovementID:  movementID,
		SKU:         sku,
		Type:        movementType,
		Amount:      amount,
		Before:      before,
		After:       after,
		ReferenceID: referenceID,
		Actor:       actor,
		CreatedAt:   time.Now().UTC(),
	}
}
