package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DemandLine is the outstanding quantity still owed for one item.
type DemandLine struct {
	SKU            string `bson:"sku" json:"sku"`
	UnfulfilledQty int    `bson:"unfulfilledQty" json:"unfulfilledQty"`
}

// Demand records the shortfall of a reservation: quantities that were
// requested but could not be allocated. It is created only when an order has
// at least one short line, and resolved by a later restock or cleared when
// the order is cancelled.
type Demand struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	DemandID   string             `bson:"demandId" json:"demandId"`
	OrderID    string             `bson:"orderId" json:"orderId"`
	FollowUpID string             `bson:"followUpId" json:"followUpId"`
	Lines      []DemandLine       `bson:"lines" json:"lines"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewDemandFromOrder builds the demand record for an order's short lines.
// Returns nil when the order has no shortfall.
func NewDemandFromOrder(demandID string, order *Order) *Demand {
	lines := make([]DemandLine, 0)
	for _, line := range order.Lines {
		if line.Unfulfilled() > 0 {
			lines = append(lines, DemandLine{
				SKU:            line.SKU,
				UnfulfilledQty: line.Unfulfilled(),
			})
		}
	}
	if len(lines) == 0 {
		return nil
	}

	return &Demand{
		DemandID:   demandID,
		OrderID:    order.OrderID,
		FollowUpID: order.FollowUpID,
		Lines:      lines,
		CreatedAt:  time.Now().UTC(),
	}
}
