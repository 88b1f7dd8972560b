package domain

// AllocationSplit is the outcome of allocating a requested quantity against
// one item's ledger state: how much comes from on-hand stock, how much from
// the buffer pool, and how much cannot be satisfied at all.
type AllocationSplit struct {
	StockTaken  int `bson:"stockTaken" json:"stockTaken"`
	BufferTaken int `bson:"bufferTaken" json:"bufferTaken"`
	Unfulfilled int `bson:"unfulfilled" json:"unfulfilled"`
}

// Allocated returns the total quantity actually reserved.
func (s AllocationSplit) Allocated() int {
	return s.StockTaken + s.BufferTaken
}

// PlanAllocation computes the stock-first greedy split for a requested
// quantity against the item's current counters. It is pure: callers in
// preview mode use the result as-is, commit mode applies it with
// StockItem.ApplyAllocation.
func PlanAllocation(item *StockItem, requestedQty int) (AllocationSplit, error) {
	if requestedQty <= 0 {
		return AllocationSplit{}, ErrInvalidQuantity
	}

	availableStock := item.AvailableStock()
	if availableStock < 0 {
		availableStock = 0
	}

	stockTaken := requestedQty
	if stockTaken > availableStock {
		stockTaken = availableStock
	}
	remaining := requestedQty - stockTaken

	availableBuffer := item.AvailableBuffer()
	if availableBuffer < 0 {
		availableBuffer = 0
	}

	bufferTaken := remaining
	if bufferTaken > availableBuffer {
		bufferTaken = availableBuffer
	}

	return AllocationSplit{
		StockTaken:  stockTaken,
		BufferTaken: bufferTaken,
		Unfulfilled: remaining - bufferTaken,
	}, nil
}
