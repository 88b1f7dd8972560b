package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockItem(t *testing.T) {
	price, err := NewMoney(1250, "USD")
	require.NoError(t, err)

	item, err := NewStockItem("SKU-001", "Test Product", price, 10, 4)
	require.NoError(t, err)

	assert.Equal(t, "SKU-001", item.SKU)
	assert.Equal(t, "Test Product", item.ProductName)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, 4, item.BufferStock)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 0, item.ReservedBuffer)
	assert.Equal(t, int64(1), item.Version)
	assert.Equal(t, 14, item.AvailableToPromise())
	assert.NotZero(t, item.CreatedAt)
}

func TestNewStockItemValidation(t *testing.T) {
	_, err := NewStockItem("", "No SKU", ZeroMoney("USD"), 1, 0)
	assert.Error(t, err)

	_, err = NewStockItem("SKU-001", "Negative", ZeroMoney("USD"), -1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

// TestApplyAllocation covers the reserve-time counter mutations: stock is
// earmarked only, buffer shrinks the moment it is reserved.
func TestApplyAllocation(t *testing.T) {
	item := newTestItem(t, 5, 2)

	split, err := PlanAllocation(item, 6)
	require.NoError(t, err)
	require.NoError(t, item.ApplyAllocation(split))

	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 5, item.ReservedQuantity)
	assert.Equal(t, 1, item.BufferStock)
	assert.Equal(t, 1, item.ReservedBuffer)
	assert.Equal(t, 0, item.AvailableToPromise())
}

func TestReleaseAllocationRestoresCounters(t *testing.T) {
	item := newTestItem(t, 5, 2)
	split, err := PlanAllocation(item, 6)
	require.NoError(t, err)
	require.NoError(t, item.ApplyAllocation(split))

	require.NoError(t, item.ReleaseAllocation(split))

	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 2, item.BufferStock)
	assert.Equal(t, 0, item.ReservedBuffer)
	assert.Equal(t, 7, item.AvailableToPromise())
}

func TestApplyFulfillment(t *testing.T) {
	item := newTestItem(t, 5, 2)
	split, err := PlanAllocation(item, 6)
	require.NoError(t, err)
	require.NoError(t, item.ApplyAllocation(split))

	require.NoError(t, item.ApplyFulfillment(split))

	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 1, item.BufferStock)
	assert.Equal(t, 0, item.ReservedBuffer)
}

// TestInvariantViolationsFailLoudly ensures negative or over-reserved counters
// are surfaced as errors, never clamped.
func TestInvariantViolationsFailLoudly(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(item *StockItem) error
		qty     int
		buffer  int
	}{
		{
			name: "Fulfilling more than reserved",
			qty:  5, buffer: 0,
			mutate: func(item *StockItem) error {
				return item.ApplyFulfillment(AllocationSplit{StockTaken: 3})
			},
		},
		{
			name: "Releasing more than reserved",
			qty:  5, buffer: 0,
			mutate: func(item *StockItem) error {
				return item.ReleaseAllocation(AllocationSplit{StockTaken: 1})
			},
		},
		{
			name: "Reserving buffer that does not exist",
			qty:  0, buffer: 1,
			mutate: func(item *StockItem) error {
				return item.ApplyAllocation(AllocationSplit{BufferTaken: 2})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newTestItem(t, tt.qty, tt.buffer)
			err := tt.mutate(item)
			assert.ErrorIs(t, err, ErrCounterInvariant)
		})
	}
}

func TestAddBuffer(t *testing.T) {
	item := newTestItem(t, 0, 0)

	require.NoError(t, item.AddBuffer(10))
	assert.Equal(t, 10, item.BufferStock)
	assert.Len(t, item.GetDomainEvents(), 1)

	assert.ErrorIs(t, item.AddBuffer(0), ErrInvalidQuantity)
	assert.ErrorIs(t, item.AddBuffer(-5), ErrInvalidQuantity)
}

func TestTransferBuffer(t *testing.T) {
	item := newTestItem(t, 2, 8)

	require.NoError(t, item.TransferBuffer(5))
	assert.Equal(t, 7, item.Quantity)
	assert.Equal(t, 3, item.BufferStock)

	// Reserved buffer units may not transfer.
	item.ReservedBuffer = 3
	err := item.TransferBuffer(1)
	assert.ErrorIs(t, err, ErrInsufficientBuffer)

	assert.ErrorIs(t, item.TransferBuffer(0), ErrInvalidQuantity)
}

func TestSnapshot(t *testing.T) {
	item := newTestItem(t, 5, 2)
	split, err := PlanAllocation(item, 6)
	require.NoError(t, err)

	before := item.Snapshot()
	require.NoError(t, item.ApplyAllocation(split))
	after := item.Snapshot()

	assert.Equal(t, CounterSnapshot{Quantity: 5, BufferStock: 2}, before)
	assert.Equal(t, CounterSnapshot{Quantity: 5, BufferStock: 1, ReservedQuantity: 5, ReservedBuffer: 1}, after)
}
