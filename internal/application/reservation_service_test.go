package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bizops-platform/inventory-service/pkg/errors"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

func TestReserve_StockFirstSplit(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 6}},
		Actor:      "alice",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Order)

	line := result.Order.Lines[0]
	assert.Equal(t, 5, line.Allocation.StockTaken)
	assert.Equal(t, 1, line.Allocation.BufferTaken)
	assert.Equal(t, 0, line.Allocation.Unfulfilled)
	assert.Equal(t, string(domain.OrderStatusReserved), result.Order.Status)
	assert.Nil(t, result.Demand)

	item, err := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 1, item.BufferStock)
	assert.Equal(t, 5, item.ReservedQuantity)
	assert.Equal(t, 1, item.ReservedBuffer)
}

func TestReserve_ShortfallCreatesDemand(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 10}},
		Actor:      "alice",
	})
	require.NoError(t, err)

	line := result.Order.Lines[0]
	assert.Equal(t, 5, line.Allocation.StockTaken)
	assert.Equal(t, 2, line.Allocation.BufferTaken)
	assert.Equal(t, 3, line.Allocation.Unfulfilled)

	require.NotNil(t, result.Demand)
	require.Len(t, result.Demand.Lines, 1)
	assert.Equal(t, "SKU-ALPHA", result.Demand.Lines[0].SKU)
	assert.Equal(t, 3, result.Demand.Lines[0].UnfulfilledQty)

	stored, err := deps.demands.FindByOrderID(context.Background(), result.Order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestReserve_MultiLine(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 10, 0)
	seedItem(deps, "SKU-BETA", 0, 4)
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-200",
		Lines: []ReserveLine{
			{SKU: "SKU-ALPHA", Quantity: 3},
			{SKU: "SKU-BETA", Quantity: 4},
		},
		Actor: "alice",
	})
	require.NoError(t, err)
	require.Len(t, result.Order.Lines, 2)

	assert.Equal(t, 3, result.Order.Lines[0].Allocation.StockTaken)
	assert.Equal(t, 0, result.Order.Lines[0].Allocation.BufferTaken)
	assert.Equal(t, 0, result.Order.Lines[1].Allocation.StockTaken)
	assert.Equal(t, 4, result.Order.Lines[1].Allocation.BufferTaken)

	beta, _ := deps.stock.FindBySKU(context.Background(), "SKU-BETA")
	assert.Equal(t, 0, beta.BufferStock)
	assert.Equal(t, 4, beta.ReservedBuffer)
}

func TestReserve_UnknownSKULeavesCountersUntouched(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	_, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines: []ReserveLine{
			{SKU: "SKU-ALPHA", Quantity: 2},
			{SKU: "SKU-MISSING", Quantity: 1},
		},
		Actor: "alice",
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Empty(t, deps.orders.orders)
}

func TestReserve_Validation(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	tests := []struct {
		name string
		cmd  ReserveCommand
	}{
		{
			name: "missing follow-up id",
			cmd:  ReserveCommand{Lines: []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 1}}},
		},
		{
			name: "no lines",
			cmd:  ReserveCommand{FollowUpID: "FU-1"},
		},
		{
			name: "zero quantity",
			cmd:  ReserveCommand{FollowUpID: "FU-1", Lines: []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 0}}},
		},
		{
			name: "negative quantity",
			cmd:  ReserveCommand{FollowUpID: "FU-1", Lines: []ReserveLine{{SKU: "SKU-ALPHA", Quantity: -2}}},
		},
		{
			name: "duplicate sku",
			cmd: ReserveCommand{FollowUpID: "FU-1", Lines: []ReserveLine{
				{SKU: "SKU-ALPHA", Quantity: 1},
				{SKU: "SKU-ALPHA", Quantity: 2},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(context.Background(), tt.cmd)
			require.Error(t, err)

			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
		})
	}
}

func TestReserve_RetriesOnVersionConflict(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	deps.stock.conflictsRemaining = 2
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}},
		Actor:      "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Order.Lines[0].Allocation.StockTaken)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 3, item.ReservedQuantity)
	assert.Equal(t, 3, deps.stock.updateCalls)
}

func TestReserve_ConflictRetriesExhausted(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	deps.stock.conflictsRemaining = maxCounterRetries + 1
	svc := deps.reservationService()

	_, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}},
		Actor:      "alice",
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Empty(t, deps.orders.orders)
}

func TestReserve_MovementsRecorded(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 6}},
		Actor:      "alice",
	})
	require.NoError(t, err)

	stockMoves := deps.movements.byType(domain.MovementReserveStock)
	require.Len(t, stockMoves, 1)
	assert.Equal(t, 5, stockMoves[0].Amount)
	assert.Equal(t, result.Order.OrderID, stockMoves[0].ReferenceID)
	assert.Equal(t, "alice", stockMoves[0].Actor)
	assert.Equal(t, 0, stockMoves[0].Before.ReservedQuantity)
	assert.Equal(t, 5, stockMoves[0].After.ReservedQuantity)

	bufferMoves := deps.movements.byType(domain.MovementReserveBuffer)
	require.Len(t, bufferMoves, 1)
	assert.Equal(t, 1, bufferMoves[0].Amount)
	assert.Equal(t, 2, bufferMoves[0].Before.BufferStock)
	assert.Equal(t, 1, bufferMoves[0].After.BufferStock)
}

func TestReserve_MovementWriteFailureIsNonFatal(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	deps.movements.insertErr = assert.AnError
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}},
		Actor:      "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Order.Lines[0].Allocation.StockTaken)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 3, item.ReservedQuantity)
}

func TestPreview_DoesNotWrite(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	preview, err := svc.Preview(context.Background(), PreviewCommand{
		Lines: []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 10}},
	})
	require.NoError(t, err)

	require.Len(t, preview.Lines, 1)
	assert.Equal(t, 5, preview.Lines[0].Allocation.StockTaken)
	assert.Equal(t, 2, preview.Lines[0].Allocation.BufferTaken)
	assert.Equal(t, 3, preview.Lines[0].Allocation.Unfulfilled)
	assert.False(t, preview.FullyCovered)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 0, item.ReservedBuffer)
	assert.Equal(t, 2, item.BufferStock)
	assert.Empty(t, deps.orders.orders)
	assert.Empty(t, deps.demands.demands)
	assert.Empty(t, deps.movements.movements)
}

func TestPreview_FullyCovered(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	preview, err := svc.Preview(context.Background(), PreviewCommand{
		Lines: []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 7}},
	})
	require.NoError(t, err)
	assert.True(t, preview.FullyCovered)
}

func TestCancel_RestoresCountersAndClearsDemand(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 10}},
		Actor:      "alice",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Demand)

	cancelled, err := svc.Cancel(context.Background(), CancelCommand{OrderID: result.Order.OrderID, Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusCancelled), cancelled.Status)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 2, item.BufferStock)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 0, item.ReservedBuffer)

	demand, _ := deps.demands.FindByOrderID(context.Background(), result.Order.OrderID)
	assert.Nil(t, demand)
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	result, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}},
		Actor:      "alice",
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), CancelCommand{OrderID: result.Order.OrderID, Actor: "alice"})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), CancelCommand{OrderID: result.Order.OrderID, Actor: "alice"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidState, appErr.Code)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 0, item.ReservedQuantity)
}

func TestCancel_NotFound(t *testing.T) {
	deps := newTestDeps()
	svc := deps.reservationService()

	_, err := svc.Cancel(context.Background(), CancelCommand{OrderID: "ORD-missing", Actor: "alice"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestListFollowUpOrders(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 20, 0)
	svc := deps.reservationService()

	for i := 0; i < 2; i++ {
		_, err := svc.Reserve(context.Background(), ReserveCommand{
			FollowUpID: "FU-100",
			Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 1}},
			Actor:      "alice",
		})
		require.NoError(t, err)
	}
	_, err := svc.Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-200",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 1}},
		Actor:      "alice",
	})
	require.NoError(t, err)

	orders, err := svc.ListFollowUpOrders(context.Background(), ListFollowUpOrdersQuery{FollowUpID: "FU-100"})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestReserve_ConcurrentRequestsNeverOverAllocate(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.reservationService()

	// More competing requests than available-to-promise units. Losers of the
	// version race either retry onto fresh state or exhaust their retries;
	// either way the committed allocations must stay within the 7 available.
	const workers = 10

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*ReservationResultDTO
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := svc.Reserve(context.Background(), ReserveCommand{
				FollowUpID: fmt.Sprintf("FU-%d", n),
				Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 1}},
				Actor:      "alice",
			})
			if err != nil {
				appErr, ok := apperrors.AsAppError(err)
				mu.Lock()
				defer mu.Unlock()
				assert.True(t, ok)
				assert.Equal(t, apperrors.CodeConflict, appErr.Code)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			results = append(results, result)
		}(i)
	}
	wg.Wait()

	// A version conflict only happens when a competing write committed, so at
	// least one reservation always goes through.
	require.NotEmpty(t, results)

	totalStock, totalBuffer := 0, 0
	for _, result := range results {
		require.Len(t, result.Order.Lines, 1)
		totalStock += result.Order.Lines[0].Allocation.StockTaken
		totalBuffer += result.Order.Lines[0].Allocation.BufferTaken
	}
	assert.LessOrEqual(t, totalStock+totalBuffer, 7)

	item, err := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	require.NoError(t, err)
	assert.Equal(t, totalStock, item.ReservedQuantity)
	assert.Equal(t, totalBuffer, 2-item.BufferStock)
	assert.GreaterOrEqual(t, item.AvailableToPromise(), 0)
	assert.LessOrEqual(t, item.ReservedQuantity, item.Quantity)
}
