package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bizops-platform/inventory-service/pkg/errors"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

func reserveOrder(t *testing.T, deps *testDeps, followUpID string, lines []ReserveLine) *ReservationResultDTO {
	t.Helper()
	result, err := deps.reservationService().Reserve(context.Background(), ReserveCommand{
		FollowUpID: followUpID,
		Lines:      lines,
		Actor:      "alice",
	})
	require.NoError(t, err)
	return result
}

func TestFulfill_DeductsReservedSplit(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	reserved := reserveOrder(t, deps, "FU-100", []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 6}})
	svc := deps.fulfillmentService()

	fulfilled, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusFulfilled), fulfilled.Status)
	assert.NotNil(t, fulfilled.FulfilledAt)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, 1, item.BufferStock)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 0, item.ReservedBuffer)

	delivers := deps.movements.byType(domain.MovementDeliver)
	require.Len(t, delivers, 1)
	assert.Equal(t, -6, delivers[0].Amount)
	assert.Equal(t, reserved.Order.OrderID, delivers[0].ReferenceID)
	assert.Equal(t, "bob", delivers[0].Actor)
}

func TestFulfill_Idempotent(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	reserved := reserveOrder(t, deps, "FU-100", []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}})
	svc := deps.fulfillmentService()

	_, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.NoError(t, err)

	again, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusFulfilled), again.Status)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Len(t, deps.movements.byType(domain.MovementDeliver), 1)
}

func TestFulfill_ResumesClaimedLines(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 0)
	seedItem(deps, "SKU-BETA", 5, 0)
	reserved := reserveOrder(t, deps, "FU-100", []ReserveLine{
		{SKU: "SKU-ALPHA", Quantity: 2},
		{SKU: "SKU-BETA", Quantity: 3},
	})

	// An earlier run claimed and deducted the first line, then stopped
	// before touching the second.
	claimed, err := deps.orders.ClaimLine(context.Background(), reserved.Order.OrderID, "SKU-ALPHA")
	require.NoError(t, err)
	require.True(t, claimed)
	alpha, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	require.NoError(t, alpha.ApplyFulfillment(domain.AllocationSplit{StockTaken: 2}))
	require.NoError(t, deps.stock.Update(context.Background(), alpha))

	svc := deps.fulfillmentService()
	fulfilled, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusFulfilled), fulfilled.Status)

	alpha, _ = deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 3, alpha.Quantity)
	assert.Equal(t, 0, alpha.ReservedQuantity)

	beta, _ := deps.stock.FindBySKU(context.Background(), "SKU-BETA")
	assert.Equal(t, 2, beta.Quantity)
	assert.Equal(t, 0, beta.ReservedQuantity)

	// Only the resumed line produced a new deliver movement.
	assert.Len(t, deps.movements.byType(domain.MovementDeliver), 1)
}

func TestFulfill_FailedDeductionReleasesClaimForRetry(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 0)
	reserved := reserveOrder(t, deps, "FU-100", []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}})
	svc := deps.fulfillmentService()

	deps.stock.updateErr = assert.AnError
	_, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.Error(t, err)

	// The failed run must leave the line unclaimed and the order reserved,
	// otherwise a retry would skip the line and the deduction would be lost.
	order, _ := deps.orders.FindByID(context.Background(), reserved.Order.OrderID)
	require.Equal(t, domain.OrderStatusReserved, order.Status)
	require.False(t, order.Lines[0].Fulfilled)

	deps.stock.updateErr = nil
	fulfilled, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusFulfilled), fulfilled.Status)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 0, item.ReservedQuantity)

	delivers := deps.movements.byType(domain.MovementDeliver)
	require.Len(t, delivers, 1)
	assert.Equal(t, -3, delivers[0].Amount)
}

func TestFulfill_ShortOrderDeductsOnlyAllocated(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	reserved := reserveOrder(t, deps, "FU-100", []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 10}})
	svc := deps.fulfillmentService()

	_, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.NoError(t, err)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 0, item.Quantity)
	assert.Equal(t, 0, item.BufferStock)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 0, item.ReservedBuffer)

	delivers := deps.movements.byType(domain.MovementDeliver)
	require.Len(t, delivers, 1)
	assert.Equal(t, -7, delivers[0].Amount)
}

func TestFulfill_CancelledOrder(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	reserved := reserveOrder(t, deps, "FU-100", []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}})

	_, err := deps.reservationService().Cancel(context.Background(), CancelCommand{OrderID: reserved.Order.OrderID, Actor: "alice"})
	require.NoError(t, err)

	_, err = deps.fulfillmentService().Fulfill(context.Background(), FulfillCommand{OrderID: reserved.Order.OrderID, Actor: "bob"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidState, appErr.Code)

	item, _ := deps.stock.FindBySKU(context.Background(), "SKU-ALPHA")
	assert.Equal(t, 5, item.Quantity)
}

func TestFulfill_NotFound(t *testing.T) {
	deps := newTestDeps()
	svc := deps.fulfillmentService()

	_, err := svc.Fulfill(context.Background(), FulfillCommand{OrderID: "ORD-missing", Actor: "bob"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}
