package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bizops-platform/inventory-service/pkg/errors"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

func TestCreateItem(t *testing.T) {
	deps := newTestDeps()
	svc := deps.stockService()

	item, err := svc.CreateItem(context.Background(), CreateItemCommand{
		SKU:            "SKU-ALPHA",
		ProductName:    "Widget",
		UnitPriceCents: 1999,
		Currency:       "EUR",
		OpeningQty:     10,
		OpeningBuffer:  5,
		Actor:          "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "SKU-ALPHA", item.SKU)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, 5, item.BufferStock)
	assert.Equal(t, 10, item.AvailableStock)
	assert.Equal(t, 5, item.AvailableBuffer)
	assert.Equal(t, int64(1999), item.UnitPrice.Amount)
	assert.Equal(t, "EUR", item.UnitPrice.Currency)
}

func TestCreateItem_DuplicateSKU(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 0)
	svc := deps.stockService()

	_, err := svc.CreateItem(context.Background(), CreateItemCommand{
		SKU:            "SKU-ALPHA",
		ProductName:    "Widget",
		UnitPriceCents: 1999,
		Currency:       "EUR",
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

func TestCreateItem_Validation(t *testing.T) {
	deps := newTestDeps()
	svc := deps.stockService()

	tests := []struct {
		name string
		cmd  CreateItemCommand
	}{
		{
			name: "missing sku",
			cmd:  CreateItemCommand{ProductName: "Widget", UnitPriceCents: 100, Currency: "EUR"},
		},
		{
			name: "bad currency",
			cmd:  CreateItemCommand{SKU: "SKU-ALPHA", UnitPriceCents: 100, Currency: "EURO"},
		},
		{
			name: "negative price",
			cmd:  CreateItemCommand{SKU: "SKU-ALPHA", UnitPriceCents: -1, Currency: "EUR"},
		},
		{
			name: "negative opening quantity",
			cmd:  CreateItemCommand{SKU: "SKU-ALPHA", UnitPriceCents: 100, Currency: "EUR", OpeningQty: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), tt.cmd)
			require.Error(t, err)

			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
		})
	}
}

func TestAddBuffer(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.stockService()

	item, err := svc.AddBuffer(context.Background(), AddBufferCommand{SKU: "SKU-ALPHA", Quantity: 4, Actor: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 6, item.BufferStock)
	assert.Equal(t, 5, item.Quantity)

	moves := deps.movements.byType(domain.MovementAddBuffer)
	require.Len(t, moves, 1)
	assert.Equal(t, 4, moves[0].Amount)
	assert.Equal(t, 2, moves[0].Before.BufferStock)
	assert.Equal(t, 6, moves[0].After.BufferStock)
	assert.Equal(t, "alice", moves[0].Actor)
}

func TestAddBuffer_InvalidQuantity(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 2)
	svc := deps.stockService()

	_, err := svc.AddBuffer(context.Background(), AddBufferCommand{SKU: "SKU-ALPHA", Quantity: 0, Actor: "alice"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Empty(t, deps.movements.movements)
}

func TestAddBuffer_UnknownSKU(t *testing.T) {
	deps := newTestDeps()
	svc := deps.stockService()

	_, err := svc.AddBuffer(context.Background(), AddBufferCommand{SKU: "SKU-MISSING", Quantity: 1, Actor: "alice"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestTransferBuffer(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 4)
	svc := deps.stockService()

	item, err := svc.TransferBuffer(context.Background(), TransferBufferCommand{SKU: "SKU-ALPHA", Quantity: 3, Actor: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 8, item.Quantity)
	assert.Equal(t, 1, item.BufferStock)

	moves := deps.movements.byType(domain.MovementTransfer)
	require.Len(t, moves, 1)
	assert.Equal(t, 3, moves[0].Amount)
	assert.Equal(t, 5, moves[0].Before.Quantity)
	assert.Equal(t, 8, moves[0].After.Quantity)
}

func TestTransferBuffer_RespectsReservedBuffer(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 0, 4)

	// Reserve 3 from the buffer so only 1 unit is transferable.
	_, err := deps.reservationService().Reserve(context.Background(), ReserveCommand{
		FollowUpID: "FU-100",
		Lines:      []ReserveLine{{SKU: "SKU-ALPHA", Quantity: 3}},
		Actor:      "alice",
	})
	require.NoError(t, err)

	svc := deps.stockService()
	_, err = svc.TransferBuffer(context.Background(), TransferBufferCommand{SKU: "SKU-ALPHA", Quantity: 2, Actor: "alice"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)

	item, errGet := svc.GetItem(context.Background(), GetItemQuery{SKU: "SKU-ALPHA"})
	require.NoError(t, errGet)
	assert.Equal(t, 1, item.BufferStock)
	assert.Equal(t, 0, item.AvailableBuffer)
}

func TestGetItem_NotFound(t *testing.T) {
	deps := newTestDeps()
	svc := deps.stockService()

	_, err := svc.GetItem(context.Background(), GetItemQuery{SKU: "SKU-MISSING"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestListMovements_FiltersBySKU(t *testing.T) {
	deps := newTestDeps()
	seedItem(deps, "SKU-ALPHA", 5, 0)
	seedItem(deps, "SKU-BETA", 5, 0)
	svc := deps.stockService()

	_, err := svc.AddBuffer(context.Background(), AddBufferCommand{SKU: "SKU-ALPHA", Quantity: 2, Actor: "alice"})
	require.NoError(t, err)
	_, err = svc.AddBuffer(context.Background(), AddBufferCommand{SKU: "SKU-BETA", Quantity: 3, Actor: "alice"})
	require.NoError(t, err)

	movements, err := svc.ListMovements(context.Background(), ListMovementsQuery{SKU: "SKU-ALPHA", Limit: 20})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "SKU-ALPHA", movements[0].SKU)
	assert.Equal(t, string(domain.MovementAddBuffer), movements[0].Type)
}
