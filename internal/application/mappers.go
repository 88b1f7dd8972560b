package application

import "github.com/bizops-platform/inventory-service/internal/domain"

// ToStockItemDTO converts a domain StockItem to StockItemDTO
func ToStockItemDTO(item *domain.StockItem) *StockItemDTO {
	if item == nil {
		return nil
	}

	return &StockItemDTO{
		SKU:         item.SKU,
		ProductName: item.ProductName,
		UnitPrice: MoneyDTO{
			Amount:   item.UnitPrice.Amount,
			Currency: item.UnitPrice.Currency,
		},
		Quantity:         item.Quantity,
		BufferStock:      item.BufferStock,
		ReservedQuantity: item.ReservedQuantity,
		ReservedBuffer:   item.ReservedBuffer,
		AvailableStock:   item.AvailableStock(),
		AvailableBuffer:  item.AvailableBuffer(),
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// ToAllocationDTO converts a domain AllocationSplit to AllocationDTO
func ToAllocationDTO(split domain.AllocationSplit) AllocationDTO {
	return AllocationDTO{
		StockTaken:  split.StockTaken,
		BufferTaken: split.BufferTaken,
		Unfulfilled: split.Unfulfilled,
	}
}

// ToOrderDTO converts a domain Order to OrderDTO
func ToOrderDTO(order *domain.Order) *OrderDTO {
	if order == nil {
		return nil
	}

	lines := make([]OrderLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLineDTO{
			SKU:          line.SKU,
			RequestedQty: line.RequestedQty,
			Allocation:   ToAllocationDTO(line.Allocation),
		})
	}

	return &OrderDTO{
		OrderID:     order.OrderID,
		FollowUpID:  order.FollowUpID,
		Lines:       lines,
		Status:      string(order.Status),
		CreatedBy:   order.CreatedBy,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		FulfilledAt: order.FulfilledAt,
	}
}

// ToDemandDTO converts a domain Demand to DemandDTO
func ToDemandDTO(demand *domain.Demand) *DemandDTO {
	if demand == nil {
		return nil
	}

	lines := make([]DemandLineDTO, 0, len(demand.Lines))
	for _, line := range demand.Lines {
		lines = append(lines, DemandLineDTO{
			SKU:            line.SKU,
			UnfulfilledQty: line.UnfulfilledQty,
		})
	}

	return &DemandDTO{
		DemandID:   demand.DemandID,
		OrderID:    demand.OrderID,
		FollowUpID: demand.FollowUpID,
		Lines:      lines,
		CreatedAt:  demand.CreatedAt,
	}
}

// ToCounterSnapshotDTO converts a domain CounterSnapshot to CounterSnapshotDTO
func ToCounterSnapshotDTO(s domain.CounterSnapshot) CounterSnapshotDTO {
	return CounterSnapshotDTO{
		Quantity:         s.Quantity,
		BufferStock:      s.BufferStock,
		ReservedQuantity: s.ReservedQuantity,
		ReservedBuffer:   s.ReservedBuffer,
	}
}

// ToMovementDTO converts a domain StockMovement to MovementDTO
func ToMovementDTO(movement *domain.StockMovement) *MovementDTO {
	if movement == nil {
		return nil
	}

	return &MovementDTO{
		MovementID:  movement.MovementID,
		SKU:         movement.SKU,
		Type:        string(movement.Type),
		Amount:      movement.Amount,
		Before:      ToCounterSnapshotDTO(movement.Before),
		After:       ToCounterSnapshotDTO(movement.After),
		ReferenceID: movement.ReferenceID,
		Actor:       movement.Actor,
		CreatedAt:   movement.CreatedAt,
	}
}
