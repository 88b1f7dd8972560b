package application

import (
	"context"
	"fmt"

	apperrors "github.com/bizops-platform/inventory-service/pkg/errors"
	"github.com/bizops-platform/inventory-service/pkg/logging"
	"github.com/bizops-platform/inventory-service/pkg/metrics"
	"github.com/bizops-platform/inventory-service/pkg/mongodb"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// ReservationApplicationService handles reservation use cases: committing
// allocations against the stock ledger, previewing them, and cancelling
// reserved orders.
type ReservationApplicationService struct {
	ledger     *ledger
	stockRepo  domain.StockItemRepository
	orderRepo  domain.OrderRepository
	demandRepo domain.DemandRepository
	publisher  domain.EventPublisher
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewReservationApplicationService creates a new ReservationApplicationService
func NewReservationApplicationService(
	stockRepo domain.StockItemRepository,
	orderRepo domain.OrderRepository,
	demandRepo domain.DemandRepository,
	movementRepo domain.MovementRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ReservationApplicationService {
	return &ReservationApplicationService{
		ledger:     newLedger(stockRepo, movementRepo, m, logger),
		stockRepo:  stockRepo,
		orderRepo:  orderRepo,
		demandRepo: demandRepo,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
	}
}

// appliedLine tracks a committed per-line allocation so a failed reservation
// can release what earlier lines already earmarked.
type appliedLine struct {
	sku    string
	split  domain.AllocationSplit
	before domain.CounterSnapshot
	after  domain.CounterSnapshot
}

// Reserve allocates stock for a follow-up record and commits the result as a
// reserved order. Each line is allocated stock-first, then from the buffer
// pool; quantities that neither pool can cover are recorded as demand.
func (s *ReservationApplicationService) Reserve(ctx context.Context, cmd ReserveCommand) (*ReservationResultDTO, error) {
	if cmd.FollowUpID == "" {
		return nil, apperrors.ErrValidation("followUpId is required")
	}
	if err := validateReserveLines(cmd.Lines); err != nil {
		return nil, err
	}

	// Reject unknown SKUs before touching any counters so a multi-line
	// request does not commit half its lines and then fail.
	for _, line := range cmd.Lines {
		item, err := s.stockRepo.FindBySKU(ctx, line.SKU)
		if err != nil {
			s.logger.Error("Failed to load item", "sku", line.SKU, "error", err)
			return nil, fmt.Errorf("failed to load item: %w", err)
		}
		if item == nil {
			return nil, apperrors.ErrNotFoundWithID("item", line.SKU)
		}
	}

	orderID := "ORD-" + mongodb.GenerateIDString()
	applied := make([]appliedLine, 0, len(cmd.Lines))
	orderLines := make([]domain.OrderLine, 0, len(cmd.Lines))

	for _, line := range cmd.Lines {
		var split domain.AllocationSplit

		update, err := s.ledger.applyWithRetry(ctx, line.SKU, func(item *domain.StockItem) error {
			planned, planErr := domain.PlanAllocation(item, line.Quantity)
			if planErr != nil {
				return apperrors.ErrValidation(planErr.Error())
			}
			split = planned
			return item.ApplyAllocation(split)
		})
		if err != nil {
			s.logger.Error("Failed to allocate line", "orderId", orderID, "sku", line.SKU, "error", err)
			s.releaseApplied(ctx, orderID, applied)
			return nil, err
		}

		applied = append(applied, appliedLine{
			sku:    line.SKU,
			split:  split,
			before: update.before,
			after:  update.after,
		})
		orderLines = append(orderLines, domain.OrderLine{
			SKU:          line.SKU,
			RequestedQty: line.Quantity,
			Allocation:   split,
		})
	}

	order := domain.NewOrder(orderID, cmd.FollowUpID, cmd.Actor, orderLines)
	for _, line := range order.Lines {
		order.AddDomainEvent(&domain.StockReservedEvent{
			SKU:         line.SKU,
			OrderID:     orderID,
			StockTaken:  line.Allocation.StockTaken,
			BufferTaken: line.Allocation.BufferTaken,
			Unfulfilled: line.Allocation.Unfulfilled,
			ReservedAt:  order.CreatedAt,
		})
	}

	if err := s.orderRepo.Insert(ctx, order); err != nil {
		s.logger.Error("Failed to insert order", "orderId", orderID, "error", err)
		s.releaseApplied(ctx, orderID, applied)
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range applied {
		if line.split.StockTaken > 0 {
			s.ledger.recordMovement(ctx, line.sku, domain.MovementReserveStock,
				line.split.StockTaken, line.before, line.after, orderID, cmd.Actor)
		}
		if line.split.BufferTaken > 0 {
			s.ledger.recordMovement(ctx, line.sku, domain.MovementReserveBuffer,
				line.split.BufferTaken, line.before, line.after, orderID, cmd.Actor)
		}
	}

	var demand *domain.Demand
	outcome := "full"
	if order.HasShortfall() {
		outcome = "short"
		demand = domain.NewDemandFromOrder("DEM-"+mongodb.GenerateIDString(), order)
		if err := s.demandRepo.Insert(ctx, demand); err != nil {
			s.logger.Error("Failed to record demand", "orderId", orderID, "error", err)
			return nil, fmt.Errorf("failed to record demand: %w", err)
		}
		for _, line := range demand.Lines {
			s.metrics.RecordShortfall(line.SKU, line.UnfulfilledQty)
		}
		order.AddDomainEvent(&domain.DemandRecordedEvent{
			DemandID:   demand.DemandID,
			OrderID:    orderID,
			FollowUpID: cmd.FollowUpID,
			Lines:      demand.Lines,
			RecordedAt: demand.CreatedAt,
		})
	}

	s.metrics.RecordReservationCommitted(outcome)
	publishEvents(ctx, s.publisher, s.logger, order.GetDomainEvents())

	s.logger.Info("Reserved stock",
		"orderId", orderID,
		"followUpId", cmd.FollowUpID,
		"lines", len(order.Lines),
		"shortfall", order.HasShortfall())

	return &ReservationResultDTO{
		Order:  ToOrderDTO(order),
		Demand: ToDemandDTO(demand),
	}, nil
}

// Preview computes the allocation a reservation would receive without writing
// anything. Counters, orders and demand records are untouched.
func (s *ReservationApplicationService) Preview(ctx context.Context, cmd PreviewCommand) (*PreviewDTO, error) {
	if err := validateReserveLines(cmd.Lines); err != nil {
		return nil, err
	}

	lines := make([]PreviewLineDTO, 0, len(cmd.Lines))
	fullyCovered := true

	for _, line := range cmd.Lines {
		item, err := s.stockRepo.FindBySKU(ctx, line.SKU)
		if err != nil {
			s.logger.Error("Failed to load item", "sku", line.SKU, "error", err)
			return nil, fmt.Errorf("failed to load item: %w", err)
		}
		if item == nil {
			return nil, apperrors.ErrNotFoundWithID("item", line.SKU)
		}

		split, err := domain.PlanAllocation(item, line.Quantity)
		if err != nil {
			return nil, apperrors.ErrValidation(err.Error())
		}
		if split.Unfulfilled > 0 {
			fullyCovered = false
		}

		lines = append(lines, PreviewLineDTO{
			SKU:          line.SKU,
			RequestedQty: line.Quantity,
			Allocation:   ToAllocationDTO(split),
		})
	}

	return &PreviewDTO{Lines: lines, FullyCovered: fullyCovered}, nil
}

// Cancel releases a reserved order: the status transitions to cancelled, every
// line's allocation is returned to the ledger and the order's demand record is
// removed.
func (s *ReservationApplicationService) Cancel(ctx context.Context, cmd CancelCommand) (*OrderDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, cmd.OrderID)
	if err != nil {
		s.logger.Error("Failed to load order", "orderId", cmd.OrderID, "error", err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFoundWithID("order", cmd.OrderID)
	}

	ok, err := s.orderRepo.TransitionStatus(ctx, cmd.OrderID, domain.OrderStatusReserved, domain.OrderStatusCancelled, nil)
	if err != nil {
		s.logger.Error("Failed to cancel order", "orderId", cmd.OrderID, "error", err)
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !ok {
		current, err := s.orderRepo.FindByID(ctx, cmd.OrderID)
		if err != nil || current == nil {
			return nil, apperrors.ErrInvalidState(fmt.Sprintf("order %s is not in reserved status", cmd.OrderID))
		}
		return nil, apperrors.ErrInvalidState(fmt.Sprintf("order %s is %s and cannot be cancelled", cmd.OrderID, current.Status))
	}

	var releaseErr error
	for _, line := range order.Lines {
		if line.Allocation.Allocated() == 0 {
			continue
		}
		split := line.Allocation
		if _, err := s.ledger.applyWithRetry(ctx, line.SKU, func(item *domain.StockItem) error {
			return item.ReleaseAllocation(split)
		}); err != nil {
			s.logger.Error("Failed to release allocation", "orderId", cmd.OrderID, "sku", line.SKU, "error", err)
			if releaseErr == nil {
				releaseErr = err
			}
		}
	}
	if releaseErr != nil {
		return nil, fmt.Errorf("failed to release allocations: %w", releaseErr)
	}

	if err := s.demandRepo.DeleteByOrderID(ctx, cmd.OrderID); err != nil {
		s.logger.Error("Failed to delete demand", "orderId", cmd.OrderID, "error", err)
	}

	// The persisted status already changed; this mirrors it on the loaded
	// aggregate and raises the cancellation event.
	if err := order.MarkCancelled(); err != nil {
		return nil, apperrors.ErrInvalidState(err.Error())
	}

	s.metrics.RecordOrderCancelled()
	publishEvents(ctx, s.publisher, s.logger, order.GetDomainEvents())

	s.logger.Info("Cancelled order", "orderId", cmd.OrderID, "followUpId", order.FollowUpID)
	return ToOrderDTO(order), nil
}

// GetOrder retrieves an order by ID
func (s *ReservationApplicationService) GetOrder(ctx context.Context, query GetOrderQuery) (*OrderDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, query.OrderID)
	if err != nil {
		s.logger.Error("Failed to load order", "orderId", query.OrderID, "error", err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFoundWithID("order", query.OrderID)
	}
	return ToOrderDTO(order), nil
}

// ListFollowUpOrders retrieves all orders created for a follow-up record
func (s *ReservationApplicationService) ListFollowUpOrders(ctx context.Context, query ListFollowUpOrdersQuery) ([]*OrderDTO, error) {
	orders, err := s.orderRepo.FindByFollowUp(ctx, query.FollowUpID)
	if err != nil {
		s.logger.Error("Failed to list orders", "followUpId", query.FollowUpID, "error", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	dtos := make([]*OrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, ToOrderDTO(order))
	}
	return dtos, nil
}

// ListOpenDemands retrieves outstanding demand records
func (s *ReservationApplicationService) ListOpenDemands(ctx context.Context, query ListDemandsQuery) ([]*DemandDTO, error) {
	demands, err := s.demandRepo.FindOpen(ctx, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to list demands", "error", err)
		return nil, fmt.Errorf("failed to list demands: %w", err)
	}

	dtos := make([]*DemandDTO, 0, len(demands))
	for _, demand := range demands {
		dtos = append(dtos, ToDemandDTO(demand))
	}
	return dtos, nil
}

// releaseApplied undoes allocations already committed by a reservation that
// failed partway. Release failures are logged; the retry loop makes them rare.
func (s *ReservationApplicationService) releaseApplied(ctx context.Context, orderID string, applied []appliedLine) {
	for _, line := range applied {
		split := line.split
		if split.Allocated() == 0 {
			continue
		}
		if _, err := s.ledger.applyWithRetry(ctx, line.sku, func(item *domain.StockItem) error {
			return item.ReleaseAllocation(split)
		}); err != nil {
			s.logger.Error("Failed to release allocation after aborted reservation",
				"orderId", orderID, "sku", line.sku, "error", err)
		}
	}
}

func validateReserveLines(lines []ReserveLine) error {
	if len(lines) == 0 {
		return apperrors.ErrValidation("at least one line is required")
	}

	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.SKU == "" {
			return apperrors.ErrValidation("sku is required on every line")
		}
		if line.Quantity <= 0 {
			return apperrors.ErrValidation(fmt.Sprintf("quantity for %s must be positive", line.SKU))
		}
		if _, dup := seen[line.SKU]; dup {
			return apperrors.ErrValidation(fmt.Sprintf("duplicate sku %s in request", line.SKU))
		}
		seen[line.SKU] = struct{}{}
	}
	return nil
}
