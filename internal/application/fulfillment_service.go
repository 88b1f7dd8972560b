package application

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/bizops-platform/inventory-service/pkg/errors"
	"github.com/bizops-platform/inventory-service/pkg/logging"
	"github.com/bizops-platform/inventory-service/pkg/metrics"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// FulfillmentApplicationService delivers reserved orders: each line's
// allocation is permanently deducted from the ledger and the order reaches
// its terminal fulfilled status.
type FulfillmentApplicationService struct {
	ledger    *ledger
	orderRepo domain.OrderRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewFulfillmentApplicationService creates a new FulfillmentApplicationService
func NewFulfillmentApplicationService(
	stockRepo domain.StockItemRepository,
	orderRepo domain.OrderRepository,
	movementRepo domain.MovementRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *FulfillmentApplicationService {
	return &FulfillmentApplicationService{
		ledger:    newLedger(stockRepo, movementRepo, m, logger),
		orderRepo: orderRepo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Fulfill delivers a reserved order. The operation is idempotent and
// resumable: each line is claimed before its deduction, so a repeated or
// resumed run skips lines an earlier run already processed, and a fully
// fulfilled order returns successfully without touching the ledger.
func (s *FulfillmentApplicationService) Fulfill(ctx context.Context, cmd FulfillCommand) (*OrderDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, cmd.OrderID)
	if err != nil {
		s.logger.Error("Failed to load order", "orderId", cmd.OrderID, "error", err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFoundWithID("order", cmd.OrderID)
	}

	switch order.Status {
	case domain.OrderStatusCancelled:
		return nil, apperrors.ErrInvalidState(fmt.Sprintf("order %s is cancelled and cannot be fulfilled", cmd.OrderID))
	case domain.OrderStatusFulfilled:
		s.logger.Info("Order already fulfilled", "orderId", cmd.OrderID)
		return ToOrderDTO(order), nil
	}

	for _, line := range order.Lines {
		if line.Fulfilled {
			continue
		}

		// The claim precedes the deduction so a repeated run can never
		// deduct the same line twice.
		claimed, err := s.orderRepo.ClaimLine(ctx, cmd.OrderID, line.SKU)
		if err != nil {
			s.logger.Error("Failed to claim line", "orderId", cmd.OrderID, "sku", line.SKU, "error", err)
			return nil, fmt.Errorf("failed to claim line: %w", err)
		}
		if !claimed {
			continue
		}

		if line.Allocation.Allocated() == 0 {
			continue
		}

		split := line.Allocation
		update, err := s.ledger.applyWithRetry(ctx, line.SKU, func(item *domain.StockItem) error {
			return item.ApplyFulfillment(split)
		})
		if err != nil {
			// The claim must not outlive a failed deduction, or a retried
			// run would skip the line and the deduction would never happen.
			if _, releaseErr := s.orderRepo.ReleaseClaim(ctx, cmd.OrderID, line.SKU); releaseErr != nil {
				s.logger.Error("Failed to release line claim after deduction failure",
					"orderId", cmd.OrderID, "sku", line.SKU, "error", releaseErr)
			}
			s.logger.Error("Failed to deduct line", "orderId", cmd.OrderID, "sku", line.SKU, "error", err)
			return nil, fmt.Errorf("failed to deduct line %s: %w", line.SKU, err)
		}

		s.ledger.recordMovement(ctx, line.SKU, domain.MovementDeliver,
			-split.Allocated(), update.before, update.after, cmd.OrderID, cmd.Actor)
	}

	now := time.Now().UTC()
	ok, err := s.orderRepo.TransitionStatus(ctx, cmd.OrderID, domain.OrderStatusReserved, domain.OrderStatusFulfilled, &now)
	if err != nil {
		s.logger.Error("Failed to mark order fulfilled", "orderId", cmd.OrderID, "error", err)
		return nil, fmt.Errorf("failed to mark order fulfilled: %w", err)
	}
	if !ok {
		// A concurrent run completed the transition; verify the terminal
		// status instead of failing.
		current, err := s.orderRepo.FindByID(ctx, cmd.OrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to load order: %w", err)
		}
		if current == nil || current.Status != domain.OrderStatusFulfilled {
			return nil, apperrors.ErrInvalidState(fmt.Sprintf("order %s left reserved status during fulfillment", cmd.OrderID))
		}
		return ToOrderDTO(current), nil
	}

	if err := order.MarkFulfilled(); err != nil {
		return nil, apperrors.ErrInvalidState(err.Error())
	}

	s.metrics.RecordOrderFulfilled()
	publishEvents(ctx, s.publisher, s.logger, order.GetDomainEvents())

	s.logger.Info("Fulfilled order", "orderId", cmd.OrderID, "followUpId", order.FollowUpID, "lines", len(order.Lines))
	return ToOrderDTO(order), nil
}
