package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/bizops-platform/inventory-service/pkg/errors"
	"github.com/bizops-platform/inventory-service/pkg/logging"
	"github.com/bizops-platform/inventory-service/pkg/metrics"
	"github.com/bizops-platform/inventory-service/pkg/mongodb"
	"github.com/bizops-platform/inventory-service/pkg/resilience"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// maxCounterRetries bounds the optimistic-concurrency retry loop on a single
// stock item. Conflicts beyond this bound surface as 409 to the caller.
const maxCounterRetries = 5

// ledgerUpdate is the outcome of one committed counter mutation: the item as
// written plus the before/after snapshots for the movement log.
type ledgerUpdate struct {
	item   *domain.StockItem
	before domain.CounterSnapshot
	after  domain.CounterSnapshot
}

// ledger wraps the stock item repository with the version-conflict retry
// discipline and the append-only movement log shared by all use cases.
type ledger struct {
	stockRepo    domain.StockItemRepository
	movementRepo domain.MovementRepository
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

func newLedger(stockRepo domain.StockItemRepository, movementRepo domain.MovementRepository, m *metrics.Metrics, logger *logging.Logger) *ledger {
	return &ledger{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		metrics:      m,
		logger:       logger,
	}
}

func counterRetryConfig() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:   maxCounterRetries,
		InitialDelay:  20 * time.Millisecond,
		MaxDelay:      320 * time.Millisecond,
		BackoffFactor: 2.0,
		RetryableErrors: func(err error) bool {
			return errors.Is(err, domain.ErrVersionConflict)
		},
	}
}

// applyWithRetry reads the item, applies the mutation and writes it back
// conditionally on the version read. On a version conflict the whole
// read-mutate-write cycle is retried against fresh state.
func (l *ledger) applyWithRetry(ctx context.Context, sku string, mutate func(*domain.StockItem) error) (*ledgerUpdate, error) {
	update, err := resilience.RetryWithResult(ctx, counterRetryConfig(), func() (*ledgerUpdate, error) {
		item, err := l.stockRepo.FindBySKU(ctx, sku)
		if err != nil {
			return nil, fmt.Errorf("failed to load item: %w", err)
		}
		if item == nil {
			return nil, apperrors.ErrNotFoundWithID("item", sku)
		}

		before := item.Snapshot()
		if err := mutate(item); err != nil {
			return nil, err
		}
		after := item.Snapshot()

		if err := l.stockRepo.Update(ctx, item); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				l.metrics.RecordReservationConflict(sku)
			}
			return nil, err
		}

		return &ledgerUpdate{item: item, before: before, after: after}, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, apperrors.ErrConflict(fmt.Sprintf("stock item %s was modified concurrently, retry the request", sku)).
				Wrap(fmt.Errorf("%w: sku=%s", domain.ErrConcurrentModification, sku))
		}
		return nil, err
	}
	return update, nil
}

// recordMovement appends one movement to the audit log. Write failures are
// logged and counted but never propagated: the ledger and order state stay
// authoritative even when the audit trail has a gap.
func (l *ledger) recordMovement(ctx context.Context, sku string, movementType domain.MovementType, amount int, before, after domain.CounterSnapshot, referenceID, actor string) {
	movement := domain.NewStockMovement(
		"MOV-"+mongodb.GenerateIDString(),
		sku,
		movementType,
		amount,
		before,
		after,
		referenceID,
		actor,
	)

	if err := l.movementRepo.Insert(ctx, movement); err != nil {
		l.metrics.RecordMovementWriteFailure(string(movementType))
		l.logger.Error("Failed to write stock movement",
			"sku", sku,
			"type", movementType,
			"referenceId", referenceID,
			"error", err)
		return
	}

	l.metrics.RecordStockMovement(string(movementType))
}
