package application

import (
	"context"

	"github.com/bizops-platform/inventory-service/pkg/logging"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// publishEvents emits domain events best-effort. A publish failure never fails
// the mutation that raised the events.
func publishEvents(ctx context.Context, publisher domain.EventPublisher, logger *logging.Logger, events []domain.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}

	if err := publisher.PublishAll(ctx, events); err != nil {
		logger.Error("Failed to publish domain events", "count", len(events), "error", err)
	}
}
