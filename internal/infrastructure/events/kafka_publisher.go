package events

import (
	"context"
	"fmt"

	"github.com/bizops-platform/inventory-service/pkg/kafka"
	"github.com/bizops-platform/inventory-service/pkg/logging"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

const eventSource = "inventory-service"

// KafkaEventPublisher bridges domain events onto the Kafka topics, routing by
// event family and keying messages by the aggregate they concern.
type KafkaEventPublisher struct {
	producer *kafka.CircuitBreakerProducer
	logger   *logging.Logger
}

func NewKafkaEventPublisher(producer *kafka.CircuitBreakerProducer, logger *logging.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, logger: logger}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	topic, subject := route(event)
	if topic == "" {
		return fmt.Errorf("no topic for event type %s", event.EventType())
	}

	envelope := kafka.NewEnvelope(event.EventType(), eventSource, subject, event)
	return p.producer.PublishEvent(ctx, topic, envelope)
}

func (p *KafkaEventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	var firstErr error
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			p.logger.Error("Failed to publish event", "type", event.EventType(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// route maps a domain event to its topic and message key.
func route(event domain.DomainEvent) (topic, subject string) {
	switch e := event.(type) {
	case *domain.StockReservedEvent:
		return kafka.Topics.StockEvents, e.SKU
	case *domain.StockReceivedEvent:
		return kafka.Topics.StockEvents, e.SKU
	case *domain.OrderFulfilledEvent:
		return kafka.Topics.OrderEvents, e.OrderID
	case *domain.OrderCancelledEvent:
		return kafka.Topics.OrderEvents, e.OrderID
	case *domain.DemandRecordedEvent:
		return kafka.Topics.DemandEvents, e.OrderID
	default:
		return "", ""
	}
}
