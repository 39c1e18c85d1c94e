package ports

import (
	"context"

	"storefront-backend/domain/events"
)

// EventPublisher publishes domain events to the event bus
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
