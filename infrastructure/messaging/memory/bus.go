// Package memory is an in-process event publisher for local runs and tests
package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront-backend/application/ports"
	"storefront-backend/domain/events"
)

// Bus records published events and logs them
type Bus struct {
	mu     sync.Mutex
	events []events.DomainEvent
	logger *zap.Logger
}

var _ ports.EventPublisher = (*Bus)(nil)

// NewBus creates an empty bus
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// Publish records one event
func (b *Bus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch records events in order
func (b *Bus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	b.mu.Lock()
	b.events = append(b.events, batch...)
	b.mu.Unlock()

	for _, e := range batch {
		b.logger.Debug("event published",
			zap.String("eventType", e.GetEventType()),
			zap.String("aggregateID", e.GetAggregateID()),
		)
	}
	return nil
}

// Events returns a copy of everything published so far
func (b *Bus) Events() []events.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.DomainEvent(nil), b.events...)
}

// OfType returns the published events with the given type
func (b *Bus) OfType(eventType string) []events.DomainEvent {
	var out []events.DomainEvent
	for _, e := range b.Events() {
		if e.GetEventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
