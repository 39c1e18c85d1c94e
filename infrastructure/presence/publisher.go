package presence

import (
	"context"

	"go.uber.org/zap"

	"storefront-backend/application/ports"
	"storefront-backend/domain/events"
)

// Publisher forwards events to the bus and resolves the live connection of
// each event's recipient, so a delivery transport can push to it
type Publisher struct {
	next     ports.EventPublisher
	registry *Registry
	logger   *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher wraps next
func NewPublisher(next ports.EventPublisher, registry *Registry, logger *zap.Logger) *Publisher {
	return &Publisher{next: next, registry: registry, logger: logger}
}

// Recipient returns the registry key an event is addressed to
func Recipient(event events.DomainEvent) (string, bool) {
	switch e := event.(type) {
	case events.OrderPlaced:
		return AdminKey, true
	case events.OrderStatusChanged:
		return e.UserID, true
	case events.MessageSent:
		// Chats are keyed by the customer
		if e.SenderID == e.AggregateID {
			return AdminKey, true
		}
		return e.AggregateID, true
	}
	return "", false
}

// Publish resolves the recipient and forwards the event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.route(event)
	return p.next.Publish(ctx, event)
}

// PublishBatch resolves recipients and forwards the batch
func (p *Publisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		p.route(event)
	}
	return p.next.PublishBatch(ctx, batch)
}

func (p *Publisher) route(event events.DomainEvent) {
	key, ok := Recipient(event)
	if !ok {
		return
	}
	if conn, online := p.registry.Lookup(key); online {
		p.logger.Debug("recipient online",
			zap.String("eventType", event.GetEventType()),
			zap.String("recipient", key),
			zap.String("connection", conn),
		)
		return
	}
	p.logger.Debug("recipient offline",
		zap.String("eventType", event.GetEventType()),
		zap.String("recipient", key),
	)
}
