// Package eventbridge publishes domain events to an AWS EventBridge bus
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"storefront-backend/application/ports"
	"storefront-backend/domain/events"
)

// EventBridge limits PutEvents to 10 entries
const batchSize = 10

// Client is the subset of the EventBridge API used by the publisher
type Client interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventPublisher on EventBridge
type Publisher struct {
	client       Client
	eventBusName string
	source       string
	maxRetries   int
	backoff      time.Duration
	logger       *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		source:       events.SourceStorefront,
		maxRetries:   3,
		backoff:      100 * time.Millisecond,
		logger:       logger,
	}
}

// Publish sends a single event to EventBridge
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of ten
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += batchSize {
		end := min(i+batchSize, len(domainEvents))
		if err := p.publishWithRetry(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) entries(domainEvents []events.DomainEvent) []types.PutEventsRequestEntry {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	for _, event := range domainEvents {
		eventData, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(eventData)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{"storefront:" + event.GetAggregateID()},
		})
	}
	return entries
}

// publishBatch sends one PutEvents call and returns the events that failed
func (p *Publisher) publishBatch(ctx context.Context, domainEvents []events.DomainEvent) ([]events.DomainEvent, error) {
	entries := p.entries(domainEvents)
	if len(entries) == 0 {
		return nil, nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return domainEvents, fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount == 0 {
		p.logger.Debug("Events published to EventBridge",
			zap.Int("count", len(entries)),
			zap.String("eventBus", p.eventBusName),
		)
		return nil, nil
	}

	var failed []events.DomainEvent
	for i, entry := range result.Entries {
		if entry.ErrorCode == nil || i >= len(domainEvents) {
			continue
		}
		p.logger.Error("Failed to publish event",
			zap.String("eventType", domainEvents[i].GetEventType()),
			zap.String("errorCode", aws.ToString(entry.ErrorCode)),
			zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
		)
		failed = append(failed, domainEvents[i])
	}
	return failed, fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
}

// publishWithRetry resends only the failed entries with exponential backoff
func (p *Publisher) publishWithRetry(ctx context.Context, domainEvents []events.DomainEvent) error {
	backoff := p.backoff
	pending := domainEvents

	var err error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		pending, err = p.publishBatch(ctx, pending)
		if err == nil {
			return nil
		}

		if attempt < p.maxRetries-1 {
			p.logger.Warn("Retrying event publication",
				zap.Int("attempt", attempt+1),
				zap.Int("pending", len(pending)),
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed to publish events after %d attempts: %w", p.maxRetries, err)
}
