package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"catalog-sync-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCatalogSyncCompleted publishes CatalogSyncCompleted event
func (ep *EventPublisher) PublishCatalogSyncCompleted(ctx context.Context, event *models.CatalogSyncCompletedEvent) error {
	key := fmt.Sprintf("catalog-sync-%s", event.RunID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPriceUpdateCompleted publishes PriceUpdateCompleted event
func (ep *EventPublisher) PublishPriceUpdateCompleted(ctx context.Context, event *models.PriceUpdateCompletedEvent) error {
	key := fmt.Sprintf("price-update-%s", event.RunID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSyncTrigger publishes a SyncTrigger event for another instance or
// an external system to act on
func (ep *EventPublisher) PublishSyncTrigger(ctx context.Context, event *models.SyncTriggerEvent) error {
	key := fmt.Sprintf("trigger-%s", event.Operation)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onSyncTrigger func(context.Context, *models.SyncTriggerEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSyncTrigger registers a handler for SyncTrigger events
func (eh *EventHandler) OnSyncTrigger(handler func(context.Context, *models.SyncTriggerEvent) error) {
	eh.onSyncTrigger = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeSyncTrigger:
		if eh.onSyncTrigger != nil {
			var event models.SyncTriggerEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SyncTrigger event: %w", err)
			}
			return eh.onSyncTrigger(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
