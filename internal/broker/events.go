package broker

import (
	"context"
	"fmt"

	"pos-service/internal/models"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishProductUpserted publishes ProductUpserted event keyed by barcode
func (ep *EventPublisher) PublishProductUpserted(ctx context.Context, event *models.ProductUpsertedEvent) error {
	key := fmt.Sprintf("product-%s", event.Barcode)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSaleRecorded publishes SaleRecorded event keyed by sale id
func (ep *EventPublisher) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}
