package events

import (
	"context"

	"github.com/registerhq/register-backend/internal/inventory/repository"
	"github.com/registerhq/register-backend/pkg/logger"
	"github.com/registerhq/register-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory-related events
type InventoryEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeEvents, "register-api", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// NewInventoryEventPublisherWith wraps an existing publisher. Used by tests.
func NewInventoryEventPublisherWith(publisher messaging.EventPublisher, log *logger.Logger) *InventoryEventPublisher {
	return &InventoryEventPublisher{publisher: publisher, logger: log}
}

// PublishStockMoved publishes a stock moved event
func (p *InventoryEventPublisher) PublishStockMoved(ctx context.Context, item *repository.InventoryItem, m *repository.InventoryMovement, actorID string) {
	if p == nil {
		return
	}

	productID := ""
	if m.ProductID != nil {
		productID = *m.ProductID
	}

	data := messaging.StockMovedEvent{
		ProductID:   productID,
		ItemID:      item.ID,
		MovementID:  m.ID,
		Kind:        m.Kind,
		Quantity:    m.Quantity,
		SignedDelta: m.SignedDelta(),
		NewQuantity: item.Quantity,
		ActorID:     actorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockMoved, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish stock moved event")
	}
}

// PublishLowStock publishes a low stock event
func (p *InventoryEventPublisher) PublishLowStock(ctx context.Context, item *repository.InventoryItem) {
	if p == nil {
		return
	}

	productID := ""
	if item.ProductID != nil {
		productID = *item.ProductID
	}

	data := messaging.LowStockEvent{
		ProductID:     productID,
		ItemID:        item.ID,
		Quantity:      item.Quantity,
		MinStockLevel: item.MinStockLevel,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLowStock, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish low stock event")
	}
}
