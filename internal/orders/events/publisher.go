package events

import (
	"context"

	"github.com/registerhq/register-backend/internal/orders/repository"
	"github.com/registerhq/register-backend/pkg/logger"
	"github.com/registerhq/register-backend/pkg/messaging"
)

// OrderEventPublisher publishes purchase-order events
type OrderEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewOrderEventPublisher creates a new order event publisher
func NewOrderEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*OrderEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeEvents, "register-api", log)
	if err != nil {
		return nil, err
	}

	return &OrderEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// NewOrderEventPublisherWith wraps an existing publisher. Used by tests.
func NewOrderEventPublisherWith(publisher messaging.EventPublisher, log *logger.Logger) *OrderEventPublisher {
	return &OrderEventPublisher{publisher: publisher, logger: log}
}

// PublishOrderCreated publishes an order created event
func (p *OrderEventPublisher) PublishOrderCreated(ctx context.Context, o *repository.PurchaseOrder, actorID string) {
	if p == nil {
		return
	}

	data := messaging.OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalCents:  o.TotalAmountCents,
		ActorID:     actorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventOrderCreated, data); err != nil {
		p.logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to publish order created event")
	}
}

// PublishStatusChanged publishes an order status changed event
func (p *OrderEventPublisher) PublishStatusChanged(ctx context.Context, o *repository.PurchaseOrder, oldStatus, actorID string) {
	if p == nil {
		return
	}

	data := messaging.OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		OldStatus:   oldStatus,
		TotalCents:  o.TotalAmountCents,
		ActorID:     actorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventOrderStatusChanged, data); err != nil {
		p.logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to publish order status event")
	}
}
