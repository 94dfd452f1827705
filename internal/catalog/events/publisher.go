package events

import (
	"context"

	"github.com/registerhq/register-backend/internal/catalog/repository"
	"github.com/registerhq/register-backend/pkg/logger"
	"github.com/registerhq/register-backend/pkg/messaging"
)

// CatalogEventPublisher publishes catalog-related events
type CatalogEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewCatalogEventPublisher creates a new catalog event publisher
func NewCatalogEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*CatalogEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeEvents, "register-api", log)
	if err != nil {
		return nil, err
	}

	return &CatalogEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// NewCatalogEventPublisherWith wraps an existing publisher. Used by tests.
func NewCatalogEventPublisherWith(publisher messaging.EventPublisher, log *logger.Logger) *CatalogEventPublisher {
	return &CatalogEventPublisher{publisher: publisher, logger: log}
}

// PublishProductCreated publishes a product created event
func (p *CatalogEventPublisher) PublishProductCreated(ctx context.Context, product *repository.Product, actorID string) {
	if p == nil {
		return
	}
	p.publish(ctx, messaging.EventProductCreated, product, actorID)
}

// PublishProductUpdated publishes a product updated event
func (p *CatalogEventPublisher) PublishProductUpdated(ctx context.Context, product *repository.Product, actorID string) {
	if p == nil {
		return
	}
	p.publish(ctx, messaging.EventProductUpdated, product, actorID)
}

// PublishProductDeactivated publishes a product deactivated event
func (p *CatalogEventPublisher) PublishProductDeactivated(ctx context.Context, product *repository.Product, actorID string) {
	if p == nil {
		return
	}
	p.publish(ctx, messaging.EventProductDeactivated, product, actorID)
}

func (p *CatalogEventPublisher) publish(ctx context.Context, eventType string, product *repository.Product, actorID string) {
	sku := ""
	if product.SKU != nil {
		sku = *product.SKU
	}

	data := messaging.ProductEvent{
		ProductID: product.ID,
		SKU:       sku,
		Name:      product.Name,
		ActorID:   actorID,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish product event")
	}
}
