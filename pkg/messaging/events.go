package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the register API.
const (
	EventProductCreated     = "catalog.product.created"
	EventProductUpdated     = "catalog.product.updated"
	EventProductDeactivated = "catalog.product.deactivated"
	EventStockMoved         = "inventory.stock.moved"
	EventLowStock           = "inventory.low_stock"
	EventOrderCreated       = "orders.created"
	EventOrderStatusChanged = "orders.status.changed"
)

// ExchangeEvents is the topic exchange all domain events are published to.
const ExchangeEvents = "register.events"

// Event is the envelope for all messages on the events exchange
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent creates a new event envelope
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}, nil
}

// ProductEvent is the payload for catalog.product.* events
type ProductEvent struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	ActorID   string `json:"actor_id,omitempty"`
}

// StockMovedEvent is the payload for inventory.stock.moved
type StockMovedEvent struct {
	ProductID   string `json:"product_id"`
	ItemID      string `json:"item_id,omitempty"`
	MovementID  string `json:"movement_id"`
	Kind        string `json:"kind"`
	Quantity    int    `json:"quantity"`
	SignedDelta int    `json:"signed_delta"`
	NewQuantity int    `json:"new_quantity"`
	ActorID     string `json:"actor_id,omitempty"`
}

// LowStockEvent is the payload for inventory.low_stock
type LowStockEvent struct {
	ProductID     string `json:"product_id"`
	ItemID        string `json:"item_id,omitempty"`
	Quantity      int    `json:"quantity"`
	MinStockLevel int    `json:"min_stock_level"`
}

// OrderEvent is the payload for orders.* events
type OrderEvent struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	OldStatus   string `json:"old_status,omitempty"`
	TotalCents  int64  `json:"total_cents"`
	ActorID     string `json:"actor_id,omitempty"`
}
