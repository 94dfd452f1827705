package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/registerhq/register-backend/internal/orders/events"
	"github.com/registerhq/register-backend/internal/orders/repository"
	"github.com/registerhq/register-backend/pkg/actor"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/registerhq/register-backend/pkg/logger"
)

// OrderService handles purchase order business logic
type OrderService struct {
	db        *database.DB
	orderRepo *repository.OrderRepository
	publisher *events.OrderEventPublisher
	logger    *logger.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	db *database.DB,
	orderRepo *repository.OrderRepository,
	publisher *events.OrderEventPublisher,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		db:        db,
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    log,
	}
}

// CreateOrderInput carries a new purchase order specification
type CreateOrderInput struct {
	SupplierID   string     `json:"supplier_id" validate:"required,uuid"`
	OrderNumber  *string    `json:"order_number"`
	ExpectedDate *time.Time `json:"expected_date"`
	Notes        *string    `json:"notes"`
}

// OrderPatch lists the order fields that may be updated. The derived total
// is deliberately absent.
type OrderPatch struct {
	SupplierID   *string    `json:"supplier_id"`
	ExpectedDate *time.Time `json:"expected_date"`
	Notes        *string    `json:"notes"`
}

// AddItemInput carries a new order line
type AddItemInput struct {
	ProductID      string `json:"product_id" validate:"required,uuid"`
	Quantity       int    `json:"quantity" validate:"gt=0"`
	UnitPriceCents int    `json:"unit_price_cents" validate:"gt=0"`
}

// Create creates a purchase order in draft status. A missing order number
// is generated from a UUID block.
func (s *OrderService) Create(ctx context.Context, input *CreateOrderInput) (*repository.PurchaseOrder, error) {
	exists, err := s.orderRepo.SupplierExists(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("supplier")
	}

	orderNumber := generateOrderNumber()
	if input.OrderNumber != nil && *input.OrderNumber != "" {
		orderNumber = *input.OrderNumber
	}

	o := &repository.PurchaseOrder{
		OrderNumber:  orderNumber,
		SupplierID:   input.SupplierID,
		Status:       repository.StatusDraft,
		OrderDate:    time.Now().UTC(),
		ExpectedDate: input.ExpectedDate,
		Notes:        input.Notes,
	}

	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.publisher.PublishOrderCreated(ctx, o, actorID(ctx))
	return o, nil
}

// Get gets an order with its lines
func (s *OrderService) Get(ctx context.Context, id string) (*repository.PurchaseOrder, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// List lists orders
func (s *OrderService) List(ctx context.Context, status, supplierID string, page, perPage int) ([]*repository.PurchaseOrder, int64, error) {
	if status != "" && !repository.ValidStatus(status) {
		return nil, 0, errors.Validation(map[string]string{
			"status": "must be one of: draft, pending, approved, ordered, received, cancelled",
		})
	}

	return s.orderRepo.List(ctx, status, supplierID, page, perPage)
}

// UpdateStatus sets the order status. Any recognized status value is
// accepted at any time; unknown values are rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*repository.PurchaseOrder, error) {
	if !repository.ValidStatus(status) {
		return nil, errors.Validation(map[string]string{
			"status": "must be one of: draft, pending, approved, ordered, received, cancelled",
		})
	}

	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := o.Status
	o.Status = status

	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publisher.PublishStatusChanged(ctx, o, oldStatus, actorID(ctx))
	return o, nil
}

// Update applies a partial update to an order
func (s *OrderService) Update(ctx context.Context, id string, patch *OrderPatch) (*repository.PurchaseOrder, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.SupplierID != nil {
		exists, err := s.orderRepo.SupplierExists(ctx, *patch.SupplierID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.NotFound("supplier")
		}
		o.SupplierID = *patch.SupplierID
	}
	if patch.ExpectedDate != nil {
		o.ExpectedDate = patch.ExpectedDate
	}
	if patch.Notes != nil {
		o.Notes = patch.Notes
	}

	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

// AddItem appends an order line and recomputes the order total in one
// transaction
func (s *OrderService) AddItem(ctx context.Context, orderID string, input *AddItemInput) (*repository.PurchaseOrderItem, error) {
	if input.Quantity <= 0 || input.UnitPriceCents <= 0 {
		return nil, errors.Validation(map[string]string{
			"quantity":   "must be greater than zero",
			"unit_price": "must be greater than zero",
		})
	}

	item := &repository.PurchaseOrderItem{
		OrderID:        orderID,
		ProductID:      input.ProductID,
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
	}

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.orderRepo.GetByIDForUpdateTx(ctx, tx, orderID); err != nil {
			return err
		}

		exists, err := s.orderRepo.ProductExistsTx(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("product")
		}

		if err := s.orderRepo.AddItemTx(ctx, tx, item); err != nil {
			return err
		}

		_, err = s.orderRepo.RecomputeTotalTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveItem deletes an order line and recomputes the order total in one
// transaction
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID string) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.orderRepo.GetByIDForUpdateTx(ctx, tx, orderID); err != nil {
			return err
		}

		if err := s.orderRepo.RemoveItemTx(ctx, tx, orderID, itemID); err != nil {
			return err
		}

		_, err := s.orderRepo.RecomputeTotalTx(ctx, tx, orderID)
		return err
	})
}

// Delete hard deletes an order with its lines
func (s *OrderService) Delete(ctx context.Context, id string) error {
	return s.orderRepo.Delete(ctx, id)
}

func generateOrderNumber() string {
	block := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return "PO-" + strings.ToUpper(block)
}

func actorID(ctx context.Context) string {
	if a := actor.FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}
