package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// Purchase order statuses
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusOrdered   = "ordered"
	StatusReceived  = "received"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether the status is one of the six recognized
// values. Transitions between recognized statuses are caller-directed and
// not restricted to a forward-only order.
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPending, StatusApproved, StatusOrdered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// PurchaseOrder represents a multi-line purchase order. TotalAmountCents is
// derived from the lines and never set directly by callers.
type PurchaseOrder struct {
	ID               string     `db:"id" json:"id"`
	OrderNumber      string     `db:"order_number" json:"order_number"`
	SupplierID       string     `db:"supplier_id" json:"supplier_id"`
	Status           string     `db:"status" json:"status"`
	OrderDate        time.Time  `db:"order_date" json:"order_date"`
	ExpectedDate     *time.Time `db:"expected_date" json:"expected_date,omitempty"`
	TotalAmountCents int64      `db:"total_amount_cents" json:"total_amount_cents"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	// Computed fields for API compatibility
	TotalAmount float64              `db:"-" json:"total_amount"`
	Items       []*PurchaseOrderItem `db:"-" json:"items"`
}

func (o *PurchaseOrder) deriveMoney() {
	o.TotalAmount = float64(o.TotalAmountCents) / 100.0
	for _, item := range o.Items {
		item.deriveMoney()
	}
}

// PurchaseOrderItem is an order line. total_price = quantity × unit_price
// at fixed 2-decimal precision.
type PurchaseOrderItem struct {
	ID              string    `db:"id" json:"id"`
	OrderID         string    `db:"order_id" json:"order_id"`
	ProductID       string    `db:"product_id" json:"product_id"`
	Quantity        int       `db:"quantity" json:"quantity"`
	UnitPriceCents  int       `db:"unit_price_cents" json:"unit_price_cents"`
	TotalPriceCents int64     `db:"total_price_cents" json:"total_price_cents"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	// Computed fields for API compatibility
	UnitPrice  float64 `db:"-" json:"unit_price"`
	TotalPrice float64 `db:"-" json:"total_price"`
}

func (i *PurchaseOrderItem) deriveMoney() {
	i.UnitPrice = float64(i.UnitPriceCents) / 100.0
	i.TotalPrice = float64(i.TotalPriceCents) / 100.0
}

const orderColumns = `
	id, order_number, supplier_id, status, order_date, expected_date,
	total_amount_cents, notes, created_at, updated_at`

// OrderRepository handles purchase order persistence
type OrderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create creates a new purchase order. Order numbers are unique.
func (r *OrderRepository) Create(ctx context.Context, o *PurchaseOrder) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	taken, err := r.orderNumberTaken(ctx, o.OrderNumber, "")
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("a purchase order with this order number already exists")
	}

	query := `
		INSERT INTO purchase_orders (id, order_number, supplier_id, status, order_date, expected_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING total_amount_cents, created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		o.ID, o.OrderNumber, o.SupplierID, o.Status, o.OrderDate, o.ExpectedDate, o.Notes,
	).Scan(&o.TotalAmountCents, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	o.Items = []*PurchaseOrderItem{}
	o.deriveMoney()
	return nil
}

// GetByID gets an order with its lines
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*PurchaseOrder, error) {
	var o PurchaseOrder
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1`

	err := r.db.GetContext(ctx, &o, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("purchase order")
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}

	o.deriveMoney()
	return &o, nil
}

// List lists orders with their lines, optionally filtered by status and
// supplier
func (r *OrderRepository) List(ctx context.Context, status, supplierID string, page, perPage int) ([]*PurchaseOrder, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if status != "" {
		args = append(args, status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if supplierID != "" {
		args = append(args, supplierID)
		where += ` AND supplier_id = $` + strconv.Itoa(len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM purchase_orders`+where, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	args = append(args, perPage, offset)
	query := `SELECT ` + orderColumns + ` FROM purchase_orders` + where +
		` ORDER BY order_date DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	var orders []*PurchaseOrder
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}

	for _, o := range orders {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, 0, err
		}
		o.deriveMoney()
	}

	return orders, total, nil
}

// Update updates an order's mutable fields. The derived total is untouched.
func (r *OrderRepository) Update(ctx context.Context, o *PurchaseOrder) error {
	query := `
		UPDATE purchase_orders SET
			supplier_id = $2, status = $3, expected_date = $4, notes = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, o.ID, o.SupplierID, o.Status, o.ExpectedDate, o.Notes)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("purchase order")
	}

	return nil
}

// Delete hard deletes an order with its lines
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("purchase order")
	}

	return nil
}

// GetByIDForUpdateTx locks and returns an order row inside the caller's
// transaction. Used by line mutations to serialize total recomputation.
func (r *OrderRepository) GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*PurchaseOrder, error) {
	var o PurchaseOrder
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1 FOR UPDATE`

	err := tx.GetContext(ctx, &o, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("purchase order")
	}
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// AddItemTx inserts an order line inside the caller's transaction
func (r *OrderRepository) AddItemTx(ctx context.Context, tx *sqlx.Tx, item *PurchaseOrderItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.TotalPriceCents = int64(item.Quantity) * int64(item.UnitPriceCents)

	query := `
		INSERT INTO purchase_order_items (id, order_id, product_id, quantity, unit_price_cents, total_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPriceCents, item.TotalPriceCents,
	).Scan(&item.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	item.deriveMoney()
	return nil
}

// RemoveItemTx deletes an order line inside the caller's transaction
func (r *OrderRepository) RemoveItemTx(ctx context.Context, tx *sqlx.Tx, orderID, itemID string) error {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM purchase_order_items WHERE id = $1 AND order_id = $2`,
		itemID, orderID,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("purchase order item")
	}

	return nil
}

// RecomputeTotalTx recomputes the order total from its lines inside the
// caller's transaction and returns the new total in cents
func (r *OrderRepository) RecomputeTotalTx(ctx context.Context, tx *sqlx.Tx, orderID string) (int64, error) {
	var total int64
	query := `
		UPDATE purchase_orders SET
			total_amount_cents = COALESCE(
				(SELECT SUM(total_price_cents) FROM purchase_order_items WHERE order_id = $1), 0
			),
			updated_at = NOW()
		WHERE id = $1
		RETURNING total_amount_cents
	`

	err := tx.QueryRowxContext(ctx, query, orderID).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, errors.NotFound("purchase order")
	}
	if err != nil {
		return 0, err
	}

	return total, nil
}

// SupplierExists reports whether a supplier row exists
func (r *OrderRepository) SupplierExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)`, id)
	return exists, err
}

// ProductExistsTx reports whether a product row exists, inside the caller's
// transaction
func (r *OrderRepository) ProductExistsTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id)
	return exists, err
}

func (r *OrderRepository) loadItems(ctx context.Context, o *PurchaseOrder) error {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price_cents, total_price_cents, created_at
		FROM purchase_order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	o.Items = []*PurchaseOrderItem{}
	return r.db.SelectContext(ctx, &o.Items, query, o.ID)
}

func (r *OrderRepository) orderNumberTaken(ctx context.Context, orderNumber, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM purchase_orders WHERE order_number = $1`
	args := []interface{}{orderNumber}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}
	query += `)`

	var taken bool
	err := r.db.GetContext(ctx, &taken, query, args...)
	return taken, err
}
