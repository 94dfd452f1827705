package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/registerhq/register-backend/pkg/database"
)

// Movement kinds
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
	MovementTransfer   = "transfer"
)

// ValidMovementKind reports whether the kind is one of the four recognized
// movement kinds
func ValidMovementKind(kind string) bool {
	switch kind {
	case MovementIn, MovementOut, MovementAdjustment, MovementTransfer:
		return true
	}
	return false
}

// InventoryMovement is an immutable ledger row recording a stock change.
// Rows are only ever inserted; the repository exposes no update or delete.
type InventoryMovement struct {
	ID              string    `db:"id" json:"id"`
	ProductID       *string   `db:"product_id" json:"product_id,omitempty"`
	Kind            string    `db:"kind" json:"kind"`
	Quantity        int       `db:"quantity" json:"quantity"`
	ReferenceNumber *string   `db:"reference_number" json:"reference_number,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// SignedDelta returns the quantity change the movement applies to a stock
// snapshot: incoming stock adds, outgoing stock subtracts, adjustments and
// transfers carry their sign as given.
func (m *InventoryMovement) SignedDelta() int {
	switch m.Kind {
	case MovementIn:
		return m.Quantity
	case MovementOut:
		return -m.Quantity
	default:
		return m.Quantity
	}
}

// MovementRepository handles movement persistence
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Insert appends a movement row
func (r *MovementRepository) Insert(ctx context.Context, m *InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO inventory_movements (id, product_id, kind, quantity, reference_number, notes, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.ProductID, m.Kind, m.Quantity, m.ReferenceNumber, m.Notes, m.UserID,
	).Scan(&m.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// InsertTx appends a movement row inside the caller's transaction
func (r *MovementRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, m *InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO inventory_movements (id, product_id, kind, quantity, reference_number, notes, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		m.ID, m.ProductID, m.Kind, m.Quantity, m.ReferenceNumber, m.Notes, m.UserID,
	).Scan(&m.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// List lists movements newest first, optionally filtered by product
func (r *MovementRepository) List(ctx context.Context, productID string, page, perPage int) ([]*InventoryMovement, int64, error) {
	where := ``
	args := []interface{}{}

	if productID != "" {
		where = ` WHERE product_id = $1`
		args = append(args, productID)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM inventory_movements`+where, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT id, product_id, kind, quantity, reference_number, notes, user_id, created_at
		FROM inventory_movements` + where + `
		ORDER BY created_at DESC
	`
	if productID != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, perPage, offset)

	var movements []*InventoryMovement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// ProductExists reports whether a product row exists
func (r *MovementRepository) ProductExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id)
	return exists, err
}
