package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// InventoryItem is a stock record owned by an inventory group. Product and
// location references are optional; when both are present the pair is unique.
type InventoryItem struct {
	ID            string    `db:"id" json:"id"`
	GroupID       string    `db:"group_id" json:"group_id"`
	Name          string    `db:"name" json:"name"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Category      *string   `db:"category" json:"category,omitempty"`
	ProductID     *string   `db:"product_id" json:"product_id,omitempty"`
	LocationID    *string   `db:"location_id" json:"location_id,omitempty"`
	Quantity      int       `db:"quantity" json:"quantity"`
	MinStockLevel int       `db:"min_stock_level" json:"min_stock_level"`
	MaxStockLevel int       `db:"max_stock_level" json:"max_stock_level"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
	Tags          []*Tag    `db:"-" json:"tags"`
}

// IsLowStock reports whether the item is at or below its minimum stock
// level. Must agree with the SQL filter used by ListLowStock.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

const itemColumns = `
	id, group_id, name, description, category, product_id, location_id,
	quantity, min_stock_level, max_stock_level, created_at, updated_at`

// ItemRepository handles inventory item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// CreateTx inserts an item inside the caller's transaction
func (r *ItemRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, item *InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO inventory_items (
			id, group_id, name, description, category, product_id, location_id,
			quantity, min_stock_level, max_stock_level
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRowxContext(ctx, query,
		item.ID, item.GroupID, item.Name, item.Description, item.Category,
		item.ProductID, item.LocationID, item.Quantity, item.MinStockLevel, item.MaxStockLevel,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets an item with its tags
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*InventoryItem, error) {
	var item InventoryItem
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`

	err := r.db.GetContext(ctx, &item, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("inventory item")
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadTags(ctx, &item); err != nil {
		return nil, err
	}

	return &item, nil
}

// GetByIDForUpdateTx locks and returns an item row inside the caller's
// transaction. Used by stock adjustments to serialize quantity changes.
func (r *ItemRepository) GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*InventoryItem, error) {
	var item InventoryItem
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 FOR UPDATE`

	err := tx.GetContext(ctx, &item, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("inventory item")
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// ListByGroup lists a group's items with their tags
func (r *ItemRepository) ListByGroup(ctx context.Context, groupID string) ([]*InventoryItem, error) {
	var items []*InventoryItem
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE group_id = $1 ORDER BY name`

	if err := r.db.SelectContext(ctx, &items, query, groupID); err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := r.loadTags(ctx, item); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// ListLowStock returns all items where quantity is at or below the minimum
// stock level
func (r *ItemRepository) ListLowStock(ctx context.Context) ([]*InventoryItem, error) {
	var items []*InventoryItem
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE quantity <= min_stock_level ORDER BY name`

	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := r.loadTags(ctx, item); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// UpdateTx updates an item row inside the caller's transaction
func (r *ItemRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, item *InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			name = $2, description = $3, category = $4, product_id = $5, location_id = $6,
			quantity = $7, min_stock_level = $8, max_stock_level = $9, updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.Category, item.ProductID,
		item.LocationID, item.Quantity, item.MinStockLevel, item.MaxStockLevel,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory item")
	}

	return nil
}

// UpdateQuantityTx sets the item's quantity inside the caller's transaction
func (r *ItemRepository) UpdateQuantityTx(ctx context.Context, tx *sqlx.Tx, id string, quantity int) error {
	query := `UPDATE inventory_items SET quantity = $2, updated_at = NOW() WHERE id = $1`

	result, err := tx.ExecContext(ctx, query, id, quantity)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory item")
	}

	return nil
}

// Delete hard deletes an item. Tag associations are detached by the join
// table cascade; tag rows themselves stay.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory item")
	}

	return nil
}

// ReplaceTagsTx replaces the item's tag association set inside the caller's
// transaction. Old associations are removed; the new set becomes exactly
// the given tag IDs.
func (r *ItemRepository) ReplaceTagsTx(ctx context.Context, tx *sqlx.Tx, itemID string, tagIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_item_tags WHERE item_id = $1`, itemID); err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_item_tags (item_id, tag_id) VALUES ($1, $2)`,
			itemID, tagID,
		); err != nil {
			if appErr := database.MapPQError(err); appErr != nil {
				return appErr
			}
			return err
		}
	}

	return nil
}

// ProductLocationTakenTx reports whether another item already references the
// same (product, location) pair. Backed by a partial unique index for the
// concurrent case.
func (r *ItemRepository) ProductLocationTakenTx(ctx context.Context, tx *sqlx.Tx, productID, locationID, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE product_id = $1 AND location_id = $2`
	args := []interface{}{productID, locationID}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}
	query += `)`

	var taken bool
	err := tx.GetContext(ctx, &taken, query, args...)
	return taken, err
}

// ProductExistsTx reports whether a product row exists, inside the caller's
// transaction
func (r *ItemRepository) ProductExistsTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id)
	return exists, err
}

// LocationExistsTx reports whether a location row exists, inside the
// caller's transaction
func (r *ItemRepository) LocationExistsTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM locations WHERE id = $1)`, id)
	return exists, err
}

// LoadTagsTx loads the item's tags inside the caller's transaction
func (r *ItemRepository) LoadTagsTx(ctx context.Context, tx *sqlx.Tx, item *InventoryItem) error {
	query := `
		SELECT t.id, t.name, t.description, t.created_at
		FROM tags t
		JOIN inventory_item_tags it ON it.tag_id = t.id
		WHERE it.item_id = $1
		ORDER BY t.name
	`

	item.Tags = []*Tag{}
	return tx.SelectContext(ctx, &item.Tags, query, item.ID)
}

func (r *ItemRepository) loadTags(ctx context.Context, item *InventoryItem) error {
	query := `
		SELECT t.id, t.name, t.description, t.created_at
		FROM tags t
		JOIN inventory_item_tags it ON it.tag_id = t.id
		WHERE it.item_id = $1
		ORDER BY t.name
	`

	item.Tags = []*Tag{}
	return r.db.SelectContext(ctx, &item.Tags, query, item.ID)
}
