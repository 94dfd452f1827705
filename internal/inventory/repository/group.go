package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// InventoryGroup is a named container owning inventory items
type InventoryGroup struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GroupRepository handles inventory group persistence
type GroupRepository struct {
	db *database.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create creates a new inventory group. Names are unique.
func (r *GroupRepository) Create(ctx context.Context, g *InventoryGroup) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}

	taken, err := r.nameTaken(ctx, g.Name, "")
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("an inventory group with this name already exists")
	}

	query := `
		INSERT INTO inventory_groups (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query, g.ID, g.Name, g.Description).
		Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a group by ID
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*InventoryGroup, error) {
	var g InventoryGroup
	query := `SELECT id, name, description, created_at, updated_at FROM inventory_groups WHERE id = $1`

	err := r.db.GetContext(ctx, &g, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("inventory group")
	}
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// List lists all groups
func (r *GroupRepository) List(ctx context.Context) ([]*InventoryGroup, error) {
	var groups []*InventoryGroup
	query := `SELECT id, name, description, created_at, updated_at FROM inventory_groups ORDER BY name`

	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, err
	}

	return groups, nil
}

// Update updates a group
func (r *GroupRepository) Update(ctx context.Context, g *InventoryGroup) error {
	taken, err := r.nameTaken(ctx, g.Name, g.ID)
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("an inventory group with this name already exists")
	}

	query := `UPDATE inventory_groups SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, g.ID, g.Name, g.Description)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory group")
	}

	return nil
}

// Delete hard deletes a group. Owned items are removed by the cascade;
// tag rows are untouched.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory group")
	}

	return nil
}

// Exists reports whether a group row exists
func (r *GroupRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM inventory_groups WHERE id = $1)`, id)
	return exists, err
}

func (r *GroupRepository) nameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM inventory_groups WHERE name = $1`
	args := []interface{}{name}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}
	query += `)`

	var taken bool
	err := r.db.GetContext(ctx, &taken, query, args...)
	return taken, err
}
