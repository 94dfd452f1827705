package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// Category represents a product category
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryRepository handles category persistence
type CategoryRepository struct {
	db *database.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a new category. Names are unique.
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	taken, err := r.nameTaken(ctx, c.Name, "")
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("a category with this name already exists")
	}

	query := `
		INSERT INTO categories (id, name, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.Description, c.IsActive).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	var c Category
	query := `SELECT id, name, description, is_active, created_at, updated_at FROM categories WHERE id = $1`

	err := r.db.GetContext(ctx, &c, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("category")
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// List lists categories, optionally restricted to active ones
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]*Category, error) {
	query := `SELECT id, name, description, is_active, created_at, updated_at FROM categories`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	var categories []*Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}

	return categories, nil
}

// Update updates a category. A changed name is re-validated excluding the
// category's own row.
func (r *CategoryRepository) Update(ctx context.Context, c *Category) error {
	taken, err := r.nameTaken(ctx, c.Name, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("a category with this name already exists")
	}

	query := `
		UPDATE categories SET name = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Description, c.IsActive)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("category")
	}

	return nil
}

// Deactivate soft deletes a category
func (r *CategoryRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE categories SET is_active = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("category")
	}

	return nil
}

// Exists reports whether a category row exists
func (r *CategoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id)
	return exists, err
}

func (r *CategoryRepository) nameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1`
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
