package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// Location represents a physical storage location
type Location struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LocationRepository handles location persistence
type LocationRepository struct {
	db *database.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *database.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create creates a new location. Names are unique.
func (r *LocationRepository) Create(ctx context.Context, l *Location) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	taken, err := r.nameTaken(ctx, l.Name, "")
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("a location with this name already exists")
	}

	query := `
		INSERT INTO locations (id, name, description, address, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query, l.ID, l.Name, l.Description, l.Address, l.IsActive).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a location by ID
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*Location, error) {
	var l Location
	query := `SELECT id, name, description, address, is_active, created_at, updated_at FROM locations WHERE id = $1`

	err := r.db.GetContext(ctx, &l, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("location")
	}
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// List lists locations, optionally restricted to active ones
func (r *LocationRepository) List(ctx context.Context, activeOnly bool) ([]*Location, error) {
	query := `SELECT id, name, description, address, is_active, created_at, updated_at FROM locations`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	var locations []*Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, err
	}

	return locations, nil
}

// Update updates a location
func (r *LocationRepository) Update(ctx context.Context, l *Location) error {
	taken, err := r.nameTaken(ctx, l.Name, l.ID)
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("a location with this name already exists")
	}

	query := `
		UPDATE locations SET name = $2, description = $3, address = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, l.ID, l.Name, l.Description, l.Address, l.IsActive)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("location")
	}

	return nil
}

// Deactivate soft deletes a location
func (r *LocationRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE locations SET is_active = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("location")
	}

	return nil
}

// Exists reports whether a location row exists
func (r *LocationRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM locations WHERE id = $1)`, id)
	return exists, err
}

func (r *LocationRepository) nameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM locations WHERE name = $1`
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
