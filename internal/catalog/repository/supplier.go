package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// Supplier represents a product supplier
type Supplier struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson *string   `db:"contact_person" json:"contact_person,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SupplierRepository handles supplier persistence
type SupplierRepository struct {
	db *database.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *database.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create creates a new supplier. Names are unique.
func (r *SupplierRepository) Create(ctx context.Context, s *Supplier) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	taken, err := r.nameTaken(ctx, s.Name, "")
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("a supplier with this name already exists")
	}

	query := `
		INSERT INTO suppliers (id, name, contact_person, email, phone, address, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.IsActive,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a supplier by ID
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*Supplier, error) {
	var s Supplier
	query := `
		SELECT id, name, contact_person, email, phone, address, is_active, created_at, updated_at
		FROM suppliers WHERE id = $1
	`

	err := r.db.GetContext(ctx, &s, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("supplier")
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// List lists suppliers, optionally restricted to active ones
func (r *SupplierRepository) List(ctx context.Context, activeOnly bool) ([]*Supplier, error) {
	query := `
		SELECT id, name, contact_person, email, phone, address, is_active, created_at, updated_at
		FROM suppliers
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	var suppliers []*Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, err
	}

	return suppliers, nil
}

// Update updates a supplier
func (r *SupplierRepository) Update(ctx context.Context, s *Supplier) error {
	taken, err := r.nameTaken(ctx, s.Name, s.ID)
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("a supplier with this name already exists")
	}

	query := `
		UPDATE suppliers SET
			name = $2, contact_person = $3, email = $4, phone = $5, address = $6,
			is_active = $7, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.IsActive,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("supplier")
	}

	return nil
}

// Deactivate soft deletes a supplier
func (r *SupplierRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE suppliers SET is_active = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("supplier")
	}

	return nil
}

// Exists reports whether a supplier row exists
func (r *SupplierRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)`, id)
	return exists, err
}

func (r *SupplierRepository) nameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM suppliers WHERE name = $1`
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
