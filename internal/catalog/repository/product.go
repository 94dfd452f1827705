package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// Product represents a catalog product
type Product struct {
	ID             string    `db:"id" json:"id"`
	SKU            *string   `db:"sku" json:"sku,omitempty"`
	Barcode        *string   `db:"barcode" json:"barcode,omitempty"`
	Name           string    `db:"name" json:"name"`
	Description    *string   `db:"description" json:"description,omitempty"`
	CategoryID     *string   `db:"category_id" json:"category_id,omitempty"`
	SupplierID     *string   `db:"supplier_id" json:"supplier_id,omitempty"`
	Unit           string    `db:"unit" json:"unit"`
	PriceCents     int       `db:"price_cents" json:"price_cents"`
	CostPriceCents int       `db:"cost_price_cents" json:"cost_price_cents"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedBy      *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	// Computed fields for API compatibility
	Price     float64 `db:"-" json:"price"`
	CostPrice float64 `db:"-" json:"cost_price"`
}

func (p *Product) deriveMoney() {
	p.Price = float64(p.PriceCents) / 100.0
	p.CostPrice = float64(p.CostPriceCents) / 100.0
}

// ProductFilter narrows product listings
type ProductFilter struct {
	IsActive   *bool
	CategoryID string
	Search     string
}

const productColumns = `
	id, sku, barcode, name, description, category_id, supplier_id, unit,
	price_cents, cost_price_cents, is_active, created_by, created_at, updated_at`

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product. SKU and barcode, when present, must be
// unique across active and inactive products.
func (r *ProductRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Unit == "" {
		p.Unit = "pcs"
	}

	if p.SKU != nil {
		taken, err := r.skuTaken(ctx, *p.SKU, "")
		if err != nil {
			return err
		}
		if taken {
			return errors.Conflict("a product with this SKU already exists")
		}
	}
	if p.Barcode != nil {
		taken, err := r.barcodeTaken(ctx, *p.Barcode, "")
		if err != nil {
			return err
		}
		if taken {
			return errors.Conflict("a product with this barcode already exists")
		}
	}

	query := `
		INSERT INTO products (
			id, sku, barcode, name, description, category_id, supplier_id, unit,
			price_cents, cost_price_cents, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.SKU, p.Barcode, p.Name, p.Description, p.CategoryID, p.SupplierID,
		p.Unit, p.PriceCents, p.CostPriceCents, p.IsActive, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	p.deriveMoney()
	return nil
}

// GetByID gets a product by ID. Soft-deleted products remain retrievable.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	err := r.db.GetContext(ctx, &p, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}

	p.deriveMoney()
	return &p, nil
}

// GetBySKU gets a product by SKU
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	var p Product
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`

	err := r.db.GetContext(ctx, &p, query, sku)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}

	p.deriveMoney()
	return &p, nil
}

// GetByBarcode gets a product by barcode
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*Product, error) {
	var p Product
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`

	err := r.db.GetContext(ctx, &p, query, barcode)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}

	p.deriveMoney()
	return &p, nil
}

// List lists products with pagination. Search matches name, description,
// SKU and barcode case-insensitively, OR-combined.
func (r *ProductRepository) List(ctx context.Context, page, perPage int, filter ProductFilter) ([]*Product, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += ` AND category_id = $` + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR description ILIKE $` + n +
			` OR sku ILIKE $` + n + ` OR barcode ILIKE $` + n + `)`
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`+where, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	args = append(args, perPage, offset)
	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY name LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}

	for _, p := range products {
		p.deriveMoney()
	}

	return products, total, nil
}

// Update updates a product. Changed SKU/barcode values are re-validated
// excluding the product's own row.
func (r *ProductRepository) Update(ctx context.Context, p *Product) error {
	if p.SKU != nil {
		taken, err := r.skuTaken(ctx, *p.SKU, p.ID)
		if err != nil {
			return err
		}
		if taken {
			return errors.Conflict("a product with this SKU already exists")
		}
	}
	if p.Barcode != nil {
		taken, err := r.barcodeTaken(ctx, *p.Barcode, p.ID)
		if err != nil {
			return err
		}
		if taken {
			return errors.Conflict("a product with this barcode already exists")
		}
	}

	query := `
		UPDATE products SET
			sku = $2, barcode = $3, name = $4, description = $5, category_id = $6,
			supplier_id = $7, unit = $8, price_cents = $9, cost_price_cents = $10,
			is_active = $11, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.SKU, p.Barcode, p.Name, p.Description, p.CategoryID,
		p.SupplierID, p.Unit, p.PriceCents, p.CostPriceCents, p.IsActive,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	p.deriveMoney()
	return nil
}

// SoftDelete deactivates a product. The row and its history stay intact.
func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// Exists reports whether a product row exists
func (r *ProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id)
	return exists, err
}

func (r *ProductRepository) skuTaken(ctx context.Context, sku, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1`
	args := []interface{}{sku}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}
	query += `)`

	var taken bool
	err := r.db.GetContext(ctx, &taken, query, args...)
	return taken, err
}

func (r *ProductRepository) barcodeTaken(ctx context.Context, barcode, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE barcode = $1`
	args := []interface{}{barcode}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}
	query += `)`

	var taken bool
	err := r.db.GetContext(ctx, &taken, query, args...)
	return taken, err
}

