package service

import (
	"context"

	"github.com/registerhq/register-backend/internal/catalog/events"
	"github.com/registerhq/register-backend/internal/catalog/repository"
	"github.com/registerhq/register-backend/pkg/actor"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/registerhq/register-backend/pkg/logger"
)

// CatalogService handles catalog business logic
type CatalogService struct {
	productRepo  *repository.ProductRepository
	categoryRepo *repository.CategoryRepository
	supplierRepo *repository.SupplierRepository
	locationRepo *repository.LocationRepository
	publisher    *events.CatalogEventPublisher
	logger       *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	productRepo *repository.ProductRepository,
	categoryRepo *repository.CategoryRepository,
	supplierRepo *repository.SupplierRepository,
	locationRepo *repository.LocationRepository,
	publisher *events.CatalogEventPublisher,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		locationRepo: locationRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// ProductPatch lists the product fields that may be updated. Only non-nil
// fields are applied.
type ProductPatch struct {
	SKU            *string `json:"sku"`
	Barcode        *string `json:"barcode"`
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	CategoryID     *string `json:"category_id"`
	SupplierID     *string `json:"supplier_id"`
	Unit           *string `json:"unit"`
	PriceCents     *int    `json:"price_cents"`
	CostPriceCents *int    `json:"cost_price_cents"`
	IsActive       *bool   `json:"is_active"`
}

// Product operations

// CreateProduct creates a new product
func (s *CatalogService) CreateProduct(ctx context.Context, p *repository.Product) error {
	if p.PriceCents < 0 || p.CostPriceCents < 0 {
		return errors.Validation(map[string]string{"price": "must not be negative"})
	}

	if err := s.checkProductRefs(ctx, p.CategoryID, p.SupplierID); err != nil {
		return err
	}

	if a := actor.FromContext(ctx); a != nil && p.CreatedBy == nil {
		p.CreatedBy = &a.ID
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		return err
	}

	s.publisher.PublishProductCreated(ctx, p, actorID(ctx))
	return nil
}

// GetProduct gets a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*repository.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// GetProductBySKU gets a product by SKU
func (s *CatalogService) GetProductBySKU(ctx context.Context, sku string) (*repository.Product, error) {
	return s.productRepo.GetBySKU(ctx, sku)
}

// GetProductByBarcode gets a product by barcode
func (s *CatalogService) GetProductByBarcode(ctx context.Context, barcode string) (*repository.Product, error) {
	return s.productRepo.GetByBarcode(ctx, barcode)
}

// ListProducts lists products with filters
func (s *CatalogService) ListProducts(ctx context.Context, page, perPage int, filter repository.ProductFilter) ([]*repository.Product, int64, error) {
	return s.productRepo.List(ctx, page, perPage, filter)
}

// UpdateProduct applies a partial update to a product
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch *ProductPatch) (*repository.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.SKU != nil {
		p.SKU = patch.SKU
	}
	if patch.Barcode != nil {
		p.Barcode = patch.Barcode
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.CategoryID != nil {
		p.CategoryID = patch.CategoryID
	}
	if patch.SupplierID != nil {
		p.SupplierID = patch.SupplierID
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.PriceCents != nil {
		p.PriceCents = *patch.PriceCents
	}
	if patch.CostPriceCents != nil {
		p.CostPriceCents = *patch.CostPriceCents
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}

	if p.PriceCents < 0 || p.CostPriceCents < 0 {
		return nil, errors.Validation(map[string]string{"price": "must not be negative"})
	}

	if err := s.checkProductRefs(ctx, p.CategoryID, p.SupplierID); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publisher.PublishProductUpdated(ctx, p, actorID(ctx))
	return p, nil
}

// DeleteProduct soft deletes a product. The row remains retrievable with
// its prior data intact.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishProductDeactivated(ctx, p, actorID(ctx))
	return nil
}

// Category operations

// CategoryPatch lists the category fields that may be updated
type CategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// CreateCategory creates a new category
func (s *CatalogService) CreateCategory(ctx context.Context, c *repository.Category) error {
	return s.categoryRepo.Create(ctx, c)
}

// GetCategory gets a category by ID
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*repository.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

// ListCategories lists categories
func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]*repository.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

// UpdateCategory applies a partial update to a category
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, patch *CategoryPatch) (*repository.Category, error) {
	c, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = patch.Description
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}

	if err := s.categoryRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// DeleteCategory deactivates a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.categoryRepo.Deactivate(ctx, id)
}

// Supplier operations

// SupplierPatch lists the supplier fields that may be updated
type SupplierPatch struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	IsActive      *bool   `json:"is_active"`
}

// CreateSupplier creates a new supplier
func (s *CatalogService) CreateSupplier(ctx context.Context, sup *repository.Supplier) error {
	return s.supplierRepo.Create(ctx, sup)
}

// GetSupplier gets a supplier by ID
func (s *CatalogService) GetSupplier(ctx context.Context, id string) (*repository.Supplier, error) {
	return s.supplierRepo.GetByID(ctx, id)
}

// ListSuppliers lists suppliers
func (s *CatalogService) ListSuppliers(ctx context.Context, activeOnly bool) ([]*repository.Supplier, error) {
	return s.supplierRepo.List(ctx, activeOnly)
}

// UpdateSupplier applies a partial update to a supplier
func (s *CatalogService) UpdateSupplier(ctx context.Context, id string, patch *SupplierPatch) (*repository.Supplier, error) {
	sup, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		sup.Name = *patch.Name
	}
	if patch.ContactPerson != nil {
		sup.ContactPerson = patch.ContactPerson
	}
	if patch.Email != nil {
		sup.Email = patch.Email
	}
	if patch.Phone != nil {
		sup.Phone = patch.Phone
	}
	if patch.Address != nil {
		sup.Address = patch.Address
	}
	if patch.IsActive != nil {
		sup.IsActive = *patch.IsActive
	}

	if err := s.supplierRepo.Update(ctx, sup); err != nil {
		return nil, err
	}

	return sup, nil
}

// DeleteSupplier deactivates a supplier
func (s *CatalogService) DeleteSupplier(ctx context.Context, id string) error {
	return s.supplierRepo.Deactivate(ctx, id)
}

// Location operations

// LocationPatch lists the location fields that may be updated
type LocationPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	IsActive    *bool   `json:"is_active"`
}

// CreateLocation creates a new location
func (s *CatalogService) CreateLocation(ctx context.Context, l *repository.Location) error {
	return s.locationRepo.Create(ctx, l)
}

// GetLocation gets a location by ID
func (s *CatalogService) GetLocation(ctx context.Context, id string) (*repository.Location, error) {
	return s.locationRepo.GetByID(ctx, id)
}

// ListLocations lists locations
func (s *CatalogService) ListLocations(ctx context.Context, activeOnly bool) ([]*repository.Location, error) {
	return s.locationRepo.List(ctx, activeOnly)
}

// UpdateLocation applies a partial update to a location
func (s *CatalogService) UpdateLocation(ctx context.Context, id string, patch *LocationPatch) (*repository.Location, error) {
	l, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Description != nil {
		l.Description = patch.Description
	}
	if patch.Address != nil {
		l.Address = patch.Address
	}
	if patch.IsActive != nil {
		l.IsActive = *patch.IsActive
	}

	if err := s.locationRepo.Update(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

// DeleteLocation deactivates a location
func (s *CatalogService) DeleteLocation(ctx context.Context, id string) error {
	return s.locationRepo.Deactivate(ctx, id)
}

func (s *CatalogService) checkProductRefs(ctx context.Context, categoryID, supplierID *string) error {
	if categoryID != nil {
		exists, err := s.categoryRepo.Exists(ctx, *categoryID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("category")
		}
	}
	if supplierID != nil {
		exists, err := s.supplierRepo.Exists(ctx, *supplierID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("supplier")
		}
	}
	return nil
}

func actorID(ctx context.Context) string {
	if a := actor.FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}
