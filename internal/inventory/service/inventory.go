package service

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/registerhq/register-backend/internal/inventory/events"
	"github.com/registerhq/register-backend/internal/inventory/repository"
	"github.com/registerhq/register-backend/pkg/actor"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/registerhq/register-backend/pkg/logger"
)

// Stock level defaults applied when thresholds are not supplied
const (
	DefaultMinStockLevel = 10
	DefaultMaxStockLevel = 1000
)

// InventoryService handles inventory business logic. Every multi-entity
// mutation runs in a single transaction: readers never observe a partial
// tag set or a movement without its quantity update.
type InventoryService struct {
	db           *database.DB
	groupRepo    *repository.GroupRepository
	itemRepo     *repository.ItemRepository
	tagRepo      *repository.TagRepository
	movementRepo *repository.MovementRepository
	publisher    *events.InventoryEventPublisher
	logger       *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	db *database.DB,
	groupRepo *repository.GroupRepository,
	itemRepo *repository.ItemRepository,
	tagRepo *repository.TagRepository,
	movementRepo *repository.MovementRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		db:           db,
		groupRepo:    groupRepo,
		itemRepo:     itemRepo,
		tagRepo:      tagRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// Group operations

// GroupPatch lists the group fields that may be updated
type GroupPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateGroup creates a new inventory group
func (s *InventoryService) CreateGroup(ctx context.Context, g *repository.InventoryGroup) error {
	return s.groupRepo.Create(ctx, g)
}

// GetGroup gets a group by ID
func (s *InventoryService) GetGroup(ctx context.Context, id string) (*repository.InventoryGroup, error) {
	return s.groupRepo.GetByID(ctx, id)
}

// ListGroups lists all groups
func (s *InventoryService) ListGroups(ctx context.Context) ([]*repository.InventoryGroup, error) {
	return s.groupRepo.List(ctx)
}

// UpdateGroup applies a partial update to a group
func (s *InventoryService) UpdateGroup(ctx context.Context, id string, patch *GroupPatch) (*repository.InventoryGroup, error) {
	g, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Description != nil {
		g.Description = patch.Description
	}

	if err := s.groupRepo.Update(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}

// DeleteGroup hard deletes a group with all its items
func (s *InventoryService) DeleteGroup(ctx context.Context, id string) error {
	return s.groupRepo.Delete(ctx, id)
}

// Item operations

// CreateItemInput carries a new item specification
type CreateItemInput struct {
	Name          string   `json:"name" validate:"required"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	ProductID     *string  `json:"product_id" validate:"omitempty,uuid"`
	LocationID    *string  `json:"location_id" validate:"omitempty,uuid"`
	Quantity      int      `json:"quantity" validate:"gte=0"`
	MinStockLevel *int     `json:"min_stock_level" validate:"omitempty,gte=0"`
	MaxStockLevel *int     `json:"max_stock_level" validate:"omitempty,gte=0"`
	Tags          []string `json:"tags"`
}

// ItemPatch lists the item fields that may be updated. A non-nil Tags
// replaces the association set wholesale.
type ItemPatch struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Category      *string   `json:"category"`
	ProductID     *string   `json:"product_id"`
	LocationID    *string   `json:"location_id"`
	Quantity      *int      `json:"quantity"`
	MinStockLevel *int      `json:"min_stock_level"`
	MaxStockLevel *int      `json:"max_stock_level"`
	Tags          *[]string `json:"tags"`
}

// CreateItem creates an item in a group, resolving its tags, in one
// transaction
func (s *InventoryService) CreateItem(ctx context.Context, groupID string, input *CreateItemInput) (*repository.InventoryItem, error) {
	exists, err := s.groupRepo.Exists(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("inventory group")
	}

	item := &repository.InventoryItem{
		GroupID:       groupID,
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		ProductID:     input.ProductID,
		LocationID:    input.LocationID,
		Quantity:      input.Quantity,
		MinStockLevel: DefaultMinStockLevel,
		MaxStockLevel: DefaultMaxStockLevel,
	}
	if input.MinStockLevel != nil {
		item.MinStockLevel = *input.MinStockLevel
	}
	if input.MaxStockLevel != nil {
		item.MaxStockLevel = *input.MaxStockLevel
	}

	if err := validateItem(item); err != nil {
		return nil, err
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkItemRefsTx(ctx, tx, item, ""); err != nil {
			return err
		}

		if err := s.itemRepo.CreateTx(ctx, tx, item); err != nil {
			return err
		}

		tagIDs, err := s.resolveTagsTx(ctx, tx, input.Tags)
		if err != nil {
			return err
		}

		if err := s.itemRepo.ReplaceTagsTx(ctx, tx, item.ID, tagIDs); err != nil {
			return err
		}

		return s.itemRepo.LoadTagsTx(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// GetItem gets an item in a group
func (s *InventoryService) GetItem(ctx context.Context, groupID, id string) (*repository.InventoryItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.GroupID != groupID {
		return nil, errors.NotFound("inventory item")
	}

	return item, nil
}

// ListItems lists a group's items
func (s *InventoryService) ListItems(ctx context.Context, groupID string) ([]*repository.InventoryItem, error) {
	exists, err := s.groupRepo.Exists(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("inventory group")
	}

	return s.itemRepo.ListByGroup(ctx, groupID)
}

// ListLowStock returns all items at or below their minimum stock level
func (s *InventoryService) ListLowStock(ctx context.Context) ([]*repository.InventoryItem, error) {
	return s.itemRepo.ListLowStock(ctx)
}

// UpdateItem applies a partial update to an item. When Tags is supplied the
// whole association set is replaced in the same transaction.
func (s *InventoryService) UpdateItem(ctx context.Context, groupID, id string, patch *ItemPatch) (*repository.InventoryItem, error) {
	var item *repository.InventoryItem

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		item, err = s.itemRepo.GetByIDForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if item.GroupID != groupID {
			return errors.NotFound("inventory item")
		}

		if patch.Name != nil {
			item.Name = *patch.Name
		}
		if patch.Description != nil {
			item.Description = patch.Description
		}
		if patch.Category != nil {
			item.Category = patch.Category
		}
		if patch.ProductID != nil {
			item.ProductID = patch.ProductID
		}
		if patch.LocationID != nil {
			item.LocationID = patch.LocationID
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.MinStockLevel != nil {
			item.MinStockLevel = *patch.MinStockLevel
		}
		if patch.MaxStockLevel != nil {
			item.MaxStockLevel = *patch.MaxStockLevel
		}

		if err := validateItem(item); err != nil {
			return err
		}

		if err := s.checkItemRefsTx(ctx, tx, item, item.ID); err != nil {
			return err
		}

		if err := s.itemRepo.UpdateTx(ctx, tx, item); err != nil {
			return err
		}

		if patch.Tags != nil {
			tagIDs, err := s.resolveTagsTx(ctx, tx, *patch.Tags)
			if err != nil {
				return err
			}
			if err := s.itemRepo.ReplaceTagsTx(ctx, tx, item.ID, tagIDs); err != nil {
				return err
			}
		}

		return s.itemRepo.LoadTagsTx(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// DeleteItem hard deletes an item, detaching its tags
func (s *InventoryService) DeleteItem(ctx context.Context, groupID, id string) error {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.GroupID != groupID {
		return errors.NotFound("inventory item")
	}

	return s.itemRepo.Delete(ctx, id)
}

// Movement operations

// MovementInput carries a movement to be recorded
type MovementInput struct {
	ProductID       string  `json:"product_id" validate:"required,uuid"`
	Kind            string  `json:"kind" validate:"required"`
	Quantity        int     `json:"quantity"`
	ReferenceNumber *string `json:"reference_number"`
	Notes           *string `json:"notes"`
}

// AdjustInput carries a stock adjustment against an inventory item
type AdjustInput struct {
	Kind            string  `json:"kind" validate:"required"`
	Quantity        int     `json:"quantity"`
	ReferenceNumber *string `json:"reference_number"`
	Notes           *string `json:"notes"`
}

// RecordMovement appends an immutable movement row. It does not touch any
// quantity snapshot; atomic quantity application goes through AdjustStock.
func (s *InventoryService) RecordMovement(ctx context.Context, input *MovementInput) (*repository.InventoryMovement, error) {
	if err := validateMovement(input.Kind, input.Quantity); err != nil {
		return nil, err
	}

	exists, err := s.movementRepo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("product")
	}

	m := &repository.InventoryMovement{
		ProductID:       &input.ProductID,
		Kind:            input.Kind,
		Quantity:        input.Quantity,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		UserID:          actorIDPtr(ctx),
	}

	if err := s.movementRepo.Insert(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// ListMovements lists movements newest first, optionally filtered by product
func (s *InventoryService) ListMovements(ctx context.Context, productID string, page, perPage int) ([]*repository.InventoryMovement, int64, error) {
	return s.movementRepo.List(ctx, productID, page, perPage)
}

// AdjustStock applies a movement to an item's quantity and appends the
// ledger row in one transaction, both-or-neither. The resulting quantity
// must not be negative.
func (s *InventoryService) AdjustStock(ctx context.Context, itemID string, input *AdjustInput) (*repository.InventoryItem, *repository.InventoryMovement, error) {
	if err := validateMovement(input.Kind, input.Quantity); err != nil {
		return nil, nil, err
	}

	var item *repository.InventoryItem
	m := &repository.InventoryMovement{
		Kind:            input.Kind,
		Quantity:        input.Quantity,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		UserID:          actorIDPtr(ctx),
	}

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		item, err = s.itemRepo.GetByIDForUpdateTx(ctx, tx, itemID)
		if err != nil {
			return err
		}

		newQuantity := item.Quantity + m.SignedDelta()
		if newQuantity < 0 {
			return errors.Validation(map[string]string{
				"quantity": "insufficient stock: " + strconv.Itoa(item.Quantity) + " available",
			})
		}

		if err := s.itemRepo.UpdateQuantityTx(ctx, tx, itemID, newQuantity); err != nil {
			return err
		}
		item.Quantity = newQuantity

		m.ProductID = item.ProductID
		return s.movementRepo.InsertTx(ctx, tx, m)
	})
	if err != nil {
		return nil, nil, err
	}

	s.publisher.PublishStockMoved(ctx, item, m, actorID(ctx))
	if item.IsLowStock() {
		s.publisher.PublishLowStock(ctx, item)
	}

	return item, m, nil
}

// Tag operations

// ListTags lists all tags
func (s *InventoryService) ListTags(ctx context.Context) ([]*repository.Tag, error) {
	return s.tagRepo.List(ctx)
}

// ResolveTag looks up or creates a tag by name
func (s *InventoryService) ResolveTag(ctx context.Context, name string, description *string) (*repository.Tag, error) {
	var tag *repository.Tag

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		tag, err = s.tagRepo.Resolve(ctx, tx, name, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *InventoryService) resolveTagsTx(ctx context.Context, tx *sqlx.Tx, names []string) ([]string, error) {
	tagIDs := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		tag, err := s.tagRepo.Resolve(ctx, tx, name, nil)
		if err != nil {
			return nil, err
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	return tagIDs, nil
}

func (s *InventoryService) checkItemRefsTx(ctx context.Context, tx *sqlx.Tx, item *repository.InventoryItem, excludeID string) error {
	if item.ProductID != nil {
		exists, err := s.itemRepo.ProductExistsTx(ctx, tx, *item.ProductID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("product")
		}
	}
	if item.LocationID != nil {
		exists, err := s.itemRepo.LocationExistsTx(ctx, tx, *item.LocationID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("location")
		}
	}

	if item.ProductID != nil && item.LocationID != nil {
		taken, err := s.itemRepo.ProductLocationTakenTx(ctx, tx, *item.ProductID, *item.LocationID, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return errors.Conflict("an inventory record for this product and location already exists")
		}
	}

	return nil
}

func validateItem(item *repository.InventoryItem) error {
	details := map[string]string{}
	if item.Quantity < 0 {
		details["quantity"] = "must not be negative"
	}
	if item.MinStockLevel < 0 {
		details["min_stock_level"] = "must not be negative"
	}
	if item.MaxStockLevel < 0 {
		details["max_stock_level"] = "must not be negative"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

func validateMovement(kind string, quantity int) error {
	if !repository.ValidMovementKind(kind) {
		return errors.Validation(map[string]string{
			"kind": "must be one of: in, out, adjustment, transfer",
		})
	}
	if quantity == 0 {
		return errors.Validation(map[string]string{
			"quantity": "must not be zero",
		})
	}
	if (kind == repository.MovementIn || kind == repository.MovementOut) && quantity < 0 {
		return errors.Validation(map[string]string{
			"quantity": "must be positive for in and out movements",
		})
	}
	return nil
}

func actorID(ctx context.Context) string {
	if a := actor.FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}

func actorIDPtr(ctx context.Context) *string {
	if a := actor.FromContext(ctx); a != nil {
		return &a.ID
	}
	return nil
}
