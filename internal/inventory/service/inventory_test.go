package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/registerhq/register-backend/internal/inventory/events"
	"github.com/registerhq/register-backend/internal/inventory/repository"
	"github.com/registerhq/register-backend/pkg/actor"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/registerhq/register-backend/pkg/logger"
	"github.com/registerhq/register-backend/pkg/messaging"
	"github.com/registerhq/register-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventoryServiceTest(t *testing.T) (*InventoryService, *testutil.MockDB, *testutil.MockPublisher) {
	mock := testutil.NewMockDB(t)
	t.Cleanup(func() { mock.Close() })

	log := logger.New("test", "test")
	db := database.NewFromSqlx(mock.DB, log)
	publisher := testutil.NewMockPublisher()

	svc := NewInventoryService(
		db,
		repository.NewGroupRepository(db),
		repository.NewItemRepository(db),
		repository.NewTagRepository(db),
		repository.NewMovementRepository(db),
		events.NewInventoryEventPublisherWith(publisher, log),
		log,
	)
	return svc, mock, publisher
}

func itemColumns() []string {
	return []string{
		"id", "group_id", "name", "description", "category", "product_id", "location_id",
		"quantity", "min_stock_level", "max_stock_level", "created_at", "updated_at",
	}
}

func lockedItemRow(mock *testutil.MockDB, id, groupID string, quantity, minLevel int) {
	now := time.Now()
	mock.ExpectQuery(`FROM inventory_items WHERE id = $1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(testutil.MockRows(itemColumns()...).
			AddRow(id, groupID, "Widget", nil, nil, nil, nil, quantity, minLevel, 1000, now, now))
}

func TestAdjustStock_AppliesDeltaAndAppendsMovement(t *testing.T) {
	svc, mock, publisher := newInventoryServiceTest(t)
	userID := "7d9e2c40-0000-0000-0000-0000000000aa"
	ctx := actor.WithActor(context.Background(), &actor.Actor{ID: userID, Role: actor.RoleManager})

	mock.ExpectBegin()
	lockedItemRow(mock, "item-1", "group-1", 20, 10)
	mock.ExpectExec(`UPDATE inventory_items SET quantity = $2`).
		WithArgs("item-1", 45).
		WillReturnResult(testutil.MockResult(0, 1))
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WithArgs(testutil.AnyUUID{}, nil, repository.MovementIn, 25, nil, nil, userID).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mock.ExpectCommit()

	item, movement, err := svc.AdjustStock(ctx, "item-1", &AdjustInput{
		Kind:     repository.MovementIn,
		Quantity: 25,
	})
	require.NoError(t, err)

	assert.Equal(t, 45, item.Quantity)
	assert.Equal(t, repository.MovementIn, movement.Kind)
	assert.Equal(t, 25, movement.Quantity)
	require.NotNil(t, movement.UserID)
	assert.Equal(t, userID, *movement.UserID)

	publisher.AssertEventPublished(t, messaging.EventStockMoved)
	assert.Empty(t, publisher.EventsOfType(messaging.EventLowStock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStock_OutgoingBelowMinimumPublishesLowStock(t *testing.T) {
	svc, mock, publisher := newInventoryServiceTest(t)

	mock.ExpectBegin()
	lockedItemRow(mock, "item-1", "group-1", 12, 10)
	mock.ExpectExec(`UPDATE inventory_items SET quantity = $2`).
		WithArgs("item-1", 4).
		WillReturnResult(testutil.MockResult(0, 1))
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mock.ExpectCommit()

	item, _, err := svc.AdjustStock(context.Background(), "item-1", &AdjustInput{
		Kind:     repository.MovementOut,
		Quantity: 8,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, item.Quantity)
	publisher.AssertEventPublished(t, messaging.EventStockMoved)
	publisher.AssertEventPublished(t, messaging.EventLowStock)
}

func TestAdjustStock_InsufficientStockRollsBack(t *testing.T) {
	svc, mock, publisher := newInventoryServiceTest(t)

	mock.ExpectBegin()
	lockedItemRow(mock, "item-1", "group-1", 5, 10)
	mock.ExpectRollback()

	_, _, err := svc.AdjustStock(context.Background(), "item-1", &AdjustInput{
		Kind:     repository.MovementOut,
		Quantity: 10,
	})
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrValidation))
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details["quantity"], "insufficient stock")

	// Neither the quantity update nor the movement insert happened
	assert.NoError(t, mock.ExpectationsWereMet())
	publisher.AssertNoEventsPublished(t)
}

func TestAdjustStock_NegativeAdjustmentAllowedDownToZero(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)

	mock.ExpectBegin()
	lockedItemRow(mock, "item-1", "group-1", 5, 10)
	mock.ExpectExec(`UPDATE inventory_items SET quantity = $2`).
		WithArgs("item-1", 0).
		WillReturnResult(testutil.MockResult(0, 1))
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mock.ExpectCommit()

	item, _, err := svc.AdjustStock(context.Background(), "item-1", &AdjustInput{
		Kind:     repository.MovementAdjustment,
		Quantity: -5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
}

func TestAdjustStock_RejectsBadMovements(t *testing.T) {
	svc, mock, publisher := newInventoryServiceTest(t)

	tests := []struct {
		name  string
		input *AdjustInput
		field string
	}{
		{"unknown kind", &AdjustInput{Kind: "restock", Quantity: 5}, "kind"},
		{"zero quantity", &AdjustInput{Kind: repository.MovementIn, Quantity: 0}, "quantity"},
		{"negative incoming", &AdjustInput{Kind: repository.MovementIn, Quantity: -5}, "quantity"},
		{"negative outgoing", &AdjustInput{Kind: repository.MovementOut, Quantity: -5}, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.AdjustStock(context.Background(), "item-1", tt.input)
			require.Error(t, err)

			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Details, tt.field)
		})
	}

	// Validation happens before any database work
	assert.NoError(t, mock.ExpectationsWereMet())
	publisher.AssertNoEventsPublished(t)
}

func TestCreateItem_ResolvesTagsInOneTransaction(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT EXISTS(SELECT 1 FROM inventory_groups WHERE id = $1)`).
		WithArgs("group-1").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO inventory_items`).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	// "fragile" is new, "new" already exists; the duplicate "fragile" in the
	// input resolves only once
	mock.ExpectQuery(`SELECT id, name, description, created_at FROM tags WHERE name = $1`).
		WithArgs("fragile").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO tags`).
		WithArgs(testutil.AnyUUID{}, "fragile", nil).
		WillReturnRows(testutil.MockRows("created_at").AddRow(now))
	mock.ExpectQuery(`SELECT id, name, description, created_at FROM tags WHERE name = $1`).
		WithArgs("new").
		WillReturnRows(testutil.MockRows("id", "name", "description", "created_at").
			AddRow("tag-new", "new", nil, now))

	mock.ExpectExec(`DELETE FROM inventory_item_tags`).
		WillReturnResult(testutil.MockResult(0, 0))
	mock.ExpectExec(`INSERT INTO inventory_item_tags`).
		WillReturnResult(testutil.MockResult(0, 1))
	mock.ExpectExec(`INSERT INTO inventory_item_tags`).
		WillReturnResult(testutil.MockResult(0, 1))

	mock.ExpectQuery(`JOIN inventory_item_tags`).
		WillReturnRows(testutil.MockRows("id", "name", "description", "created_at").
			AddRow("tag-fragile", "fragile", nil, now).
			AddRow("tag-new", "new", nil, now))
	mock.ExpectCommit()

	item, err := svc.CreateItem(context.Background(), "group-1", &CreateItemInput{
		Name:     "Widget",
		Quantity: 5,
		Tags:     []string{"fragile", "new", "fragile"},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultMinStockLevel, item.MinStockLevel)
	assert.Equal(t, DefaultMaxStockLevel, item.MaxStockLevel)
	require.Len(t, item.Tags, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItem_UnknownGroup(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)

	mock.ExpectQuery(`SELECT EXISTS(SELECT 1 FROM inventory_groups WHERE id = $1)`).
		WithArgs("missing").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))

	_, err := svc.CreateItem(context.Background(), "missing", &CreateItemInput{Name: "Widget"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateItem_RejectsNegativeQuantity(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)

	mock.ExpectQuery(`SELECT EXISTS(SELECT 1 FROM inventory_groups WHERE id = $1)`).
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	_, err := svc.CreateItem(context.Background(), "group-1", &CreateItemInput{
		Name:     "Widget",
		Quantity: -1,
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "quantity")
}

func TestUpdateItem_TagsOmittedLeavesAssociationsAlone(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)
	now := time.Now()
	newName := "Renamed Widget"

	mock.ExpectBegin()
	lockedItemRow(mock, "item-1", "group-1", 5, 10)
	mock.ExpectExec(`UPDATE inventory_items SET`).
		WillReturnResult(testutil.MockResult(0, 1))
	// No tag statements in between: a nil Tags patch does not touch the set
	mock.ExpectQuery(`JOIN inventory_item_tags`).
		WillReturnRows(testutil.MockRows("id", "name", "description", "created_at").
			AddRow("tag-1", "fragile", nil, now))
	mock.ExpectCommit()

	item, err := svc.UpdateItem(context.Background(), "group-1", "item-1", &ItemPatch{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, newName, item.Name)
	require.Len(t, item.Tags, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItem_WrongGroupIsNotFound(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)

	mock.ExpectBegin()
	lockedItemRow(mock, "item-1", "group-other", 5, 10)
	mock.ExpectRollback()

	name := "x"
	_, err := svc.UpdateItem(context.Background(), "group-1", "item-1", &ItemPatch{Name: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRecordMovement_RequiresKnownProduct(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)
	productID := "a0a0a0a0-0000-0000-0000-000000000001"

	mock.ExpectQuery(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`).
		WithArgs(productID).
		WillReturnRows(testutil.MockRows("exists").AddRow(false))

	_, err := svc.RecordMovement(context.Background(), &MovementInput{
		ProductID: productID,
		Kind:      repository.MovementIn,
		Quantity:  10,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRecordMovement_AppendsRow(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)
	productID := "a0a0a0a0-0000-0000-0000-000000000001"

	mock.ExpectQuery(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`).
		WithArgs(productID).
		WillReturnRows(testutil.MockRows("exists").AddRow(true))
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	m, err := svc.RecordMovement(context.Background(), &MovementInput{
		ProductID: productID,
		Kind:      repository.MovementTransfer,
		Quantity:  -3,
	})
	require.NoError(t, err)

	require.NotNil(t, m.ProductID)
	assert.Equal(t, productID, *m.ProductID)
	assert.Equal(t, -3, m.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveTag_RunsInOwnTransaction(t *testing.T) {
	svc, mock, _ := newInventoryServiceTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, description, created_at FROM tags WHERE name = $1`).
		WithArgs("fragile").
		WillReturnRows(testutil.MockRows("id", "name", "description", "created_at").
			AddRow("tag-1", "fragile", nil, time.Now()))
	mock.ExpectCommit()

	tag, err := svc.ResolveTag(context.Background(), "fragile", nil)
	require.NoError(t, err)

	assert.Equal(t, "tag-1", tag.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
