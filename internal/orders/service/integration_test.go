package service_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/registerhq/register-backend/internal/orders/events"
	"github.com/registerhq/register-backend/internal/orders/repository"
	"github.com/registerhq/register-backend/internal/orders/service"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/registerhq/register-backend/pkg/messaging"
	"github.com/registerhq/register-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer suite.Cleanup(ctx)
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newIntegrationService() (*service.OrderService, *testutil.MockPublisher) {
	publisher := testutil.NewMockPublisher()
	svc := service.NewOrderService(
		suite.DB,
		repository.NewOrderRepository(suite.DB),
		events.NewOrderEventPublisherWith(publisher, suite.Logger),
		suite.Logger,
	)
	return svc, publisher
}

func TestOrderLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	svc, publisher := newIntegrationService()

	supplierID, err := testutil.CreateSupplier(ctx, suite.RawDB, "Acme Supplies")
	require.NoError(t, err)
	widgetID, err := testutil.CreateProduct(ctx, suite.RawDB, "Widget", "WID-001", 1999)
	require.NoError(t, err)
	gadgetID, err := testutil.CreateProduct(ctx, suite.RawDB, "Gadget", "GAD-001", 4999)
	require.NoError(t, err)

	o, err := svc.Create(ctx, &service.CreateOrderInput{SupplierID: supplierID})
	require.NoError(t, err)
	assert.Equal(t, repository.StatusDraft, o.Status)
	assert.Equal(t, int64(0), o.TotalAmountCents)
	publisher.AssertEventPublished(t, messaging.EventOrderCreated)

	// Two lines; total is the sum of line totals
	line1, err := svc.AddItem(ctx, o.ID, &service.AddItemInput{
		ProductID:      widgetID,
		Quantity:       5,
		UnitPriceCents: 1999,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9995), line1.TotalPriceCents)

	_, err = svc.AddItem(ctx, o.ID, &service.AddItemInput{
		ProductID:      gadgetID,
		Quantity:       2,
		UnitPriceCents: 4999,
	})
	require.NoError(t, err)

	o, err = svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(19993), o.TotalAmountCents)
	assert.Equal(t, 199.93, o.TotalAmount)
	require.Len(t, o.Items, 2)

	// Removing a line recomputes the total
	require.NoError(t, svc.RemoveItem(ctx, o.ID, line1.ID))

	o, err = svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9998), o.TotalAmountCents)
	require.Len(t, o.Items, 1)

	// Status moves freely between recognized values
	o, err = svc.UpdateStatus(ctx, o.ID, repository.StatusReceived)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusReceived, o.Status)
	publisher.AssertEventPublished(t, messaging.EventOrderStatusChanged)

	o, err = svc.UpdateStatus(ctx, o.ID, repository.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusDraft, o.Status)

	// Deleting the order removes its lines with it
	require.NoError(t, svc.Delete(ctx, o.ID))

	_, err = svc.Get(ctx, o.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	var lineCount int
	require.NoError(t, suite.RawDB.GetContext(ctx, &lineCount,
		`SELECT COUNT(*) FROM purchase_order_items`))
	assert.Equal(t, 0, lineCount)
}

func TestOrderCreate_DuplicateOrderNumberConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	svc, _ := newIntegrationService()

	supplierID, err := testutil.CreateSupplier(ctx, suite.RawDB, "Acme Supplies")
	require.NoError(t, err)

	number := "PO-2024-001"
	_, err = svc.Create(ctx, &service.CreateOrderInput{SupplierID: supplierID, OrderNumber: &number})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &service.CreateOrderInput{SupplierID: supplierID, OrderNumber: &number})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestRemoveItem_ForeignLineIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	svc, _ := newIntegrationService()

	supplierID, err := testutil.CreateSupplier(ctx, suite.RawDB, "Acme Supplies")
	require.NoError(t, err)
	productID, err := testutil.CreateProduct(ctx, suite.RawDB, "Widget", "WID-001", 1999)
	require.NoError(t, err)

	first, err := svc.Create(ctx, &service.CreateOrderInput{SupplierID: supplierID})
	require.NoError(t, err)
	second, err := svc.Create(ctx, &service.CreateOrderInput{SupplierID: supplierID})
	require.NoError(t, err)

	line, err := svc.AddItem(ctx, first.ID, &service.AddItemInput{
		ProductID:      productID,
		Quantity:       1,
		UnitPriceCents: 1999,
	})
	require.NoError(t, err)

	// A line can only be removed through its own order
	err = svc.RemoveItem(ctx, second.ID, line.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1999), got.TotalAmountCents)
}
