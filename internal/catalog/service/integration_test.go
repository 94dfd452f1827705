package service_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/registerhq/register-backend/internal/catalog/events"
	"github.com/registerhq/register-backend/internal/catalog/repository"
	"github.com/registerhq/register-backend/internal/catalog/service"
	"github.com/registerhq/register-backend/pkg/errors"
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

func newIntegrationService() (*service.CatalogService, *testutil.MockPublisher) {
	publisher := testutil.NewMockPublisher()
	svc := service.NewCatalogService(
		repository.NewProductRepository(suite.DB),
		repository.NewCategoryRepository(suite.DB),
		repository.NewSupplierRepository(suite.DB),
		repository.NewLocationRepository(suite.DB),
		events.NewCatalogEventPublisherWith(publisher, suite.Logger),
		suite.Logger,
	)
	return svc, publisher
}

func strPtr(s string) *string { return &s }

func TestProductSoftDeleteKeepsRowAndSKU(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	svc, _ := newIntegrationService()

	p := &repository.Product{
		SKU:        strPtr("WID-001"),
		Name:       "Widget",
		PriceCents: 1999,
		IsActive:   true,
	}
	require.NoError(t, svc.CreateProduct(ctx, p))

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	// The row stays retrievable with its data intact
	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "Widget", got.Name)
	require.NotNil(t, got.SKU)
	assert.Equal(t, "WID-001", *got.SKU)

	// The SKU stays reserved even after deactivation
	err = svc.CreateProduct(ctx, &repository.Product{
		SKU:      strPtr("WID-001"),
		Name:     "Widget v2",
		IsActive: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestProductListFiltersAndSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	svc, _ := newIntegrationService()

	for _, p := range []*repository.Product{
		{SKU: strPtr("WID-001"), Name: "Widget", IsActive: true},
		{SKU: strPtr("GAD-001"), Name: "Gadget", Description: strPtr("a widget-like gadget"), IsActive: true},
		{SKU: strPtr("OLD-001"), Name: "Old Widget", IsActive: true},
	} {
		require.NoError(t, svc.CreateProduct(ctx, p))
	}

	// Deactivate one of them
	old, err := svc.GetProductBySKU(ctx, "OLD-001")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, old.ID))

	active := true
	products, total, err := svc.ListProducts(ctx, 1, 20, repository.ProductFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 2)

	// Search matches name and description case-insensitively
	products, total, err = svc.ListProducts(ctx, 1, 20, repository.ProductFilter{Search: "WIDGET"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 3)
}

func TestCategoryNameUnique(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	svc, _ := newIntegrationService()

	require.NoError(t, svc.CreateCategory(ctx, &repository.Category{Name: "Hardware", IsActive: true}))

	err := svc.CreateCategory(ctx, &repository.Category{Name: "Hardware", IsActive: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestProductBarcodeLookup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.Reset(t, ctx)
	svc, _ := newIntegrationService()

	p := &repository.Product{
		SKU:      strPtr("WID-001"),
		Barcode:  strPtr("4006381333931"),
		Name:     "Widget",
		IsActive: true,
	}
	require.NoError(t, svc.CreateProduct(ctx, p))

	got, err := svc.GetProductByBarcode(ctx, "4006381333931")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.GetProductByBarcode(ctx, "0000000000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
