package handler_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/registerhq/register-backend/internal/catalog/events"
	"github.com/registerhq/register-backend/internal/catalog/handler"
	"github.com/registerhq/register-backend/internal/catalog/repository"
	"github.com/registerhq/register-backend/internal/catalog/service"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/logger"
	"github.com/registerhq/register-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductHandlerTest(t *testing.T) (*chi.Mux, *testutil.MockDB) {
	mock := testutil.NewMockDB(t)
	t.Cleanup(func() { mock.Close() })

	log := logger.New("test", "test")
	db := database.NewFromSqlx(mock.DB, log)
	svc := service.NewCatalogService(
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewLocationRepository(db),
		events.NewCatalogEventPublisherWith(testutil.NewMockPublisher(), log),
		log,
	)
	h := handler.NewProductHandler(svc, log)

	r := chi.NewRouter()
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/{id}", h.Get)
		r.Get("/sku/{sku}", h.GetBySKU)
		r.Get("/barcode/{barcode}", h.GetByBarcode)
	})
	return r, mock
}

type productEnvelope struct {
	Success bool                `json:"success"`
	Data    *repository.Product `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeProductEnvelope(t *testing.T, rec *httptest.ResponseRecorder) productEnvelope {
	t.Helper()
	var env productEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestProductGetBySKUEndpoint(t *testing.T) {
	r, mock := newProductHandlerTest(t)
	now := time.Now()

	mock.ExpectQuery(`FROM products WHERE sku = $1`).
		WithArgs("WID-001").
		WillReturnRows(testutil.MockRows(
			"id", "sku", "barcode", "name", "description", "category_id", "supplier_id", "unit",
			"price_cents", "cost_price_cents", "is_active", "created_by", "created_at", "updated_at").
			AddRow("prod-1", "WID-001", nil, "Widget", nil, nil, nil, "pcs", 1999, 1200, true, nil, now, now))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/products/sku/WID-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeProductEnvelope(t, rec)
	require.NotNil(t, env.Data)
	assert.Equal(t, "prod-1", env.Data.ID)
	assert.Equal(t, 19.99, env.Data.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductGetBySKUEndpoint_NotFound(t *testing.T) {
	r, mock := newProductHandlerTest(t)

	mock.ExpectQuery(`FROM products WHERE sku = $1`).
		WithArgs("MISSING").
		WillReturnError(sql.ErrNoRows)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/products/sku/MISSING", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeProductEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestProductGetEndpoint_MalformedID(t *testing.T) {
	r, mock := newProductHandlerTest(t)

	// No query expectations: the malformed id never reaches the database
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/products/not-a-uuid", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeProductEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
