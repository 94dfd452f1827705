package database

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain error")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestMapPQError_NonPQError(t *testing.T) {
	assert.Nil(t, MapPQError(fmt.Errorf("connection refused")))
	assert.Nil(t, MapPQError(nil))
}

func TestMapPQError_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		message    string
	}{
		{"products_sku_key", "a product with this SKU already exists"},
		{"products_barcode_key", "a product with this barcode already exists"},
		{"tags_name_key", "a tag with this name already exists"},
		{"purchase_orders_order_number_key", "a purchase order with this order number already exists"},
		{"inventory_items_product_location_key", "an inventory record for this product and location already exists"},
		{"categories_name_key", "a record with this name already exists"},
		{"something_else", "a record with these values already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			appErr := MapPQError(&pq.Error{Code: "23505", Constraint: tt.constraint})
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusConflict, appErr.StatusCode)
			assert.Equal(t, tt.message, appErr.Message)
			assert.True(t, errors.Is(appErr, errors.ErrConflict))
		})
	}
}

func TestMapPQError_CheckViolations(t *testing.T) {
	tests := []struct {
		constraint string
		field      string
	}{
		{"inventory_items_quantity_non_negative", "quantity"},
		{"inventory_movement_quantity_nonzero", "quantity"},
		{"purchase_order_item_positive", "quantity"},
		{"purchase_orders_status_valid", "status"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			appErr := MapPQError(&pq.Error{Code: "23514", Constraint: tt.constraint})
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
			assert.Contains(t, appErr.Details, tt.field)
			assert.True(t, errors.Is(appErr, errors.ErrValidation))
		})
	}
}

func TestMapPQError_CheckViolationUnknownConstraint(t *testing.T) {
	appErr := MapPQError(&pq.Error{Code: "23514", Constraint: "weird_check"})
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "weird_check")
}

func TestMapPQError_ForeignKeyViolation(t *testing.T) {
	appErr := MapPQError(&pq.Error{Code: "23503", Constraint: "inventory_items_group_id_fkey"})
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "referenced record does not exist", appErr.Message)
}

func TestMapPQError_NotNullViolation(t *testing.T) {
	appErr := MapPQError(&pq.Error{Code: "23502", Column: "name"})
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Details, "name")

	appErr = MapPQError(&pq.Error{Code: "23502"})
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Details, "required field")
}

func TestMapPQError_UnknownCode(t *testing.T) {
	assert.Nil(t, MapPQError(&pq.Error{Code: "42P01"}))
}
