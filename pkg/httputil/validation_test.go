package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/registerhq/register-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validateTestInput struct {
	Name     string  `validate:"required"`
	Quantity int     `validate:"gte=0"`
	Kind     string  `validate:"omitempty,oneof=in out adjustment transfer"`
	RefID    *string `validate:"omitempty,uuid"`
}

func TestValidate_Passes(t *testing.T) {
	err := Validate(validateTestInput{Name: "Widget", Quantity: 5, Kind: "in"})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldDetails(t *testing.T) {
	badRef := "not-a-uuid"
	err := Validate(validateTestInput{Quantity: -1, Kind: "restock", RefID: &badRef})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "this field is required", appErr.Details["Name"])
	assert.Equal(t, "must be at least 0", appErr.Details["Quantity"])
	assert.Equal(t, "must be one of: in out adjustment transfer", appErr.Details["Kind"])
	assert.Equal(t, "must be a valid UUID", appErr.Details["RefID"])
}

func TestUUIDParam(t *testing.T) {
	var got string
	var gotErr error

	r := chi.NewRouter()
	r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = UUIDParam(req, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest("GET", "/items/b0b0b0b0-0000-0000-0000-000000000001", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, "b0b0b0b0-0000-0000-0000-000000000001", got)

	r.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest("GET", "/items/not-a-uuid", nil))
	require.Error(t, gotErr)
	assert.True(t, errors.Is(gotErr, errors.ErrBadRequest))
}

func TestUUIDQuery(t *testing.T) {
	value, err := UUIDQuery(httptest.NewRequest("GET", "/?supplier_id=b0b0b0b0-0000-0000-0000-000000000001", nil), "supplier_id")
	require.NoError(t, err)
	assert.Equal(t, "b0b0b0b0-0000-0000-0000-000000000001", value)

	// Absent means no filter, not an error
	value, err = UUIDQuery(httptest.NewRequest("GET", "/", nil), "supplier_id")
	require.NoError(t, err)
	assert.Empty(t, value)

	_, err = UUIDQuery(httptest.NewRequest("GET", "/?supplier_id=bogus", nil), "supplier_id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}
