package handler

import (
	"net/http"

	"github.com/registerhq/register-backend/internal/catalog/repository"
	"github.com/registerhq/register-backend/internal/catalog/service"
	"github.com/registerhq/register-backend/pkg/httputil"
	"github.com/registerhq/register-backend/pkg/logger"
)

// LocationHandler handles location endpoints
type LocationHandler struct {
	service *service.CatalogService
	logger  *logger.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(svc *service.CatalogService, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		service: svc,
		logger:  log,
	}
}

type createLocationRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
}

// List lists locations
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("is_active") == "true"

	locations, err := h.service.ListLocations(r.Context(), activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, locations)
}

// Get gets a location by ID
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	location, err := h.service.GetLocation(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, location)
}

// Create creates a new location
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	location := &repository.Location{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		IsActive:    true,
	}

	if err := h.service.CreateLocation(r.Context(), location); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, location)
}

// Update applies a partial update to a location
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var patch service.LocationPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.Error(w, err)
		return
	}

	location, err := h.service.UpdateLocation(r.Context(), id, &patch)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, location)
}

// Delete deactivates a location
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteLocation(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
