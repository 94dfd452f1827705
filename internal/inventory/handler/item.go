package handler

import (
	"net/http"

	"github.com/registerhq/register-backend/internal/inventory/service"
	"github.com/registerhq/register-backend/pkg/httputil"
	"github.com/registerhq/register-backend/pkg/logger"
)

// ItemHandler handles inventory item endpoints
type ItemHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(svc *service.InventoryService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  log,
	}
}

// List lists a group's items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	items, err := h.service.ListItems(r.Context(), groupID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Get gets an item by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.GetItem(r.Context(), groupID, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Create creates a new item in a group
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var input service.CreateItemInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.CreateItem(r.Context(), groupID, &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Update applies a partial update to an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	groupID, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var patch service.ItemPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), groupID, id, &patch)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Delete hard deletes an item
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteItem(r.Context(), groupID, id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListLowStock lists all items at or below their minimum stock level
func (h *ItemHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListLowStock(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Adjust applies a stock movement to an item's quantity
func (h *ItemHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var input service.AdjustInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	item, movement, err := h.service.AdjustStock(r.Context(), id, &input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"item":     item,
		"movement": movement,
	})
}
