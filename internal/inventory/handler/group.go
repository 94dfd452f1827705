package handler

import (
	"net/http"

	"github.com/registerhq/register-backend/internal/inventory/repository"
	"github.com/registerhq/register-backend/internal/inventory/service"
	"github.com/registerhq/register-backend/pkg/httputil"
	"github.com/registerhq/register-backend/pkg/logger"
)

// GroupHandler handles inventory group endpoints
type GroupHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(svc *service.InventoryService, log *logger.Logger) *GroupHandler {
	return &GroupHandler{
		service: svc,
		logger:  log,
	}
}

type createGroupRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// List lists inventory groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, groups)
}

// Get gets a group by ID
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	group, err := h.service.GetGroup(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, group)
}

// Create creates a new group
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	group := &repository.InventoryGroup{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.service.CreateGroup(r.Context(), group); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, group)
}

// Update applies a partial update to a group
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var patch service.GroupPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.Error(w, err)
		return
	}

	group, err := h.service.UpdateGroup(r.Context(), id, &patch)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, group)
}

// Delete hard deletes a group with its items
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "groupID")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteGroup(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
