package handler

import (
	"net/http"

	"github.com/registerhq/register-backend/internal/inventory/service"
	"github.com/registerhq/register-backend/pkg/httputil"
	"github.com/registerhq/register-backend/pkg/logger"
)

// TagHandler handles tag endpoints
type TagHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(svc *service.InventoryService, log *logger.Logger) *TagHandler {
	return &TagHandler{
		service: svc,
		logger:  log,
	}
}

type resolveTagRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// List lists all tags
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tags)
}

// Resolve looks up or creates a tag by name
func (h *TagHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveTagRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	tag, err := h.service.ResolveTag(r.Context(), req.Name, req.Description)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tag)
}
