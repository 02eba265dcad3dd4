package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hxms_backend/internal/opportunities/service"
	"hxms_backend/internal/opportunities/transport"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/httpkit"
	"hxms_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid opportunity id"
)

// Handler handles HTTP requests for opportunities.
type Handler struct {
	svc         *service.Service
	val         *validator.Validator
	maxPageSize int
}

// New creates a new opportunities handler.
func New(svc *service.Service, val *validator.Validator, maxPageSize int) *Handler {
	return &Handler{svc: svc, val: val, maxPageSize: maxPageSize}
}

// RegisterRoutes mounts the read routes on rg and the edit route on writes.
func (h *Handler) RegisterRoutes(rg, writes *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	writes.PUT("", h.Edit)
}

// List returns opportunities inside the caller's scope.
// GET /api/v1/opportunities
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), scope.ActorFromIdentity(identity), req, h.maxPageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns one opportunity with its activity trail.
// GET /api/v1/opportunities/:id
func (h *Handler) GetByID(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), scope.ActorFromIdentity(identity), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Edit applies a direct correction. The body must carry the id.
// PUT /api/v1/opportunities
func (h *Handler) Edit(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Edit(c.Request.Context(), scope.ActorFromIdentity(identity), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
