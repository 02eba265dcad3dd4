package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hxms_backend/internal/leads/service"
	"hxms_backend/internal/leads/transport"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/httpkit"
	"hxms_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead id"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc         *service.Service
	saver       service.LeadSaveStrategy
	val         *validator.Validator
	maxPageSize int
}

// New creates a new leads handler.
func New(svc *service.Service, saver service.LeadSaveStrategy, val *validator.Validator, maxPageSize int) *Handler {
	return &Handler{svc: svc, saver: saver, val: val, maxPageSize: maxPageSize}
}

// RegisterRoutes mounts the read routes on rg and the save route on writes.
func (h *Handler) RegisterRoutes(rg, writes *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	writes.POST("", h.Save)
}

// Save creates a lead or edits it when the body carries an id.
// POST /api/v1/leads
func (h *Handler) Save(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.SaveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.saver.Save(c.Request.Context(), scope.ActorFromIdentity(identity), req)
	if httpkit.HandleError(c, err) {
		return
	}
	if result.Queued {
		httpkit.JSON(c, http.StatusAccepted, result)
		return
	}
	httpkit.OK(c, result)
}

// List returns leads inside the caller's scope.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ListLeadsRequest
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

// GetByID returns one lead.
// GET /api/v1/leads/:id
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
