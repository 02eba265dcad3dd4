package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hxms_backend/internal/catalog/service"
	"hxms_backend/internal/catalog/transport"
	"hxms_backend/platform/httpkit"
)

// Handler handles HTTP requests for catalog.
type Handler struct {
	svc         *service.Service
	maxPageSize int
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid product id"
)

// New creates a new catalog handler.
func New(svc *service.Service, maxPageSize int) *Handler {
	return &Handler{svc: svc, maxPageSize: maxPageSize}
}

// ListProducts retrieves products.
// GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	var req transport.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListProducts(c.Request.Context(), req, h.maxPageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetProductByID retrieves a product by ID.
// GET /api/v1/products/:id
func (h *Handler) GetProductByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetProductByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
