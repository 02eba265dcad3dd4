package customers

import (
	"context"
	"net/http"

	"hxms_backend/internal/scope"
	"hxms_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// ScopeResolver computes the caller's visibility scope.
type ScopeResolver interface {
	GetScope(ctx context.Context, actor scope.Actor) (scope.Scope, error)
}

// ListRequest is the customer list query string.
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Search   string `form:"search"`
	StoreID  *int64 `form:"storeId"`
}

// Handler serves customer endpoints.
type Handler struct {
	svc         *Service
	scopes      ScopeResolver
	maxPageSize int
}

// NewHandler creates a customer Handler.
func NewHandler(svc *Service, scopes ScopeResolver, maxPageSize int) *Handler {
	return &Handler{svc: svc, scopes: scopes, maxPageSize: maxPageSize}
}

// List handles GET /customers.
func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	s, err := h.scopes.GetScope(c.Request.Context(), scope.ActorFromIdentity(id))
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.svc.List(c.Request.Context(), ListParams{
		Scope:   s,
		Search:  req.Search,
		StoreID: req.StoreID,
		Page:    scope.NewPage(req.Page, req.PageSize, h.maxPageSize),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
