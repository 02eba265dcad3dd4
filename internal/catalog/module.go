// Package catalog provides the product (vehicle model) directory module.
package catalog

import (
	"hxms_backend/internal/catalog/handler"
	"hxms_backend/internal/catalog/repository"
	"hxms_backend/internal/catalog/service"
	apphttp "hxms_backend/internal/http"
	"hxms_backend/platform/db"
	"hxms_backend/platform/logger"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the catalog module.
func NewModule(conn db.DBTX, maxPageSize int, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), log)
	return &Module{
		handler: handler.New(svc, maxPageSize),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/products", m.handler.ListProducts)
	ctx.Protected.GET("/products/:id", m.handler.GetProductByID)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
