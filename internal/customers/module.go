package customers

import (
	apphttp "hxms_backend/internal/http"
	"hxms_backend/platform/db"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"
)

// Module is the customers bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the customer repository, service and handler.
func NewModule(conn db.DBTX, scopes ScopeResolver, maxPageSize int, m *metrics.Metrics, log *logger.Logger) *Module {
	svc := NewService(NewRepository(conn), m, log)
	return &Module{
		handler: NewHandler(svc, scopes, maxPageSize),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "customers"
}

// Service returns the normalizer for other modules.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts customer routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/customers", m.handler.List)
}

var _ apphttp.Module = (*Module)(nil)
