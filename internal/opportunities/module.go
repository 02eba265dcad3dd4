// Package opportunities provides the opportunity cycle bounded context: the
// upsert engine fed by saved leads, direct edits and scoped reads.
package opportunities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hxms_backend/internal/events"
	apphttp "hxms_backend/internal/http"
	"hxms_backend/internal/opportunities/handler"
	"hxms_backend/internal/opportunities/repository"
	"hxms_backend/internal/opportunities/service"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"
	"hxms_backend/platform/validator"
)

// Module is the opportunities bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	metrics *metrics.Metrics
}

// NewModule creates and initializes the opportunities module.
func NewModule(
	pool *pgxpool.Pool,
	employees service.EmployeeDirectory,
	scopes service.ScopeResolver,
	bus events.Bus,
	val *validator.Validator,
	m *metrics.Metrics,
	maxPageSize int,
	log *logger.Logger,
) *Module {
	svc := service.New(repository.New(pool), employees, scopes, bus, m, log)
	return &Module{
		handler: handler.New(svc, val, maxPageSize),
		service: svc,
		metrics: m,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "opportunities"
}

// Service returns the engine for the leads module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterHandlers subscribes the module's event handlers.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OpportunityChanged{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if changed, ok := e.(events.OpportunityChanged); ok {
			m.metrics.IncOpportunityDecision(changed.Action)
		}
		return nil
	}))
}

// RegisterRoutes mounts opportunity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/opportunities"), ctx.Writes.Group("/opportunities"))
}

var _ apphttp.Module = (*Module)(nil)
