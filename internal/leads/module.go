// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	apphttp "hxms_backend/internal/http"
	"hxms_backend/internal/leads/handler"
	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/leads/repository"
	"hxms_backend/internal/leads/service"
	"hxms_backend/platform/db"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module. A non-nil enqueuer
// switches POST /leads to queued saves.
func NewModule(conn db.DBTX, deps service.Dependencies, enqueuer ports.LeadSaveEnqueuer, val *validator.Validator, maxPageSize int, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), deps, log)

	var saver service.LeadSaveStrategy = service.NewDirectStrategy(svc)
	if enqueuer != nil {
		saver = service.NewQueuedStrategy(enqueuer, deps.Metrics)
		log.Info("lead saves are queued")
	}

	return &Module{
		handler: handler.New(svc, saver, val, maxPageSize),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for the background worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"), ctx.Writes.Group("/leads"))
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ Saver          = (*service.Service)(nil)
)
