// Package http provides HTTP server infrastructure: the Module contract the
// router mounts and the shared route groups handed to each module.
package http

import (
	"hxms_backend/platform/config"
	"hxms_backend/platform/events"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes (leads, opportunities,
// customers, catalog).
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// EventSubscriber is implemented by modules that react to domain events.
// The router subscribes them once, after their routes are mounted.
type EventSubscriber interface {
	RegisterHandlers(bus events.Bus)
}

// RouterContext carries the route groups a module mounts on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Protected requires a valid access token; reads go here.
	Protected *gin.RouterGroup
	// Writes is Protected plus the per-IP rate limit; saves and edits go here.
	Writes         *gin.RouterGroup
	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
}
