package router

import (
	"github.com/gin-gonic/gin"
	"github.com/telcobill/backend/internal/infrastructure/logger"
	"github.com/telcobill/backend/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
	system     *handler.SystemHandler
}

// NewRouter creates a Router with the standard middleware stack
func NewRouter(log *zap.Logger, system *handler.SystemHandler) *Router {
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	return &Router{
		engine:     engine,
		apiVersion: "v1",
		system:     system,
	}
}

// Register adds a RouteRegistrar to be wired by Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes and returns the engine
func (r *Router) Setup() *gin.Engine {
	if r.system != nil {
		r.engine.GET("/healthz", r.system.Healthz)
	}

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return r.engine
}
