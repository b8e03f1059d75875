// Package router assembles the gin engine and mounts the API handlers.
package router

import (
	"github.com/autoexport/backend/internal/infrastructure/logger"
	"github.com/autoexport/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// RouteRegistrar mounts a handler's routes under the API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// EngineConfig controls the middleware stack
type EngineConfig struct {
	Mode           string // gin.ReleaseMode, gin.DebugMode or gin.TestMode
	ServiceName    string
	TracingEnabled bool
	MaxBodySize    int64
}

// NewEngine builds a gin engine with recovery, request IDs, optional
// tracing, request logging and the body limit, in that order
func NewEngine(cfg EngineConfig, log *zap.Logger) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	if cfg.TracingEnabled {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}
	engine.Use(logger.GinMiddleware(log))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	return engine
}

// Router registers handlers under /api/{version}
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router over engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Health mounts the health endpoint outside the versioned group
func (r *Router) Health(handler gin.HandlerFunc) *Router {
	r.engine.GET("/health", handler)
	return r
}

// Setup mounts every registered handler
func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return r.engine
}
