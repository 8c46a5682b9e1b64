package router

import (
	"github.com/estate/backend/internal/infrastructure/config"
	"github.com/estate/backend/internal/infrastructure/logger"
	"github.com/estate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineOptions configures the gin engine built by NewEngine
type EngineOptions struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// Meter receives HTTP server metrics; nil disables them
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewEngine builds the gin engine with the global middleware chain:
// request id, recovery, tracing, access log, metrics, security headers, CORS and body limit.
func NewEngine(opts EngineOptions) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			return nil, err
		}
	}
	middleware.SetupValidator()

	cors := middleware.DefaultCORSConfig()
	if len(opts.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	}
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.AccessLog(log))
	engine.Use(middleware.HTTPMetrics(opts.Meter, log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))

	return engine, nil
}

// Mount registers the health check and the versioned leasing API on engine
func Mount(engine *gin.Engine, h Handlers) *Router {
	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(LeasingResources(h)...)
	r.Setup()
	return r
}
