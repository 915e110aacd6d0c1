package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/ecocal/api/handler"
	"github.com/use-agent/ecocal/api/middleware"
	"github.com/use-agent/ecocal/cache"
	"github.com/use-agent/ecocal/config"
	"github.com/use-agent/ecocal/sink"
)

// Deps are the collaborators the routes serve. Sinks, Cache and Metrics
// may be nil.
type Deps struct {
	Gatherer handler.Gatherer
	Sinks    sink.Sink
	Cache    *cache.Cache
	Metrics  prometheus.Gatherer
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
func NewRouter(deps Deps, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(deps.Gatherer, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/calendar", handler.Gather(deps.Gatherer, deps.Sinks, deps.Cache))

	return r
}
