// Package http wires the REST API: routing, middleware, and server
// lifecycle.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/internal/interfaces/http/handlers"
	"github.com/labelwise/labelwise/internal/interfaces/http/middleware"
)

// NewRouter builds the gin engine with all routes attached. gatherer may be
// nil to use the default Prometheus registry.
func NewRouter(mode string, resolver handlers.Resolver, gatherer prometheus.Gatherer, log logging.Logger) *gin.Engine {
	gin.SetMode(mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))

	health := handlers.NewHealthHandler(resolver)
	router.GET("/healthz", health.Livez)
	router.GET("/readyz", health.Readyz)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", handlers.NewAnalyzeHandler(resolver).Analyze)
		v1.GET("/ingredients/:name", handlers.NewIngredientHandler(resolver).Get)
		v1.GET("/health", health.Report)
	}
	return router
}
