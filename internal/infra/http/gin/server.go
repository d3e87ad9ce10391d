package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stayrates/internal/infra/config"
	"stayrates/internal/infra/obs"
)

type QuoteHTTP interface {
	Get(c *gin.Context)
}

type PricingHTTP interface {
	Update(c *gin.Context)
	Import(c *gin.Context)
	CommitImport(c *gin.Context)
	Template(c *gin.Context)
	RateRows(c *gin.Context)
	History(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
}

type Handlers struct {
	Quote        QuoteHTTP
	Pricing      PricingHTTP
	Availability AvailabilityHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, registry *prometheus.Registry, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Actor-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	if h.Quote != nil {
		api.GET("/properties/:id/quote", h.Quote.Get)
	}
	if h.Availability != nil {
		api.GET("/properties/:id/calendar", h.Availability.Calendar)
	}
	if h.Pricing != nil {
		hostGroup := api.Group("/host/properties/:id")
		hostGroup.PUT("/pricing", h.Pricing.Update)
		hostGroup.POST("/pricing/import", h.Pricing.Import)
		hostGroup.POST("/pricing/import/commit", h.Pricing.CommitImport)
		hostGroup.GET("/pricing/import/template", h.Pricing.Template)
		hostGroup.GET("/pricing/rate-rows", h.Pricing.RateRows)
		hostGroup.GET("/pricing/history", h.Pricing.History)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
