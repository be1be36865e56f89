// Package httpapi wires the HTTP transport (Gin) to the dealership services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, redacted logging, panic recovery, metrics,
// CORS, and security headers. Public form endpoints additionally get
// idempotent replay and per-IP rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/dealership-backend/docs"
	"github.com/tbourn/dealership-backend/internal/config"
	"github.com/tbourn/dealership-backend/internal/http/handlers"
	"github.com/tbourn/dealership-backend/internal/http/middleware"
	"github.com/tbourn/dealership-backend/internal/notify"
	"github.com/tbourn/dealership-backend/internal/search"
	"github.com/tbourn/dealership-backend/internal/services"
	"github.com/tbourn/dealership-backend/internal/store"
)

// Deps are the process-level collaborators selected in main.
type Deps struct {
	Store    store.Backend
	Notifier notify.Notifier        // nil disables outbound email
	Replay   middleware.ReplayStore // nil validates Idempotency-Key but never replays
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access log with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. gzip (not /metrics)
//  8. CORS and security headers
//
// POST /contact and POST /newsletter add Idempotency then the rate limiter, so
// a replayed retry does not spend a token.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.LoggerOptions{MaskHeaders: []string{"X-API-Key"}}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← store/notifier
	newsSvc := &services.NewsletterService{
		Store:         deps.Store,
		Notifier:      deps.Notifier,
		NotifyTimeout: cfg.Notify.Timeout,
	}
	contactSvc := &services.ContactService{
		Store:         deps.Store,
		Newsletter:    newsSvc,
		Notifier:      deps.Notifier,
		NotifyTimeout: cfg.Notify.Timeout,
	}
	vehicleSvc := &services.VehicleService{Store: deps.Store}

	searchOpts := []search.Option{
		search.WithMinPrefix(cfg.SearchMinPrefix),
		search.WithStopwords(cfg.SearchStopwords),
	}
	h := handlers.New(contactSvc, newsSvc, vehicleSvc, handlers.Options{
		SearchThreshold: cfg.SearchThreshold,
		Search:          searchOpts,
		MaxListLimit:    1000,
	})

	idem := middleware.Idempotency(middleware.IdempotencyOptions{TTL: cfg.IdempotencyTTL}, deps.Replay)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	form := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{idem, rl.Handler(), h}
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/contact", form(h.SubmitContact)...)
		api.GET("/contact", h.ListContacts)
		api.GET("/contact/export", h.ExportContacts)
		api.DELETE("/contact/:id", h.DeleteContact)

		api.POST("/newsletter", form(h.Subscribe)...)
		api.GET("/newsletter", h.ListSubscribers)
		api.GET("/newsletter/export", h.ExportSubscribers)
		api.DELETE("/newsletter", h.Unsubscribe)

		api.GET("/vehicles", h.ListVehicles)
		api.POST("/vehicles", h.CreateVehicle)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.PATCH("/vehicles/:id", h.UpdateVehicle)
		api.DELETE("/vehicles/:id", h.DeleteVehicle)
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// echoes allow-listed origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", middleware.HeaderIdempotentReplay},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO on every response, including ones without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps the request body size using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
