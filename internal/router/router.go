// Package router sets up all HTTP routes for the API.
package router

import (
	"context"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docpost-api/internal/handlers"
	"github.com/Shimizu-Technology/docpost-api/internal/middleware"
)

// Options carries the router-level settings from config.
type Options struct {
	AllowedOrigins []string
	PublicDir      string // Serves the port advertisement files when set
	ProxyRateLimit int    // Requests per hour per client IP on /api/proxy-ai
}

// Setup creates and configures the Gin router with all routes.
// ctx bounds background work started by middleware (rate-limit cleanup).
func Setup(ctx context.Context, h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	rateLimiter := middleware.NewRateLimiter(ctx, opts.ProxyRateLimit)

	api := r.Group("/api")
	{
		// Discovery and status
		api.GET("/test", h.Test)
		api.GET("/health", h.HealthCheck)
		api.GET("/status", h.Status)
		api.GET("/port", h.GetPort)

		// PDF extraction: a parser panic becomes placeholder text, not a 500
		extract := api.Group("")
		extract.Use(middleware.ExtractionRecovery())
		{
			extract.POST("/extract-pdf-text", h.ExtractPrimary)
			extract.POST("/extract-pdf-text-alt", h.ExtractAlternate)
			extract.POST("/extract-pdf-text-external", h.ExtractSimulated)
		}

		// LLM proxy and connectivity checks spend the server's keys
		api.POST("/proxy-ai", rateLimiter.RateLimit(), h.ProxyAI)
		api.POST("/test-openai", rateLimiter.RateLimit(), h.TestProvider("openai"))
		api.POST("/test-deepseek", rateLimiter.RateLimit(), h.TestProvider("deepseek"))

		// Draft export
		api.POST("/drafts/export", h.ExportDraft)

		// API documentation
		api.GET("/docs", h.ServeSwaggerUI)
		api.GET("/docs/openapi.yaml", h.ServeOpenAPISpec)
	}

	// Port advertisement files, for clients that only know the static host
	if opts.PublicDir != "" {
		r.StaticFile("/port-info.json", filepath.Join(opts.PublicDir, "port-info.json"))
		r.StaticFile("/server-port.txt", filepath.Join(opts.PublicDir, "server-port.txt"))
	}

	return r
}
