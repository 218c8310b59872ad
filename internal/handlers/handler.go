// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides:
// - Request data (params, query, body, headers)
// - Response methods (JSON, String, Status)
// - Middleware data (c.Get/c.Set)
//
// We group related handlers into a struct (Handler) that holds shared dependencies.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/docpost-api/internal/services/pdf"
	"github.com/Shimizu-Technology/docpost-api/internal/services/proxy"
)

// Version is reported by the health endpoint. cmd/server overrides it at startup.
var Version = "dev"

// Forwarder relays proxy requests upstream. *proxy.Forwarder satisfies it.
type Forwarder interface {
	Forward(ctx context.Context, endpoint, apiKey string, data json.RawMessage) (*proxy.Result, error)
}

// ProviderChecker runs a connectivity test. *llmcheck.Checker satisfies it.
type ProviderChecker interface {
	Check(ctx context.Context, provider, apiKey string) (*models.ProviderTestResponse, error)
}

// Handler holds shared dependencies for all HTTP handlers.
// Go Pattern: Dependency injection via struct fields. Instead of global
// variables or service locators, we pass dependencies explicitly.
// This makes testing easy: just create a Handler with fake dependencies.
type Handler struct {
	Primary   pdfservice.Extractor
	Alternate pdfservice.Extractor
	Simulated pdfservice.Simulated
	Forwarder Forwarder
	Checker   ProviderChecker

	Env            string
	OpenAIKey      string
	DeepSeekKey    string
	MaxUploadBytes int64

	startTime time.Time
	port      atomic.Int64 // Set once the listener is bound; may change on random-port fallback
}

// Deps bundles everything NewHandler needs.
type Deps struct {
	Primary        pdfservice.Extractor
	Alternate      pdfservice.Extractor
	Forwarder      Forwarder
	Checker        ProviderChecker
	Env            string
	OpenAIKey      string
	DeepSeekKey    string
	MaxUploadBytes int64
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(d Deps) *Handler {
	if d.Primary == nil {
		d.Primary = pdfservice.Primary{}
	}
	if d.Alternate == nil {
		d.Alternate = pdfservice.NewAlternate()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 50 << 20
	}
	return &Handler{
		Primary:        d.Primary,
		Alternate:      d.Alternate,
		Forwarder:      d.Forwarder,
		Checker:        d.Checker,
		Env:            d.Env,
		OpenAIKey:      d.OpenAIKey,
		DeepSeekKey:    d.DeepSeekKey,
		MaxUploadBytes: d.MaxUploadBytes,
		startTime:      time.Now(),
	}
}

// SetPort records the port the server actually listens on.
func (h *Handler) SetPort(port int) {
	h.port.Store(int64(port))
}

// Port returns the port set by SetPort.
func (h *Handler) Port() int {
	return int(h.port.Load())
}

// Test is the liveness probe clients use during port discovery.
// GET /api/test
func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, models.TestResponse{
		Message:   models.LivenessMessage,
		Timestamp: time.Now().UTC(),
	})
}

// HealthCheck returns the API health status.
// GET /api/health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Port:    h.Port(),
	})
}

// Status reports which provider keys the server holds.
// GET /api/status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{
		Status: "online",
		Time:   time.Now().UTC(),
		Env:    h.Env,
		APIs: map[string]models.APIStatus{
			"openai":   apiStatus(h.OpenAIKey),
			"deepseek": apiStatus(h.DeepSeekKey),
		},
	})
}

// GetPort returns the port the server is listening on.
// GET /api/port
func (h *Handler) GetPort(c *gin.Context) {
	c.JSON(http.StatusOK, models.PortResponse{Port: h.Port()})
}

// apiStatus never exposes more than the first five characters of a key.
func apiStatus(key string) models.APIStatus {
	if key == "" {
		return models.APIStatus{Configured: false}
	}
	prefix := key
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	return models.APIStatus{Configured: true, KeyPrefix: prefix + "..."}
}
