// Package models defines the data structures shared by the server and the client.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// The same structs describe what the backend returns and what the client
// decodes, so the wire contract lives in exactly one place.
package models

import (
	"encoding/json"
	"time"
)

// Draft is a generated social-media post for one source document.
// Every field is always populated; the parser and the mock generator fill
// defaults so renderers never need nil checks.
type Draft struct {
	FileName    string   `json:"fileName"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Hashtags    []string `json:"hashtags"`  // Always exactly 5 entries
	Platforms   []string `json:"platforms"` // Always exactly 3 entries
	ImagePrompt string   `json:"imagePrompt"`
}

// Phase is a step a provider goes through while producing a Draft.
// Go Pattern: string constants instead of enums (Go doesn't have enums).
type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhasePreparing  Phase = "preparing"
	PhaseReceived   Phase = "received"
	PhaseParsing    Phase = "parsing"
	PhaseProcessing Phase = "processing"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
	PhaseRetrieved  Phase = "retrieved" // Only emitted by the "cache" pseudo-provider
	PhaseFallback   Phase = "fallback"  // Only emitted by the "mock" pseudo-provider
)

// StatusFunc receives (provider, phase) transitions during generation.
// It is purely informational and has no effect on control flow.
type StatusFunc func(provider string, phase Phase)

// PortInfo is the descriptor the server writes to port-info.json at startup.
type PortInfo struct {
	Port       int       `json:"port"`
	Timestamp  time.Time `json:"timestamp"`
	ServerPath string    `json:"serverPath,omitempty"`
}

// --- Request/Response DTOs (Data Transfer Objects) ---

// ExtractResponse is returned by every extraction endpoint.
type ExtractResponse struct {
	Text string `json:"text"`
}

// ProxyRequest is the JSON body for POST /api/proxy-ai.
// Data is forwarded untouched, so it stays raw JSON.
type ProxyRequest struct {
	Endpoint string          `json:"endpoint"`
	APIKey   string          `json:"apiKey"`
	Data     json.RawMessage `json:"data"`
}

// ProviderTestRequest is the JSON body for POST /api/test-openai and /api/test-deepseek.
type ProviderTestRequest struct {
	APIKey string `json:"apiKey,omitempty"` // Optional: falls back to the server's key
}

// ProviderTestResponse reports a one-shot connectivity check against a provider.
type ProviderTestResponse struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	Reply            string `json:"reply"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// TestResponse is the liveness marker returned by GET /api/test.
type TestResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// LivenessMessage is the fixed marker clients compare against when probing.
const LivenessMessage = "Server is running correctly"

// APIStatus describes whether the server holds a key for one provider.
type APIStatus struct {
	Configured bool   `json:"configured"`
	KeyPrefix  string `json:"keyPrefix"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Status string               `json:"status"`
	Time   time.Time            `json:"time"`
	Env    string               `json:"env"`
	APIs   map[string]APIStatus `json:"apis"`
}

// PortResponse is returned by GET /api/port.
type PortResponse struct {
	Port int `json:"port"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Code    int            `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Port    int    `json:"port"`
}
