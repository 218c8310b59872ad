// Package config handles application configuration.
//
// Go Pattern: Configuration via environment variables with sensible defaults.
// In Go, we typically use structs to hold configuration, and a function to
// load values from environment variables. The server reads only env vars;
// the CLI layers a YAML file under its env vars (see client.go).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultServerPort is the port the server tries first and clients probe first.
const DefaultServerPort = 64970

// Config holds all server configuration.
type Config struct {
	// Server settings
	Port               int
	GinMode            string // "debug", "release", or "test"
	RandomPortFallback bool   // Listen on an ephemeral port when Port is taken

	// Port advertisement: server-port.txt and port-info.json go to PublicDir,
	// and server-port.txt is also written to PortFile.
	PublicDir string
	PortFile  string

	// Provider keys the proxy may substitute when a client sends none
	OpenAIAPIKey   string
	DeepSeekAPIKey string

	// Proxy behavior
	ProxyTimeout            time.Duration
	ProxyInsecureSkipVerify bool     // Skip upstream TLS verification (development only)
	ProxyAllowedHosts       []string // Empty = any host
	ProxyRateLimit          int      // Requests per hour per client IP

	// Uploads
	MaxUploadBytes int64

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
//
// Go Pattern: Functions that can fail return (value, error). This is Go's
// alternative to exceptions; the caller MUST handle the error.
func Load() (*Config, error) {
	port, err := loadPort()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               port,
		GinMode:            getEnv("GIN_MODE", "debug"),
		RandomPortFallback: getEnvBool("RANDOM_PORT_FALLBACK", true),

		PublicDir: getEnv("PUBLIC_DIR", "public"),
		PortFile:  getEnv("PORT_FILE", "server-port.txt"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),

		ProxyTimeout:            time.Duration(getEnvInt("PROXY_TIMEOUT_SECONDS", 30)) * time.Second,
		ProxyInsecureSkipVerify: getEnvBool("PROXY_INSECURE_SKIP_VERIFY", false),
		ProxyAllowedHosts:       getEnvList("PROXY_ALLOWED_HOSTS"),
		ProxyRateLimit:          getEnvInt("PROXY_RATE_LIMIT", 600),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,

		// CORS: the default allows any origin, since the clients are local tools.
		AllowedOrigins: getEnvList("CORS_ORIGIN"),
	}

	if cfg.ProxyTimeout <= 0 {
		return nil, fmt.Errorf("PROXY_TIMEOUT_SECONDS must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	// Security: skipping TLS verification is never allowed in production.
	if cfg.GinMode == "release" && cfg.ProxyInsecureSkipVerify {
		return nil, fmt.Errorf("PROXY_INSECURE_SKIP_VERIFY cannot be enabled in release mode")
	}

	return cfg, nil
}

// ProviderKeys maps provider hostnames to the server-held key for each.
func (c *Config) ProviderKeys() map[string]string {
	keys := map[string]string{}
	if c.OpenAIAPIKey != "" {
		keys["api.openai.com"] = c.OpenAIAPIKey
	}
	if c.DeepSeekAPIKey != "" {
		keys["api.deepseek.com"] = c.DeepSeekAPIKey
	}
	return keys
}

// loadPort reads SERVER_PORT, then PORT, then falls back to DefaultServerPort.
func loadPort() (int, error) {
	raw := strings.TrimSpace(getEnv("SERVER_PORT", ""))
	if raw == "" {
		raw = strings.TrimSpace(getEnv("PORT", ""))
	}
	if raw == "" {
		return DefaultServerPort, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("invalid server port %q", raw)
	}
	return port, nil
}

// getEnv reads an environment variable with a fallback default.
// Go Pattern: Small helper functions are idiomatic.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a fallback.
func getEnvInt(key string, fallback int) int {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvBool accepts anything strconv.ParseBool does ("1", "true", "FALSE"...).
func getEnvBool(key string, fallback bool) bool {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
