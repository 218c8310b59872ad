package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the CLI.
const (
	clientConfigPathEnv = "DOCPOST_CONFIG"
	openAIKeyEnv        = "OPENAI_API_KEY"
	deepSeekKeyEnv      = "DEEPSEEK_API_KEY"
	hostEnv             = "DOCPOST_HOST"
	logLevelEnv         = "DOCPOST_LOG_LEVEL"
)

// ClientConfig drives cmd/docpost.
type ClientConfig struct {
	Host      string          `yaml:"host"`
	LogLevel  string          `yaml:"logLevel"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Providers ProvidersConfig `yaml:"providers"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Output    OutputConfig    `yaml:"output"`
}

// DiscoveryConfig tells the port resolver where to look.
type DiscoveryConfig struct {
	PublicDir   string        `yaml:"publicDir"`   // Server public dir on this machine
	PublicURL   string        `yaml:"publicUrl"`   // Or a static server hosting it
	StateFile   string        `yaml:"stateFile"`   // Cached port; empty = user cache dir
	DefaultPort int           `yaml:"defaultPort"` // First port probed after the files
	CommonPorts []int         `yaml:"commonPorts"`
	MaxAge      time.Duration `yaml:"maxAge"` // Oldest port-info.json still trusted
}

// ProvidersConfig holds per-provider overrides for the generation ladder.
type ProvidersConfig struct {
	OpenAI   ProviderSettings `yaml:"openai"`
	DeepSeek ProviderSettings `yaml:"deepseek"`
}

// ProviderSettings are the knobs a user may want to turn per provider.
// Zero values keep the built-in defaults.
type ProviderSettings struct {
	Enabled  *bool         `yaml:"enabled"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IsEnabled treats an unset flag as enabled.
func (p ProviderSettings) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// RateLimitConfig bounds outbound provider calls.
type RateLimitConfig struct {
	Calls  int           `yaml:"calls"`
	Window time.Duration `yaml:"window"`
}

// OutputConfig picks how drafts are written.
type OutputConfig struct {
	Format string `yaml:"format"` // text, markdown, html, json
	Dir    string `yaml:"dir"`    // Empty = stdout
}

// DefaultClientConfig returns the built-in settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:     "localhost",
		LogLevel: "info",
		Discovery: DiscoveryConfig{
			PublicDir:   "public",
			DefaultPort: DefaultServerPort,
			CommonPorts: []int{5000, 3000, 8080, 4000, 5001, 3001},
			MaxAge:      2 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Calls:  50,
			Window: time.Hour,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// LoadClient reads the YAML file named by DOCPOST_CONFIG (if any) over the
// defaults, then applies environment overrides. A missing file is not an
// error when DOCPOST_CONFIG is unset; a broken one always is.
func LoadClient(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path == "" {
		path = os.Getenv(clientConfigPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: cannot read %s: %w", path, err)
		}
		var fileCfg ClientConfig
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return cfg, fmt.Errorf("config: cannot parse %s: %w", path, err)
		}
		cfg = mergeClientConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a pipeline.
func (c ClientConfig) Validate() error {
	switch c.Output.Format {
	case "text", "markdown", "html", "json":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	if c.RateLimit.Calls <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("config: rate limit must be positive")
	}
	return nil
}

func mergeClientConfig(base, override ClientConfig) ClientConfig {
	if override.Host != "" {
		base.Host = override.Host
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}

	d := override.Discovery
	if d.PublicDir != "" {
		base.Discovery.PublicDir = d.PublicDir
	}
	if d.PublicURL != "" {
		base.Discovery.PublicURL = d.PublicURL
	}
	if d.StateFile != "" {
		base.Discovery.StateFile = d.StateFile
	}
	if d.DefaultPort != 0 {
		base.Discovery.DefaultPort = d.DefaultPort
	}
	if len(d.CommonPorts) > 0 {
		base.Discovery.CommonPorts = d.CommonPorts
	}
	if d.MaxAge > 0 {
		base.Discovery.MaxAge = d.MaxAge
	}

	base.Providers.OpenAI = mergeProvider(base.Providers.OpenAI, override.Providers.OpenAI)
	base.Providers.DeepSeek = mergeProvider(base.Providers.DeepSeek, override.Providers.DeepSeek)

	if override.RateLimit.Calls > 0 {
		base.RateLimit.Calls = override.RateLimit.Calls
	}
	if override.RateLimit.Window > 0 {
		base.RateLimit.Window = override.RateLimit.Window
	}
	if override.Output.Format != "" {
		base.Output.Format = strings.ToLower(override.Output.Format)
	}
	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}
	return base
}

func mergeProvider(base, override ProviderSettings) ProviderSettings {
	if override.Enabled != nil {
		base.Enabled = override.Enabled
	}
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	return base
}

func (c *ClientConfig) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(openAIKeyEnv)); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(deepSeekKeyEnv)); v != "" {
		c.Providers.DeepSeek.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(hostEnv)); v != "" {
		c.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(logLevelEnv)); v != "" {
		c.LogLevel = v
	}
}
