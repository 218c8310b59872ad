package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/Shimizu-Technology/docpost-api/internal/config"
	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/services/backend"
	"github.com/Shimizu-Technology/docpost-api/internal/services/extraction"
	"github.com/Shimizu-Technology/docpost-api/internal/services/generation"
	"github.com/Shimizu-Technology/docpost-api/internal/services/portresolver"
)

// extractor turns a document into text. *extraction.Pipeline satisfies it.
type extractor interface {
	Extract(ctx context.Context, file extraction.File) (string, error)
}

// generator drafts a post. *generation.Service satisfies it.
type generator interface {
	Generate(ctx context.Context, text, fileName string, onStatus models.StatusFunc) models.Draft
	RemainingCalls() int
}

// serverAPI is the subset of *backend.Client the informational commands use.
type serverAPI interface {
	Status(ctx context.Context, port int) (*models.StatusResponse, error)
	TestProvider(ctx context.Context, port int, provider, apiKey string) (*models.ProviderTestResponse, error)
}

// resolver finds the server port. *portresolver.Resolver satisfies it.
type resolver interface {
	Resolve(ctx context.Context) (int, error)
}

// appDeps is everything the commands need. Tests build one around an
// httptest server.
type appDeps struct {
	cfg       config.ClientConfig
	log       *slog.Logger
	resolver  resolver
	extractor extractor
	generator generator
	server    serverAPI
	stdout    io.Writer
	stderr    io.Writer
}

// wire builds the client pipelines from configuration.
func wire(cfg config.ClientConfig, logger *slog.Logger) (*appDeps, error) {
	client := backend.New(cfg.Host)

	var source portresolver.DescriptorSource = portresolver.DirSource{Dir: cfg.Discovery.PublicDir}
	if cfg.Discovery.PublicURL != "" {
		source = portresolver.URLSource{BaseURL: cfg.Discovery.PublicURL}
	}

	statePath := cfg.Discovery.StateFile
	if statePath == "" {
		p, err := portresolver.DefaultStatePath()
		if err != nil {
			logger.Warn("no user cache dir, port will not be remembered", "error", err)
		}
		statePath = p
	}
	var store portresolver.PortStore = portresolver.NewMemoryStore()
	if statePath != "" {
		store = portresolver.NewFileStore(statePath)
	}

	res := portresolver.New(source, store, client, portresolver.Options{
		DefaultPort:      cfg.Discovery.DefaultPort,
		CommonPorts:      cfg.Discovery.CommonPorts,
		MaxDescriptorAge: cfg.Discovery.MaxAge,
		Logger:           logger,
	})

	var providers []generation.Provider
	for _, pc := range providerConfigs(cfg.Providers) {
		providers = append(providers, generation.NewProxyProvider(pc, res, client, logger))
	}

	svc := generation.NewService(
		generation.NewCache(),
		generation.NewRateLimiter(cfg.RateLimit.Calls, cfg.RateLimit.Window, nil),
		providers,
		generation.NewMock(nil),
		logger,
	)

	return &appDeps{
		cfg:       cfg,
		log:       logger,
		resolver:  res,
		extractor: extraction.New(res, client, nil, logger),
		generator: svc,
		server:    client,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}, nil
}

// providerConfigs applies user overrides to the built-in provider ladder,
// dropping disabled providers and keeping the openai → deepseek order.
func providerConfigs(pc config.ProvidersConfig) []generation.ProviderConfig {
	var out []generation.ProviderConfig
	for _, p := range []struct {
		base     generation.ProviderConfig
		settings config.ProviderSettings
	}{
		{generation.DefaultOpenAI(), pc.OpenAI},
		{generation.DefaultDeepSeek(), pc.DeepSeek},
	} {
		if !p.settings.IsEnabled() {
			continue
		}
		cfg := p.base
		if p.settings.Endpoint != "" {
			cfg.Endpoint = p.settings.Endpoint
		}
		if p.settings.Model != "" {
			cfg.Model = p.settings.Model
		}
		if p.settings.Timeout > 0 {
			cfg.Timeout = p.settings.Timeout
		}
		cfg.APIKey = p.settings.APIKey
		out = append(out, cfg)
	}
	return out
}
