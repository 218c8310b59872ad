package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"

	apperrors "github.com/Shimizu-Technology/docpost-api/internal/errors"
	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/services/draftparser"
)

// DefaultProviderTimeout bounds one provider call end to end.
const DefaultProviderTimeout = 60 * time.Second

// Provider produces a draft from document text. Implementations report
// progress through notify and must not call it after returning.
type Provider interface {
	Name() string
	Generate(ctx context.Context, text, fileName string, notify func(models.Phase)) (models.Draft, error)
}

// PortResolver finds the server. *portresolver.Resolver satisfies it.
type PortResolver interface {
	Resolve(ctx context.Context) (int, error)
}

// ProxyClient forwards a chat request through the server. *backend.Client satisfies it.
type ProxyClient interface {
	ProxyChat(ctx context.Context, port int, req models.ProxyRequest) ([]byte, error)
}

// ProviderConfig describes one OpenAI-compatible chat endpoint.
type ProviderConfig struct {
	Name             string
	Endpoint         string
	APIKey           string
	Model            string
	Temperature      float64
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
	MaxTokens        int64
	Timeout          time.Duration
}

// Endpoints of the hosted providers.
const (
	OpenAIEndpoint   = "https://api.openai.com/v1/chat/completions"
	DeepSeekEndpoint = "https://api.deepseek.com/chat/completions"
)

// DefaultOpenAI returns the settings used for the first rung of the ladder.
func DefaultOpenAI() ProviderConfig {
	return ProviderConfig{
		Name:             "openai",
		Endpoint:         OpenAIEndpoint,
		Model:            "gpt-3.5-turbo",
		Temperature:      0.95,
		TopP:             0.95,
		PresencePenalty:  0.5,
		FrequencyPenalty: 0.5,
		MaxTokens:        2000,
		Timeout:          DefaultProviderTimeout,
	}
}

// DefaultDeepSeek returns the settings used for the second rung of the ladder.
func DefaultDeepSeek() ProviderConfig {
	return ProviderConfig{
		Name:        "deepseek",
		Endpoint:    DeepSeekEndpoint,
		Model:       "deepseek-chat",
		Temperature: 0.95,
		TopP:        0.95,
		MaxTokens:   2000,
		Timeout:     DefaultProviderTimeout,
	}
}

// ProxyProvider calls an OpenAI-compatible endpoint through the server's
// /api/proxy-ai route and parses the 【】-sectioned reply.
type ProxyProvider struct {
	cfg      ProviderConfig
	resolver PortResolver
	client   ProxyClient
	log      *slog.Logger
}

// NewProxyProvider wires a provider to the server.
func NewProxyProvider(cfg ProviderConfig, resolver PortResolver, client ProxyClient, logger *slog.Logger) *ProxyProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyProvider{
		cfg:      cfg,
		resolver: resolver,
		client:   client,
		log:      logger.With("provider", cfg.Name),
	}
}

// Name identifies the provider in status callbacks and logs.
func (p *ProxyProvider) Name() string {
	return p.cfg.Name
}

// Generate runs one full round trip. Any network, status or structural
// failure is returned as PROVIDER_CALL_FAILED.
func (p *ProxyProvider) Generate(ctx context.Context, text, fileName string, notify func(models.Phase)) (models.Draft, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	notify(models.PhaseConnecting)
	port, err := p.resolver.Resolve(ctx)
	if err != nil {
		return models.Draft{}, p.fail(err)
	}

	notify(models.PhasePreparing)
	data, err := json.Marshal(p.chatParams(text, fileName))
	if err != nil {
		return models.Draft{}, p.fail(fmt.Errorf("failed to encode request: %w", err))
	}
	p.log.Debug("sending chat request", "model", p.cfg.Model, "port", port)

	body, err := p.client.ProxyChat(ctx, port, models.ProxyRequest{
		Endpoint: p.cfg.Endpoint,
		APIKey:   p.cfg.APIKey,
		Data:     data,
	})
	if err != nil {
		return models.Draft{}, p.fail(err)
	}
	notify(models.PhaseReceived)

	var completion openai.ChatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		return models.Draft{}, p.fail(fmt.Errorf("invalid completion body: %w", err))
	}
	if len(completion.Choices) == 0 {
		return models.Draft{}, p.fail(errors.New("invalid API response structure: no choices"))
	}
	p.log.Info("completion received",
		"model", completion.Model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"total_tokens", completion.Usage.TotalTokens,
	)

	raw := completion.Choices[0].Message.Content
	if strings.TrimSpace(raw) == "" {
		return models.Draft{}, p.fail(errors.New("empty completion content"))
	}

	notify(models.PhaseParsing)
	if !draftparser.HasExpectedFormat(raw) {
		p.log.Warn("reply is missing expected sections", "missing", draftparser.MissingSections(raw))
	}
	draft := draftparser.Parse(raw, fileName, p.log)

	notify(models.PhaseProcessing)
	return draft, nil
}

func (p *ProxyProvider) chatParams(text, fileName string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(UserPrompt(fileName, text)),
		},
	}
	if p.cfg.Temperature > 0 {
		params.Temperature = openai.Float(p.cfg.Temperature)
	}
	if p.cfg.TopP > 0 {
		params.TopP = openai.Float(p.cfg.TopP)
	}
	if p.cfg.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(p.cfg.PresencePenalty)
	}
	if p.cfg.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(p.cfg.FrequencyPenalty)
	}
	if p.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(p.cfg.MaxTokens)
	}
	return params
}

func (p *ProxyProvider) fail(err error) error {
	return apperrors.NewProviderCallFailed(p.cfg.Name, err)
}
