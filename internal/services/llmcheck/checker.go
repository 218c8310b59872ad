// Package llmcheck runs a one-shot "hello" completion against a provider so
// operators can confirm a key and endpoint work before generating drafts.
package llmcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// ErrUnknownProvider is returned for providers the checker has no target for.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrNoAPIKey is returned when neither the request nor the server holds a key.
var ErrNoAPIKey = errors.New("no API key configured")

// Target is an OpenAI-compatible API the checker can call.
type Target struct {
	BaseURL string
	Model   string
	APIKey  string // Server-held key; a request key takes precedence
}

// DefaultTargets returns the hosted OpenAI and DeepSeek APIs.
func DefaultTargets(openAIKey, deepSeekKey string) map[string]Target {
	return map[string]Target{
		"openai":   {BaseURL: "https://api.openai.com/v1/", Model: "gpt-3.5-turbo", APIKey: openAIKey},
		"deepseek": {BaseURL: "https://api.deepseek.com/", Model: "deepseek-chat", APIKey: deepSeekKey},
	}
}

// Checker calls providers through the openai-go SDK.
type Checker struct {
	targets map[string]Target
	timeout time.Duration
	opts    []option.RequestOption
}

// New creates a Checker. Extra options (e.g. option.WithHTTPClient) apply to every call.
func New(targets map[string]Target, timeout time.Duration, opts ...option.RequestOption) *Checker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Checker{targets: targets, timeout: timeout, opts: opts}
}

// Check sends a greeting to provider and reports the reply and token usage.
func (c *Checker) Check(ctx context.Context, provider, apiKey string) (*models.ProviderTestResponse, error) {
	provider = strings.ToLower(provider)
	target, ok := c.targets[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if apiKey == "" {
		apiKey = target.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrNoAPIKey, provider)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(target.BaseURL),
		option.WithMaxRetries(0),
	}, c.opts...)
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(target.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a helpful assistant."),
			openai.UserMessage("Hello! This is a connectivity test. Reply with a short greeting."),
		},
		MaxTokens: openai.Int(50),
	})
	if err != nil {
		return nil, fmt.Errorf("%s test call failed: %w", provider, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", provider)
	}

	return &models.ProviderTestResponse{
		Provider:         provider,
		Model:            resp.Model,
		Reply:            strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}
