// Package generation turns extracted document text into a social-media Draft.
//
// The pipeline is: cache lookup → provider ladder (openai, deepseek) → mock.
// Generate never fails; the mock rung always produces a draft.
package generation

import (
	"context"
	"log/slog"

	apperrors "github.com/Shimizu-Technology/docpost-api/internal/errors"
	"github.com/Shimizu-Technology/docpost-api/internal/fallback"
	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// Pseudo-provider names used in status callbacks.
const (
	CacheProvider = "cache"
	MockProvider  = "mock"
)

// Service owns the cache, the limiter and the provider ladder.
//
// Go Pattern: Every collaborator is passed in explicitly (dependency
// injection), so tests can build a Service around spies and fake clocks
// without touching package-level state.
type Service struct {
	cache     *Cache
	limiter   *RateLimiter
	providers []Provider
	mock      *Mock
	log       *slog.Logger
}

// NewService builds a Service. Nil cache, limiter or mock get defaults.
func NewService(cache *Cache, limiter *RateLimiter, providers []Provider, mock *Mock, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NewCache()
	}
	if limiter == nil {
		limiter = NewRateLimiter(DefaultCallLimit, DefaultCallWindow, nil)
	}
	if mock == nil {
		mock = NewMock(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:     cache,
		limiter:   limiter,
		providers: providers,
		mock:      mock,
		log:       logger.With("component", "generation"),
	}
}

type request struct {
	text     string
	fileName string
}

// Generate returns a draft for the document. onStatus may be nil.
func (s *Service) Generate(ctx context.Context, text, fileName string, onStatus models.StatusFunc) models.Draft {
	key := Fingerprint(fileName, text)
	if draft, ok := s.cache.Get(key); ok {
		s.log.Info("using cached draft", "file", fileName)
		s.safeNotify(onStatus, CacheProvider, models.PhaseRetrieved)
		return draft
	}

	strategies := make([]fallback.Strategy[request, models.Draft], 0, len(s.providers))
	for _, p := range s.providers {
		strategies = append(strategies, s.strategy(p, onStatus))
	}

	draft, attempts, err := fallback.FirstSuccess(ctx, request{text: text, fileName: fileName}, strategies...)
	if err != nil {
		s.log.Warn("all providers failed, using mock draft", "file", fileName, "attempts", len(attempts))
		s.safeNotify(onStatus, MockProvider, models.PhaseFallback)
		draft = s.mock.Generate(text, fileName)
	}

	// Always echo the requested file name, whatever the provider returned.
	draft.FileName = fileName
	s.cache.Put(key, draft)
	return draft
}

// CacheLen reports how many drafts are cached.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// RemainingCalls reports the provider calls left in the current window.
func (s *Service) RemainingCalls() int {
	return s.limiter.Remaining()
}

func (s *Service) strategy(p Provider, onStatus models.StatusFunc) fallback.Strategy[request, models.Draft] {
	name := p.Name()
	return fallback.Strategy[request, models.Draft]{
		Name: name,
		Run: func(ctx context.Context, req request) (models.Draft, error) {
			if !s.limiter.Allow() {
				err := apperrors.NewRateLimitExceeded(s.limiter.Limit())
				s.log.Warn("provider skipped", "provider", name, "error", err)
				s.safeNotify(onStatus, name, models.PhaseFailed)
				return models.Draft{}, err
			}

			notify := func(phase models.Phase) { s.safeNotify(onStatus, name, phase) }
			draft, err := p.Generate(ctx, req.text, req.fileName, notify)
			if err != nil {
				s.log.Warn("provider failed", "provider", name, "error", err)
				notify(models.PhaseFailed)
				return models.Draft{}, err
			}

			notify(models.PhaseSuccess)
			return draft, nil
		},
	}
}

// safeNotify calls onStatus, swallowing any panic so a broken observer
// can't abort generation.
func (s *Service) safeNotify(onStatus models.StatusFunc, provider string, phase models.Phase) {
	if onStatus == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("status callback panicked", "provider", provider, "phase", phase, "panic", r)
		}
	}()
	onStatus(provider, phase)
}
