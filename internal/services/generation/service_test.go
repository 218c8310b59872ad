package generation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/docpost-api/internal/logging"
	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/services/draftparser"
)

// spyProvider records calls and returns a fixed draft or error.
type spyProvider struct {
	name  string
	err   error
	mu    sync.Mutex
	calls int
}

func (p *spyProvider) Name() string { return p.name }

func (p *spyProvider) Generate(_ context.Context, text, fileName string, notify func(models.Phase)) (models.Draft, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	notify(models.PhaseConnecting)
	if p.err != nil {
		return models.Draft{}, p.err
	}
	raw := fmt.Sprintf("【标题】%s title\n【正文】body\n【话题】#a #b #c #d #e\n【推荐平台】小红书\n微博\n知乎\n【图片提示】img", p.name)
	return draftparser.Parse(raw, fileName, nil), nil
}

func (p *spyProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type statusLog struct {
	mu     sync.Mutex
	events []string
}

func (l *statusLog) record(provider string, phase models.Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, provider+"/"+string(phase))
}

func (l *statusLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func seededMock() *Mock {
	return NewMock(rand.NewPCG(1, 2))
}

func newTestService(providers ...Provider) *Service {
	return NewService(NewCache(), nil, providers, seededMock(), logging.Discard())
}

func TestGenerate_FirstProviderWins(t *testing.T) {
	openaiSpy := &spyProvider{name: "openai"}
	deepseekSpy := &spyProvider{name: "deepseek"}
	svc := newTestService(openaiSpy, deepseekSpy)

	var log statusLog
	draft := svc.Generate(context.Background(), "some text", "spring.pdf", log.record)

	assert.Equal(t, "openai title", draft.Title)
	assert.Equal(t, "spring.pdf", draft.FileName)
	assert.Equal(t, 1, openaiSpy.Calls())
	assert.Equal(t, 0, deepseekSpy.Calls())
	assert.Equal(t, []string{"openai/connecting", "openai/success"}, log.Events())
	assert.Equal(t, 1, svc.CacheLen())
}

func TestGenerate_FallsThroughToSecondProvider(t *testing.T) {
	openaiSpy := &spyProvider{name: "openai", err: errors.New("401 unauthorized")}
	deepseekSpy := &spyProvider{name: "deepseek"}
	svc := newTestService(openaiSpy, deepseekSpy)

	var log statusLog
	draft := svc.Generate(context.Background(), "some text", "spring.pdf", log.record)

	assert.Equal(t, "deepseek title", draft.Title)
	assert.Equal(t, []string{
		"openai/connecting", "openai/failed",
		"deepseek/connecting", "deepseek/success",
	}, log.Events())
}

func TestGenerate_CacheHitSkipsProviders(t *testing.T) {
	spy := &spyProvider{name: "openai"}
	svc := newTestService(spy)

	first := svc.Generate(context.Background(), "same text", "a.pdf", nil)

	var log statusLog
	second := svc.Generate(context.Background(), "same text", "a.pdf", log.record)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, spy.Calls())
	assert.Equal(t, []string{"cache/retrieved"}, log.Events())
}

func TestGenerate_AllProvidersFailUsesMock(t *testing.T) {
	failing := errors.New("network down")
	svc := NewService(NewCache(), nil, []Provider{
		&spyProvider{name: "openai", err: failing},
		&spyProvider{name: "deepseek", err: failing},
	}, seededMock(), logging.Discard())
	other := NewService(NewCache(), nil, []Provider{
		&spyProvider{name: "openai", err: failing},
	}, seededMock(), logging.Discard())

	var log statusLog
	draft := svc.Generate(context.Background(), "Revenue grew strongly this quarter.", "Q3_Report.pdf", log.record)
	again := other.Generate(context.Background(), "Revenue grew strongly this quarter.", "Q3_Report.pdf", nil)

	assert.Equal(t, "mock/fallback", log.Events()[len(log.Events())-1])
	assert.Contains(t, draft.Title, "Q3 Report")
	assert.Equal(t, []string{"LinkedIn", "Twitter", "Facebook"}, draft.Platforms)
	assert.Len(t, draft.Hashtags, 5)
	// Same seed, same inputs: the mock is fully deterministic.
	assert.Equal(t, draft, again)
}

func TestGenerate_EndToEndMockThenCache(t *testing.T) {
	spy := &spyProvider{name: "openai", err: errors.New("timeout")}
	svc := newTestService(spy)

	draft := svc.Generate(context.Background(), "Quarterly numbers.", "Q3_Report.pdf", nil)
	assert.Contains(t, draft.Title, "Q3 Report")
	assert.Equal(t, []string{"LinkedIn", "Twitter", "Facebook"}, draft.Platforms)

	var log statusLog
	cached := svc.Generate(context.Background(), "Quarterly numbers.", "Q3_Report.pdf", log.record)
	assert.Equal(t, draft, cached)
	assert.Equal(t, 1, spy.Calls())
	assert.Equal(t, []string{"cache/retrieved"}, log.Events())
}

func TestGenerate_RateLimitFallsBackToMock(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(50, time.Hour, func() time.Time { return now })
	spy := &spyProvider{name: "openai"}
	svc := NewService(NewCache(), limiter, []Provider{spy}, seededMock(), logging.Discard())

	for i := 0; i < 50; i++ {
		draft := svc.Generate(context.Background(), fmt.Sprintf("doc %d", i), "doc.pdf", nil)
		require.Equal(t, "openai title", draft.Title, "call %d", i)
	}
	assert.Equal(t, 0, svc.RemainingCalls())

	draft := svc.Generate(context.Background(), "doc 51", "doc.pdf", nil)
	assert.True(t, strings.HasPrefix(draft.Title, "New Insights from"), draft.Title)
	assert.Equal(t, 50, spy.Calls())
}

func TestGenerate_PanickingCallbackIgnored(t *testing.T) {
	svc := newTestService(&spyProvider{name: "openai"})

	draft := svc.Generate(context.Background(), "text", "a.pdf", func(string, models.Phase) {
		panic("observer bug")
	})
	assert.Equal(t, "openai title", draft.Title)
}

func TestGenerate_NoProviders(t *testing.T) {
	svc := newTestService()
	draft := svc.Generate(context.Background(), "text", "notes.pdf", nil)
	assert.Equal(t, "New Insights from Notes", draft.Title)
}
