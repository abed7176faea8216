package responder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/internal/i18n"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
	"github.com/mita-ai-go/internal/services/ai"
	"github.com/mita-ai-go/internal/services/cache"
	"github.com/mita-ai-go/internal/services/knowledge"
	"github.com/mita-ai-go/internal/services/storage"
	"github.com/mita-ai-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	reply   string
	err     error
	panics  bool
	calls   int
	history []models.Message
}

func (f *fakeAI) Available() bool { return true }

func (f *fakeAI) Model() string { return "gemini-1.5-flash" }

func (f *fakeAI) GetResponse(ctx context.Context, message string, history []models.Message) (string, error) {
	f.calls++
	f.history = history
	if f.panics {
		panic("malformed candidate")
	}
	return f.reply, f.err
}

type fixture struct {
	responder *Responder
	sessions  *storage.Manager
}

func newFixture(t *testing.T, aiService ai.Service, cacheEnabled bool) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	metrics := middleware.NewMetrics()

	base, err := knowledge.Default()
	require.NoError(t, err)

	localizer, err := i18n.NewLocalizer(&config.I18nConfig{DefaultLanguage: "ru", Languages: []string{"ru", "en"}})
	require.NoError(t, err)

	answerCache, err := cache.NewCache(&config.CacheConfig{Enabled: cacheEnabled, Backend: "memory", TTL: time.Minute, MaxSize: 10}, nil, "", log)
	require.NoError(t, err)

	sessions, err := storage.NewManager(&config.StorageConfig{
		Type: "memory", SessionTTL: time.Hour, MaxHistory: 20, HistoryForAI: 10, CleanupInterval: time.Minute,
	}, nil, metrics, log)
	require.NoError(t, err)

	return &fixture{
		responder: New(base, aiService, answerCache, sessions, localizer, metrics, log),
		sessions:  sessions,
	}
}

func TestRespond_KnowledgeBase(t *testing.T) {
	gateway := &fakeAI{reply: "from ai"}
	f := newFixture(t, gateway, false)

	result := f.responder.Respond(context.Background(), Request{Message: "Привет, как написать функцию?"})
	assert.Equal(t, models.SourceKnowledgeBase, result.Source)
	assert.Equal(t, models.ModelKnowledgeBase, result.Model)
	assert.Contains(t, result.Reply, "Привет!")
	assert.False(t, result.Cached)
	assert.Equal(t, 0, gateway.calls)
}

func TestRespond_Pattern(t *testing.T) {
	gateway := &fakeAI{reply: "from ai"}
	f := newFixture(t, gateway, false)

	result := f.responder.Respond(context.Background(), Request{Message: "Как написать функцию?"})
	assert.Equal(t, models.SourcePatternMatching, result.Source)
	assert.Equal(t, models.ModelPatternEngine, result.Model)
	assert.Contains(t, result.Reply, "def greet(name):")
	assert.Equal(t, 0, gateway.calls)
}

func TestRespond_ExternalAI(t *testing.T) {
	gateway := &fakeAI{reply: "Рекурсия это вызов функцией самой себя"}
	f := newFixture(t, gateway, false)

	result := f.responder.Respond(context.Background(), Request{Message: "что такое рекурсия"})
	assert.Equal(t, models.SourceExternalAI, result.Source)
	assert.Equal(t, "gemini-1.5-flash", result.Model)
	assert.Equal(t, gateway.reply, result.Reply)
	assert.Equal(t, 1, gateway.calls)
}

func TestRespond_FallbackWhenAIFails(t *testing.T) {
	gateway := &fakeAI{err: errors.New("timeout")}
	f := newFixture(t, gateway, false)

	result := f.responder.Respond(context.Background(), Request{Message: "расскажи анекдот", Language: "ru"})
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Equal(t, models.ModelFallback, result.Model)
	assert.Contains(t, result.Reply, `**"расскажи анекдот..."**`)
	assert.Equal(t, 1, gateway.calls)
}

func TestRespond_FallbackWhenAIPanics(t *testing.T) {
	gateway := &fakeAI{panics: true}
	f := newFixture(t, gateway, true)

	message := "расскажи анекдот про программистов"
	var result *Result
	require.NotPanics(t, func() {
		result = f.responder.Respond(context.Background(), Request{Message: message, Language: "ru", SessionID: "s1"})
	})
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Equal(t, models.ModelFallback, result.Model)
	assert.Contains(t, result.Reply, message)
	assert.Equal(t, 1, gateway.calls)

	// The fallback is stored like any other reply
	history, err := f.sessions.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, result.Reply, history[1].Content)
}

func TestRespond_FallbackWhenDisabled(t *testing.T) {
	f := newFixture(t, ai.NewDisabled("gemini-1.5-flash"), false)

	message := strings.Repeat("я", 60)
	result := f.responder.Respond(context.Background(), Request{Message: message})
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Contains(t, result.Reply, `**"`+strings.Repeat("я", 50)+`..."**`)
	assert.NotContains(t, result.Reply, strings.Repeat("я", 51))
}

func TestRespond_Cache(t *testing.T) {
	gateway := &fakeAI{reply: "cached answer"}
	f := newFixture(t, gateway, true)
	ctx := context.Background()

	first := f.responder.Respond(ctx, Request{Message: "что такое рекурсия"})
	assert.False(t, first.Cached)

	second := f.responder.Respond(ctx, Request{Message: "Что такое   рекурсия"})
	assert.True(t, second.Cached)
	assert.Equal(t, models.SourceExternalAI, second.Source)
	assert.Equal(t, "cached answer", second.Reply)
	assert.Equal(t, 1, gateway.calls)

	// Requests carrying history bypass the cache
	f.responder.Respond(ctx, Request{
		Message: "что такое рекурсия",
		History: []models.Message{{Role: models.RoleUser, Content: "до этого"}},
	})
	assert.Equal(t, 2, gateway.calls)

	// Short questions are never cached
	f.responder.Respond(ctx, Request{Message: "а это?"})
	f.responder.Respond(ctx, Request{Message: "а это?"})
	assert.Equal(t, 4, gateway.calls)
}

func TestRespond_FailedAIIsNotCached(t *testing.T) {
	gateway := &fakeAI{err: errors.New("quota")}
	f := newFixture(t, gateway, true)
	ctx := context.Background()

	f.responder.Respond(ctx, Request{Message: "что такое рекурсия"})
	gateway.err = nil
	gateway.reply = "ok"

	result := f.responder.Respond(ctx, Request{Message: "что такое рекурсия"})
	assert.False(t, result.Cached)
	assert.Equal(t, "ok", result.Reply)
}

func TestRespond_Session(t *testing.T) {
	gateway := &fakeAI{reply: "ответ"}
	f := newFixture(t, gateway, false)
	ctx := context.Background()

	f.responder.Respond(ctx, Request{Message: "привет", SessionID: "s1"})
	f.responder.Respond(ctx, Request{Message: "что такое рекурсия", SessionID: "s1"})

	// Stored turns are sent to the provider
	require.Len(t, gateway.history, 2)
	assert.Equal(t, "привет", gateway.history[0].Content)
	assert.Equal(t, models.RoleAssistant, gateway.history[1].Role)

	history, err := f.sessions.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "что такое рекурсия", history[2].Content)
	assert.Equal(t, "ответ", history[3].Content)

	// History sent with the request wins over the stored one
	explicit := []models.Message{{Role: models.RoleUser, Content: "другое"}}
	f.responder.Respond(ctx, Request{Message: "что такое стек", SessionID: "s1", History: explicit})
	assert.Equal(t, explicit, gateway.history)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	assert.Equal(t, strings.Repeat("ж", 50), preview(strings.Repeat("ж", 80)))
}
