package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
	"github.com/mita-ai-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	reply    string
	err      error
	block    bool
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	calls    int
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = cfg
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func testGeminiConfig() *config.GeminiConfig {
	return &config.GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-1.5-flash",
		Timeout:         time.Second,
		Temperature:     0.8,
		TopP:            0.95,
		TopK:            50,
		MaxOutputTokens: 4000,
		SafetyThreshold: "BLOCK_ONLY_HIGH",
	}
}

func TestGeminiAI_GetResponse(t *testing.T) {
	gen := &fakeGenerator{reply: "Рекурсия — это..."}
	svc := NewGeminiAIWithGenerator(gen, testGeminiConfig(), middleware.NewMetrics(), logger.NewNopLogger())

	assert.True(t, svc.Available())
	assert.Equal(t, "gemini-1.5-flash", svc.Model())

	history := []models.Message{
		{Role: models.RoleUser, Content: "привет"},
		{Role: models.RoleAssistant, Content: "Привет!"},
		{Role: models.RoleUser, Content: "   "},
	}
	reply, err := svc.GetResponse(context.Background(), "что такое рекурсия <script>x()</script>", history)
	require.NoError(t, err)
	assert.Equal(t, "Рекурсия — это...", reply)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "gemini-1.5-flash", gen.model)

	require.Len(t, gen.contents, 5)
	assert.Equal(t, "user", gen.contents[0].Role)
	assert.Equal(t, Persona, gen.contents[0].Parts[0].Text)
	assert.Equal(t, "model", gen.contents[1].Role)
	assert.Equal(t, PersonaAck, gen.contents[1].Parts[0].Text)
	assert.Equal(t, "user", gen.contents[2].Role)
	assert.Equal(t, "model", gen.contents[3].Role)
	assert.Equal(t, "Привет!", gen.contents[3].Parts[0].Text)
	assert.Equal(t, "user", gen.contents[4].Role)
	assert.Equal(t, "что такое рекурсия [CODE_BLOCKED]", gen.contents[4].Parts[0].Text)
}

func TestGeminiAI_GenerationConfig(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc := NewGeminiAIWithGenerator(gen, testGeminiConfig(), middleware.NewMetrics(), logger.NewNopLogger())

	_, err := svc.GetResponse(context.Background(), "hi", nil)
	require.NoError(t, err)

	require.NotNil(t, gen.config)
	assert.Equal(t, float32(0.8), *gen.config.Temperature)
	assert.Equal(t, float32(0.95), *gen.config.TopP)
	assert.Equal(t, float32(50), *gen.config.TopK)
	assert.Equal(t, int32(4000), gen.config.MaxOutputTokens)
	require.Len(t, gen.config.SafetySettings, 4)
	for _, s := range gen.config.SafetySettings {
		assert.Equal(t, genai.HarmBlockThresholdBlockOnlyHigh, s.Threshold)
	}
}

func TestGeminiAI_Errors(t *testing.T) {
	cfg := testGeminiConfig()

	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewGeminiAIWithGenerator(gen, cfg, middleware.NewMetrics(), logger.NewNopLogger())
	_, err := svc.GetResponse(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, gen.calls, "no retries")

	gen = &fakeGenerator{reply: "  \n"}
	svc = NewGeminiAIWithGenerator(gen, cfg, middleware.NewMetrics(), logger.NewNopLogger())
	_, err = svc.GetResponse(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiAI_Timeout(t *testing.T) {
	cfg := testGeminiConfig()
	cfg.Timeout = 20 * time.Millisecond

	gen := &fakeGenerator{block: true}
	svc := NewGeminiAIWithGenerator(gen, cfg, middleware.NewMetrics(), logger.NewNopLogger())

	start := time.Now()
	_, err := svc.GetResponse(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewGeminiAI_Disabled(t *testing.T) {
	cfg := testGeminiConfig()
	cfg.APIKey = "  "

	svc, err := NewGeminiAI(context.Background(), cfg, middleware.NewMetrics(), logger.NewNopLogger())
	require.NoError(t, err)
	assert.False(t, svc.Available())
	assert.Equal(t, "gemini-1.5-flash", svc.Model())

	_, err = svc.GetResponse(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewGeminiAI_HTTP(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Привет из Gemini"}]}}]}`))
	}))
	defer server.Close()

	cfg := testGeminiConfig()
	cfg.BaseURL = server.URL

	svc, err := NewGeminiAI(context.Background(), cfg, middleware.NewMetrics(), logger.NewNopLogger())
	require.NoError(t, err)
	require.True(t, svc.Available())

	reply, err := svc.GetResponse(context.Background(), "привет", nil)
	require.NoError(t, err)
	assert.Equal(t, "Привет из Gemini", reply)
	assert.True(t, strings.HasSuffix(path, "gemini-1.5-flash:generateContent"), path)
}
