package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Persona is sent as the opening user turn of every conversation
const Persona = `Ты — Mita (Мита), умный AI-помощник образовательной платформы EliteHeat.

ТВОЯ ЛИЧНОСТЬ:
- Ты дружелюбная, умная и полезная
- Отвечаешь на РУССКОМ языке
- Используешь эмодзи умеренно для дружелюбности
- Твой создатель — Даниял

СПЕЦИАЛИЗАЦИЯ:
- Python (программирование)
- Figma (дизайн интерфейсов)
- Веб-разработка (HTML, CSS, JavaScript)

СТИЛЬ ОТВЕТОВ:
1. Отвечай полно и информативно
2. Используй примеры кода когда уместно
3. Объясняй простым языком
4. Структурируй ответы с маркерами и заголовками`

// PersonaAck is the model turn that follows the persona
const PersonaAck = "Понял! Я Мита, готова помогать! 🚀"

// Generator is the part of the genai client the gateway needs
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAI implements Service on top of the Gemini API
type GeminiAI struct {
	generator Generator
	model     string
	timeout   time.Duration
	genConfig *genai.GenerateContentConfig
	metrics   *middleware.Metrics
	logger    *logrus.Logger
}

// NewGeminiAI creates the gateway, or a disabled service when no key is configured
func NewGeminiAI(ctx context.Context, cfg *config.GeminiConfig, metrics *middleware.Metrics, logger *logrus.Logger) (Service, error) {
	if !cfg.Enabled() {
		logger.Warn("GEMINI_API_KEY is not set, external AI disabled")
		return NewDisabled(cfg.Model), nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"model":   cfg.Model,
		"timeout": cfg.Timeout.String(),
	}).Info("Gemini AI initialized")

	return NewGeminiAIWithGenerator(client.Models, cfg, metrics, logger), nil
}

// NewGeminiAIWithGenerator builds the gateway around an existing generator
func NewGeminiAIWithGenerator(generator Generator, cfg *config.GeminiConfig, metrics *middleware.Metrics, logger *logrus.Logger) *GeminiAI {
	return &GeminiAI{
		generator: generator,
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		genConfig: generationConfig(cfg),
		metrics:   metrics,
		logger:    logger,
	}
}

func generationConfig(cfg *config.GeminiConfig) *genai.GenerateContentConfig {
	threshold := genai.HarmBlockThreshold(cfg.SafetyThreshold)
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	safety := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		safety = append(safety, &genai.SafetySetting{Category: category, Threshold: threshold})
	}

	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopP:            genai.Ptr(cfg.TopP),
		TopK:            genai.Ptr(cfg.TopK),
		MaxOutputTokens: cfg.MaxOutputTokens,
		SafetySettings:  safety,
	}
}

func (g *GeminiAI) Available() bool { return true }

func (g *GeminiAI) Model() string { return g.model }

// GetResponse makes a single bounded call; failures are returned, never retried
func (g *GeminiAI) GetResponse(ctx context.Context, message string, history []models.Message) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := buildContents(message, history)

	g.logger.WithFields(logrus.Fields{
		"model": g.model,
		"turns": len(contents),
	}).Debug("Sending Gemini request")

	start := time.Now()
	resp, err := g.generator.GenerateContent(ctx, g.model, contents, g.genConfig)
	if err != nil {
		g.metrics.RecordAIRequest(g.model, "error", time.Since(start))
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var text string
	if resp != nil {
		text = resp.Text()
	}
	if strings.TrimSpace(text) == "" {
		g.metrics.RecordAIRequest(g.model, "empty", time.Since(start))
		return "", ErrEmptyResponse
	}

	g.metrics.RecordAIRequest(g.model, "success", time.Since(start))
	return text, nil
}

// buildContents lays out persona, acknowledgement, prior turns and the new message
func buildContents(message string, history []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+3)
	contents = append(contents,
		genai.NewContentFromText(Persona, genai.RoleUser),
		genai.NewContentFromText(PersonaAck, genai.RoleModel),
	)

	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		role := genai.Role(genai.RoleModel)
		if turn.Role == models.RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(middleware.SanitizeForAI(turn.Content), role))
	}

	return append(contents, genai.NewContentFromText(middleware.SanitizeForAI(message), genai.RoleUser))
}
