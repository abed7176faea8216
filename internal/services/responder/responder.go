package responder

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/mita-ai-go/internal/i18n"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
	"github.com/mita-ai-go/internal/services/ai"
	"github.com/mita-ai-go/internal/services/cache"
	"github.com/mita-ai-go/internal/services/knowledge"
	"github.com/mita-ai-go/internal/services/storage"
	"github.com/sirupsen/logrus"
)

// PreviewLength is how many characters of the question the fallback echoes
const PreviewLength = 50

// Request is one chat turn to answer
type Request struct {
	// Message must already be trimmed and validated
	Message   string
	History   []models.Message
	SessionID string
	Language  string
}

// Result is the reply and the stage that produced it
type Result struct {
	Reply  string
	Source models.Source
	Model  string
	Cached bool
}

// Responder runs the answer chain: keywords, patterns, external AI, fallback
type Responder struct {
	keywords  *knowledge.KeywordMatcher
	patterns  *knowledge.PatternMatcher
	aiService ai.Service
	cache     cache.Service
	sessions  *storage.Manager
	localizer *i18n.Localizer
	metrics   *middleware.Metrics
	logger    *logrus.Logger
}

// New creates a responder. sessions may be nil when history is not stored.
func New(
	base *knowledge.Base,
	aiService ai.Service,
	answerCache cache.Service,
	sessions *storage.Manager,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *Responder {
	return &Responder{
		keywords:  knowledge.NewKeywordMatcher(base),
		patterns:  knowledge.NewPatternMatcher(base),
		aiService: aiService,
		cache:     answerCache,
		sessions:  sessions,
		localizer: localizer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Respond always produces a reply; failing stages are skipped
func (r *Responder) Respond(ctx context.Context, req Request) *Result {
	result := r.answer(ctx, req)

	if req.SessionID != "" && r.sessions != nil {
		err := r.sessions.Append(ctx, req.SessionID,
			models.Message{Role: models.RoleUser, Content: req.Message},
			models.Message{Role: models.RoleAssistant, Content: result.Reply},
		)
		if err != nil {
			r.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to save session")
		}
	}

	return result
}

func (r *Responder) answer(ctx context.Context, req Request) *Result {
	if topic, ok := r.keywords.Match(req.Message); ok {
		r.logger.WithField("topic", topic.Name).Debug("Answered from knowledge base")
		return &Result{Reply: topic.Response, Source: models.SourceKnowledgeBase, Model: models.ModelKnowledgeBase}
	}

	if rule, ok := r.patterns.Match(req.Message); ok {
		r.logger.WithField("topic", rule.Topic).Debug("Answered by pattern")
		return &Result{Reply: rule.Response, Source: models.SourcePatternMatching, Model: models.ModelPatternEngine}
	}

	if r.aiService.Available() {
		if result, ok := r.askAI(ctx, req); ok {
			return result
		}
	}

	return &Result{
		Reply:  r.localizer.Get(req.Language, i18n.MsgFallback, map[string]interface{}{"Preview": preview(req.Message)}),
		Source: models.SourceFallback,
		Model:  models.ModelFallback,
	}
}

func (r *Responder) askAI(ctx context.Context, req Request) (*Result, bool) {
	model := r.aiService.Model()
	history := r.history(ctx, req)

	cacheable := len(history) == 0 && r.cache.Enabled() && cache.ShouldCache(req.Message)
	if cacheable {
		if answer, found := r.cache.Get(ctx, req.Message, model); found {
			r.metrics.RecordCacheHit()
			return &Result{Reply: answer, Source: models.SourceExternalAI, Model: model, Cached: true}, true
		}
		r.metrics.RecordCacheMiss()
	}

	reply, err := r.callAI(ctx, req.Message, history)
	if err != nil {
		r.logger.WithError(err).WithField("model", model).Warn("External AI unavailable, using fallback")
		return nil, false
	}

	if cacheable {
		if err := r.cache.Set(ctx, req.Message, model, reply); err != nil {
			r.logger.WithError(err).Warn("Failed to cache response")
		}
	}

	return &Result{Reply: reply, Source: models.SourceExternalAI, Model: model}, true
}

// callAI turns a provider panic into an error so the chain can fall through
func (r *Responder) callAI(ctx context.Context, message string, history []models.Message) (reply string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("ai provider panicked: %v", rec)
		}
	}()
	return r.aiService.GetResponse(ctx, message, history)
}

// history prefers turns sent with the request over stored ones
func (r *Responder) history(ctx context.Context, req Request) []models.Message {
	if len(req.History) > 0 || req.SessionID == "" || r.sessions == nil {
		return req.History
	}

	history, err := r.sessions.HistoryForAI(ctx, req.SessionID)
	if err != nil {
		r.logger.WithError(err).WithField("session_id", req.SessionID).Warn("Failed to load session history")
		return nil
	}
	return history
}

// preview returns the first PreviewLength characters of message
func preview(message string) string {
	if utf8.RuneCountInString(message) <= PreviewLength {
		return message
	}
	return string([]rune(message)[:PreviewLength])
}
