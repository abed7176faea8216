package handlers

import (
	"github.com/mita-ai-go/internal/i18n"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/services/ai"
	"github.com/mita-ai-go/internal/services/knowledge"
	"github.com/mita-ai-go/internal/services/responder"
	"github.com/mita-ai-go/internal/services/storage"
	"github.com/sirupsen/logrus"
)

const (
	ServiceName = "Mita AI"
	Version     = "2.0.0"
)

// maxBodyBytes caps the request body; message length is checked separately
const maxBodyBytes = 1 << 20

// Handler serves the chat API
type Handler struct {
	responder *responder.Responder
	aiService ai.Service
	base      *knowledge.Base
	sessions  *storage.Manager
	security  *middleware.Security
	localizer *i18n.Localizer
	metrics   *middleware.Metrics
	logger    *logrus.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	responder *responder.Responder,
	aiService ai.Service,
	base *knowledge.Base,
	sessions *storage.Manager,
	security *middleware.Security,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		responder: responder,
		aiService: aiService,
		base:      base,
		sessions:  sessions,
		security:  security,
		localizer: localizer,
		metrics:   metrics,
		logger:    logger,
	}
}
