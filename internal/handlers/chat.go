package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mita-ai-go/internal/i18n"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
	"github.com/mita-ai-go/internal/services/responder"
	"github.com/mita-ai-go/pkg/markdown"
	"github.com/sirupsen/logrus"
)

// Chat handles POST /api/ai/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := h.localizer.Resolve(r.Header.Get("Accept-Language"))

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WithError(err).Debug("Rejected malformed chat request")
		middleware.WriteError(w, http.StatusBadRequest, h.localizer.Get(lang, i18n.MsgInvalidRequest, nil))
		return
	}

	message := strings.TrimSpace(req.Message)
	if err := h.security.ValidateInput(message); err != nil {
		msgID := i18n.MsgInvalidRequest
		switch {
		case errors.Is(err, middleware.ErrEmptyMessage):
			msgID = i18n.MsgEmptyMessage
		case errors.Is(err, middleware.ErrMessageTooLong):
			msgID = i18n.MsgMessageTooLong
		}
		middleware.WriteError(w, http.StatusBadRequest, h.localizer.Get(lang, msgID, nil))
		return
	}

	result := h.responder.Respond(r.Context(), responder.Request{
		Message:   message,
		History:   convertHistory(req.History),
		SessionID: strings.TrimSpace(req.SessionID),
		Language:  lang,
	})

	latency := time.Since(start)
	h.metrics.RecordChat(string(result.Source), latency)

	h.logger.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"source":     result.Source,
		"cached":     result.Cached,
		"latency_ms": latency.Milliseconds(),
	}).Info("Chat answered")

	resp := models.ChatResponse{
		Success: true,
		Reply:   result.Reply,
		Source:  result.Source,
		Cached:  result.Cached,
		Usage: models.Usage{
			Model:     result.Model,
			LatencyMs: latency.Milliseconds(),
		},
	}
	if strings.EqualFold(req.Format, "html") {
		resp.ReplyHTML = markdown.ToHTML(result.Reply)
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// convertHistory drops nil and blank turns
func convertHistory(history []*models.Message) []models.Message {
	if len(history) == 0 {
		return nil
	}

	out := make([]models.Message, 0, len(history))
	for _, turn := range history {
		if turn == nil || strings.TrimSpace(turn.Content) == "" {
			continue
		}
		out = append(out, *turn)
	}
	return out
}
