package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/mita-ai-go/internal/i18n"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
)

// SessionHistory handles GET /api/ai/session/{id}/history
func (h *Handler) SessionHistory(w http.ResponseWriter, r *http.Request) {
	lang := h.localizer.Resolve(r.Header.Get("Accept-Language"))
	sessionID := strings.TrimSpace(mux.Vars(r)["id"])
	if sessionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, h.localizer.Get(lang, i18n.MsgSessionRequired, nil))
		return
	}

	history, err := h.sessions.History(r.Context(), sessionID)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to load session history")
		middleware.WriteError(w, http.StatusInternalServerError, h.localizer.Get(lang, i18n.MsgInternalError, nil))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, models.SessionHistoryResponse{Success: true, History: history})
}

// DeleteSession handles DELETE /api/ai/session/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	lang := h.localizer.Resolve(r.Header.Get("Accept-Language"))
	sessionID := strings.TrimSpace(mux.Vars(r)["id"])
	if sessionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, h.localizer.Get(lang, i18n.MsgSessionRequired, nil))
		return
	}

	if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to delete session")
		middleware.WriteError(w, http.StatusInternalServerError, h.localizer.Get(lang, i18n.MsgInternalError, nil))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
