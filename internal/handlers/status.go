package handlers

import (
	"net/http"

	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
)

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, models.HealthResponse{
		Success:         true,
		Service:         ServiceName,
		Version:         Version,
		GeminiAvailable: h.aiService.Available(),
	})
}

// Status handles GET /api/ai/status. The local stages always answer, so the
// service is available even without the external provider.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, models.StatusResponse{
		Success:           true,
		Status:            "online",
		Available:         true,
		GeminiAvailable:   h.aiService.Available(),
		KnowledgeBaseSize: h.base.Size(),
	})
}
