package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mita-ai-go/internal/i18n"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the API routes and middleware chain
func NewRouter(h *Handler, corsOrigins []string, limiter middleware.RateLimiter, metrics *middleware.Metrics, logger *logrus.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.AccessLog(logger, metrics), middleware.Recovery(logger))

	router.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/ai").Subrouter()
	api.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	api.HandleFunc("/session/{id}/history", h.SessionHistory).Methods(http.MethodGet)
	api.HandleFunc("/session/{id}", h.DeleteSession).Methods(http.MethodDelete)

	rateLimit := middleware.RateLimit(limiter, metrics, func(r *http.Request) string {
		lang := h.localizer.Resolve(r.Header.Get("Accept-Language"))
		return h.localizer.Get(lang, i18n.MsgRateLimitExceeded, nil)
	})
	api.Handle("/chat", rateLimit(http.HandlerFunc(h.Chat))).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	// CORS wraps the whole router so preflights reach it before route matching
	return middleware.NewCORS(corsOrigins).Process(router)
}
