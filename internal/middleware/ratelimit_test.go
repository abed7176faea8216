package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 30, Burst: 3}, logger.NewNopLogger())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Budgets are per client
	assert.True(t, rl.Allow("10.0.0.2"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false}, logger.NewNopLogger())
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1}, logger.NewNopLogger()).(*ClientRateLimiter)
	defer rl.Stop()

	rl.Allow("idle")
	rl.evictIdle(time.Now().Add(time.Hour))

	rl.mu.RLock()
	assert.Empty(t, rl.limiters)
	rl.mu.RUnlock()

	assert.True(t, rl.Allow("idle"))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 30, Burst: 1}, logger.NewNopLogger())
	defer rl.Stop()

	handler := RateLimit(rl, NewMetrics(), func(*http.Request) string {
		return "Слишком много запросов. Попробуйте позже."
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", nil)
	req.RemoteAddr = "192.0.2.7:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Слишком много запросов. Попробуйте позже."}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", ClientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(req))
}
