package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mita-ai-go/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Allow(key string) bool
	Stop()
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter implements per-client rate limiting
type ClientRateLimiter struct {
	enabled         bool
	limiters        map[string]*clientLimiter
	mu              sync.RWMutex
	rpm             int
	burst           int
	logger          *logrus.Logger
	cleanupInterval time.Duration
	idleTimeout     time.Duration
	done            chan struct{}
	stopOnce        sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *config.RateLimitConfig, logger *logrus.Logger) RateLimiter {
	if !cfg.Enabled {
		return &ClientRateLimiter{enabled: false}
	}

	rl := &ClientRateLimiter{
		enabled:         true,
		limiters:        make(map[string]*clientLimiter),
		rpm:             cfg.RequestsPerMinute,
		burst:           cfg.Burst,
		logger:          logger,
		cleanupInterval: 5 * time.Minute,
		idleTimeout:     10 * time.Minute,
		done:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a client is allowed to make a request
func (r *ClientRateLimiter) Allow(key string) bool {
	if !r.enabled {
		return true
	}

	allowed := r.getLimiter(key).Allow()
	if !allowed {
		r.logger.WithFields(logrus.Fields{
			"client": key,
		}).Warn("Rate limit exceeded")
	}

	return allowed
}

// Stop terminates the cleanup goroutine
func (r *ClientRateLimiter) Stop() {
	if !r.enabled {
		return
	}
	r.stopOnce.Do(func() { close(r.done) })
}

// getLimiter gets or creates a rate limiter for a client
func (r *ClientRateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()

	r.mu.RLock()
	entry, exists := r.limiters[key]
	r.mu.RUnlock()

	if exists {
		r.mu.Lock()
		entry.lastSeen = now
		r.mu.Unlock()
		return entry.limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists := r.limiters[key]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	// Rate per second = RPM / 60
	rps := float64(r.rpm) / 60.0
	entry = &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), r.burst),
		lastSeen: now,
	}
	r.limiters[key] = entry

	return entry.limiter
}

// cleanup removes limiters of clients that have gone quiet
func (r *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictIdle(time.Now())
		}
	}
}

func (r *ClientRateLimiter) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.limiters {
		if now.Sub(entry.lastSeen) > r.idleTimeout {
			delete(r.limiters, key)
		}
	}
}

// RateLimit rejects requests from clients that exceeded their budget
func RateLimit(limiter RateLimiter, metrics *Metrics, message func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ClientIP(r)) {
				metrics.RecordRateLimitExceeded()
				WriteError(w, http.StatusTooManyRequests, message(r))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the remote address of the connection without the port
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
