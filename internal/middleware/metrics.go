package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Chat metrics
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mita_chat_requests_total",
		Help: "Total number of answered chat requests",
	}, []string{"source"})

	chatLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mita_chat_latency_seconds",
		Help:    "Time spent producing a chat reply",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// AI metrics
	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mita_ai_request_duration_seconds",
		Help:    "Duration of external AI requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "status"})

	aiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mita_ai_requests_total",
		Help: "Total number of external AI requests",
	}, []string{"model", "status"})

	// Cache metrics
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mita_cache_hits_total",
		Help: "Total number of answer cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mita_cache_misses_total",
		Help: "Total number of answer cache misses",
	})

	// Rate limit metrics
	rateLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mita_rate_limit_exceeded_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	// Storage metrics
	storageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mita_storage_operations_total",
		Help: "Total number of session storage operations",
	}, []string{"operation", "status"})

	storageOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mita_storage_operation_duration_seconds",
		Help:    "Duration of session storage operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// HTTP metrics
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mita_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"route", "method", "status"})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordChat records an answered chat request
func (m *Metrics) RecordChat(source string, latency time.Duration) {
	chatRequests.WithLabelValues(source).Inc()
	chatLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordAIRequest records an AI request
func (m *Metrics) RecordAIRequest(model, status string, duration time.Duration) {
	aiRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
	aiRequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordRateLimitExceeded records a rejected request
func (m *Metrics) RecordRateLimitExceeded() {
	rateLimitExceeded.Inc()
}

// RecordStorageOperation records a storage operation
func (m *Metrics) RecordStorageOperation(operation, status string, duration time.Duration) {
	storageOperations.WithLabelValues(operation, status).Inc()
	storageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(route, method string, status int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// NewMetricsServer builds the metrics HTTP server
func NewMetricsServer(port int, path string) *http.Server {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
