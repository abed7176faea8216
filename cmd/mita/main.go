package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/internal/handlers"
	"github.com/mita-ai-go/internal/i18n"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/services/ai"
	"github.com/mita-ai-go/internal/services/cache"
	"github.com/mita-ai-go/internal/services/knowledge"
	"github.com/mita-ai-go/internal/services/responder"
	"github.com/mita-ai-go/internal/services/storage"
	"github.com/mita-ai-go/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not loaded: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"service": handlers.ServiceName,
		"version": handlers.Version,
	}).Info("Starting Mita AI...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Service failed")
	}

	log.Info("Mita AI stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	metrics := middleware.NewMetrics()

	// Knowledge base
	base, err := knowledge.Load(cfg.Knowledge.File)
	if err != nil {
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}
	log.WithFields(logrus.Fields{
		"topics":   base.Size(),
		"patterns": len(base.Patterns()),
		"file":     cfg.Knowledge.File,
	}).Info("Knowledge base loaded")

	// Redis is only dialed when a backend needs it
	var redisClient *redis.Client
	if cfg.Storage.Type == "redis" || (cfg.Cache.Enabled && cfg.Cache.Backend == "redis") {
		redisClient, err = storage.NewRedisClient(ctx, &cfg.Storage.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.WithField("addr", cfg.Storage.Redis.Addr).Info("Connected to redis")
	}

	sessions, err := storage.NewManager(&cfg.Storage, redisClient, metrics, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	answerCache, err := cache.NewCache(&cfg.Cache, redisClient, cfg.Storage.Redis.KeyPrefix, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	aiService, err := ai.NewGeminiAI(ctx, &cfg.Gemini, metrics, log)
	if err != nil {
		return err
	}

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	defer rateLimiter.Stop()

	chain := responder.New(base, aiService, answerCache, sessions, localizer, metrics, log)
	handler := handlers.NewHandler(
		chain,
		aiService,
		base,
		sessions,
		middleware.NewSecurity(cfg.Server.MaxMessageLength),
		localizer,
		metrics,
		log,
	)

	servers := []*http.Server{{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handlers.NewRouter(handler, cfg.Server.CORSOrigins, rateLimiter, metrics, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}}

	// Start metrics server if enabled
	if cfg.Monitoring.Metrics.Enabled {
		servers = append(servers, middleware.NewMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path))
		log.WithFields(logrus.Fields{
			"port": cfg.Monitoring.Metrics.Port,
			"path": cfg.Monitoring.Metrics.Path,
		}).Info("Starting metrics server")
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	log.WithFields(logrus.Fields{
		"port":             cfg.Server.Port,
		"gemini_available": aiService.Available(),
		"storage":          cfg.Storage.Type,
		"cache":            answerCache.Enabled(),
	}).Info("Mita AI listening")

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case serveErr = <-errCh:
	}

	// Drain in-flight requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).WithField("addr", srv.Addr).Error("Graceful shutdown failed")
		}
	}

	return serveErr
}
