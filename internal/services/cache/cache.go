package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-redis/redis/v8"
	"github.com/mita-ai-go/internal/config"
	"github.com/sirupsen/logrus"
)

// MinCacheableLength is the shortest question worth caching, in characters
const MinCacheableLength = 15

// Greetings answered locally; questions starting with them are never cached
var greetingPrefixes = []string{"привет", "здравствуй", "кто ты", "как дела", "хай", "hello"}

// Service defines cache operations
type Service interface {
	Get(ctx context.Context, question, model string) (string, bool)
	Set(ctx context.Context, question, model, answer string) error
	Clear(ctx context.Context) error
	Enabled() bool
}

// NewCache creates the cache backend selected by cfg. client is only used by the redis backend.
func NewCache(cfg *config.CacheConfig, client *redis.Client, prefix string, logger *logrus.Logger) (Service, error) {
	if !cfg.Enabled {
		return &Cache{enabled: false}, nil
	}

	switch cfg.Backend {
	case "memory":
		return NewMemoryCache(cfg, logger), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis cache backend requires a redis client")
		}
		return NewRedisCache(client, prefix, cfg.TTL, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}

// Normalize lowercases, trims and collapses whitespace
func Normalize(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}

// ShouldCache reports whether an answer to question is worth caching
func ShouldCache(question string) bool {
	normalized := strings.TrimSpace(strings.ToLower(question))
	if utf8.RuneCountInString(normalized) < MinCacheableLength {
		return false
	}
	for _, greeting := range greetingPrefixes {
		if strings.HasPrefix(normalized, greeting) {
			return false
		}
	}
	return true
}

// generateKey creates a unique cache key
func generateKey(question, model string) string {
	data := fmt.Sprintf("%s:%s", model, Normalize(question))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
