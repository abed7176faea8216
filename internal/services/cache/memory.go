package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Cache implements the in-memory answer cache
type Cache struct {
	enabled bool
	mu      sync.Mutex
	cache   *cache.Cache
	logger  *logrus.Logger
	maxSize int
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(cfg *config.CacheConfig, logger *logrus.Logger) *Cache {
	return &Cache{
		enabled: true,
		cache:   cache.New(cfg.TTL, cfg.TTL/3),
		logger:  logger,
		maxSize: cfg.MaxSize,
	}
}

// Enabled reports whether answers are cached
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Get retrieves a cached response
func (c *Cache) Get(ctx context.Context, question, model string) (string, bool) {
	if !c.enabled {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := generateKey(question, model)
	if val, found := c.cache.Get(key); found {
		entry := val.(*models.CacheEntry)
		entry.Hits++
		entry.LastAccessed = time.Now()
		c.logger.WithFields(logrus.Fields{
			"model": model,
			"hits":  entry.Hits,
			"age":   time.Since(entry.CreatedAt),
		}).Debug("Cache hit")
		return entry.Answer, true
	}

	return "", false
}

// Set stores a response in cache
func (c *Cache) Set(ctx context.Context, question, model, answer string) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := generateKey(question, model)
	if _, exists := c.cache.Get(key); !exists && c.maxSize > 0 && c.cache.ItemCount() >= c.maxSize {
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxSize {
			c.evictLeastRecent()
		}
	}

	now := time.Now()
	entry := &models.CacheEntry{
		Question:     question,
		Answer:       answer,
		Model:        model,
		CreatedAt:    now,
		LastAccessed: now,
	}

	c.cache.SetDefault(key, entry)
	c.logger.WithFields(logrus.Fields{
		"model": model,
		"size":  c.cache.ItemCount(),
	}).Debug("Response cached")

	return nil
}

// evictLeastRecent drops the entry that was read longest ago
func (c *Cache) evictLeastRecent() {
	var oldestKey string
	var oldest time.Time
	for key, item := range c.cache.Items() {
		entry := item.Object.(*models.CacheEntry)
		if oldestKey == "" || entry.LastAccessed.Before(oldest) {
			oldestKey = key
			oldest = entry.LastAccessed
		}
	}
	if oldestKey != "" {
		c.cache.Delete(oldestKey)
		c.logger.Debug("Evicted least recently used cache entry")
	}
}

// Len returns the number of cached answers
func (c *Cache) Len() int {
	if !c.enabled {
		return 0
	}
	return c.cache.ItemCount()
}

// Clear removes all cached entries
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.cache.Flush()
	c.logger.Info("Cache cleared")
	return nil
}
