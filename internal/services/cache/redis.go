package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mita-ai-go/internal/models"
	"github.com/sirupsen/logrus"
)

// RedisCache keeps answers in Redis so several replicas share them
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisCache creates a Redis backed cache; entries expire after ttl
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix + "cache:",
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisCache) Enabled() bool { return true }

func (r *RedisCache) key(question, model string) string {
	return r.prefix + generateKey(question, model)
}

// Get retrieves a cached response; backend errors count as a miss
func (r *RedisCache) Get(ctx context.Context, question, model string) (string, bool) {
	data, err := r.client.Get(ctx, r.key(question, model)).Bytes()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.logger.WithError(err).Warn("Failed to read answer cache")
		return "", false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		r.logger.WithError(err).Warn("Corrupt answer cache entry")
		return "", false
	}

	return entry.Answer, true
}

// Set stores a response in cache
func (r *RedisCache) Set(ctx context.Context, question, model, answer string) error {
	now := time.Now()
	data, err := json.Marshal(&models.CacheEntry{
		Question:     question,
		Answer:       answer,
		Model:        model,
		CreatedAt:    now,
		LastAccessed: now,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := r.client.Set(ctx, r.key(question, model), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear removes every cached answer under the prefix
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache entries: %w", err)
	}

	r.logger.Info("Cache cleared")
	return nil
}
