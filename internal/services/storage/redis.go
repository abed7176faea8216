package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/internal/models"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisStorage implements storage using Redis
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage stores sessions as JSON under prefix + "session:"
func NewRedisStorage(client *redis.Client, prefix string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: prefix + "session:",
		ttl:    ttl,
	}
}

func (r *RedisStorage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}

	return &session, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.prefix+session.ID, data, r.ttl).Err()
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}
