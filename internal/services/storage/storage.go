package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mita-ai-go/internal/config"
	"github.com/mita-ai-go/internal/middleware"
	"github.com/mita-ai-go/internal/models"
	"github.com/sirupsen/logrus"
)

// keptLeadingTurns survive trimming so the conversation keeps its opening
const keptLeadingTurns = 2

// Storage interface defines session storage operations
type Storage interface {
	// GetSession returns nil when the session does not exist
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// Manager manages conversation history on top of a storage backend
type Manager struct {
	storage      Storage
	maxHistory   int
	historyForAI int
	mu           sync.Mutex
	metrics      *middleware.Metrics
	logger       *logrus.Logger
}

// NewManager creates a new storage manager. client is only used by the redis backend.
func NewManager(cfg *config.StorageConfig, client *redis.Client, metrics *middleware.Metrics, logger *logrus.Logger) (*Manager, error) {
	var storage Storage

	switch cfg.Type {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis storage requires a redis client")
		}
		storage = NewRedisStorage(client, cfg.Redis.KeyPrefix, cfg.SessionTTL)
	case "memory":
		storage = NewMemoryStorage(cfg.SessionTTL, cfg.CleanupInterval)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	return NewManagerWithStorage(storage, cfg, metrics, logger), nil
}

// NewManagerWithStorage wraps an existing backend
func NewManagerWithStorage(storage Storage, cfg *config.StorageConfig, metrics *middleware.Metrics, logger *logrus.Logger) *Manager {
	return &Manager{
		storage:      storage,
		maxHistory:   cfg.MaxHistory,
		historyForAI: cfg.HistoryForAI,
		metrics:      metrics,
		logger:       logger,
	}
}

// History returns every stored turn of the session, oldest first
func (m *Manager) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	session, err := m.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []models.Message{}, nil
	}
	return session.Messages, nil
}

// HistoryForAI returns the most recent turns that are sent to the provider
func (m *Manager) HistoryForAI(ctx context.Context, sessionID string) ([]models.Message, error) {
	history, err := m.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if m.historyForAI > 0 && len(history) > m.historyForAI {
		history = history[len(history)-m.historyForAI:]
	}
	return history, nil
}

// Append adds turns to the session, creating it if needed
func (m *Manager) Append(ctx context.Context, sessionID string, messages ...models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.get(ctx, sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	if session == nil {
		session = &models.Session{ID: sessionID, CreatedAt: now}
	}

	session.Messages = append(session.Messages, messages...)
	session.MessageCount += len(messages)
	session.LastActivity = now
	session.Messages = trimHistory(session.Messages, m.maxHistory)

	start := time.Now()
	err = m.storage.SaveSession(ctx, session)
	m.record("save", err, start)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}

	m.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"turns":      len(session.Messages),
	}).Debug("Session updated")

	return nil
}

// Delete removes the session
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := m.storage.DeleteSession(ctx, sessionID)
	m.record("delete", err, start)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	m.logger.WithField("session_id", sessionID).Info("Session cleared")
	return nil
}

func (m *Manager) get(ctx context.Context, sessionID string) (*models.Session, error) {
	start := time.Now()
	session, err := m.storage.GetSession(ctx, sessionID)
	m.record("get", err, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return session, nil
}

func (m *Manager) record(operation string, err error, start time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordStorageOperation(operation, status, time.Since(start))
}

// trimHistory keeps the opening turns plus the newest ones when over max
func trimHistory(messages []models.Message, max int) []models.Message {
	if max <= 0 || len(messages) <= max {
		return messages
	}

	lead := keptLeadingTurns
	if lead > max {
		lead = max
	}

	trimmed := make([]models.Message, 0, max)
	trimmed = append(trimmed, messages[:lead]...)
	return append(trimmed, messages[len(messages)-(max-lead):]...)
}
