package storage

import (
	"context"
	"time"

	"github.com/mita-ai-go/internal/models"
	"github.com/patrickmn/go-cache"
)

// MemoryStorage implements storage using in-memory cache
type MemoryStorage struct {
	sessions *cache.Cache
}

// NewMemoryStorage creates sessions that expire ttl after their last write
func NewMemoryStorage(ttl, cleanupInterval time.Duration) *MemoryStorage {
	return &MemoryStorage{
		sessions: cache.New(ttl, cleanupInterval),
	}
}

func (m *MemoryStorage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if val, found := m.sessions.Get(id); found {
		session := val.(models.Session)
		session.Messages = append([]models.Message(nil), session.Messages...)
		return &session, nil
	}
	return nil, nil
}

func (m *MemoryStorage) SaveSession(ctx context.Context, session *models.Session) error {
	stored := *session
	stored.Messages = append([]models.Message(nil), session.Messages...)
	m.sessions.SetDefault(session.ID, stored)
	return nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, id string) error {
	m.sessions.Delete(id)
	return nil
}
