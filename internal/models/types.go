package models

import (
	"time"
)

// Source names the stage that produced a chat reply
type Source string

const (
	SourceKnowledgeBase   Source = "knowledge_base"
	SourcePatternMatching Source = "pattern_matching"
	SourceExternalAI      Source = "external_ai"
	SourceFallback        Source = "fallback"
)

// Model labels reported in usage.model for the local stages
const (
	ModelKnowledgeBase = "local-knowledge-base"
	ModelPatternEngine = "pattern-engine"
	ModelFallback      = "fallback"
)

// Roles used in conversation history
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Topic is one knowledge base entry
type Topic struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Response string   `json:"response" yaml:"response"`
}

// Message represents a chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/ai/chat
type ChatRequest struct {
	Message   string     `json:"message"`
	History   []*Message `json:"history,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Format    string     `json:"format,omitempty"`
}

// Usage describes which engine answered and how long it took
type Usage struct {
	Model     string `json:"model"`
	LatencyMs int64  `json:"latencyMs"`
}

// ChatResponse is the success body of POST /api/ai/chat
type ChatResponse struct {
	Success   bool   `json:"success"`
	Reply     string `json:"reply"`
	ReplyHTML string `json:"reply_html,omitempty"`
	Source    Source `json:"source"`
	Cached    bool   `json:"cached"`
	Usage     Usage  `json:"usage"`
}

// ErrorResponse is returned for every non-2xx answer
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Success         bool   `json:"success"`
	Service         string `json:"service"`
	Version         string `json:"version"`
	GeminiAvailable bool   `json:"gemini_available"`
}

// StatusResponse is the body of GET /api/ai/status
type StatusResponse struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	Available         bool   `json:"available"`
	GeminiAvailable   bool   `json:"gemini_available"`
	KnowledgeBaseSize int    `json:"knowledge_base_size"`
}

// SessionHistoryResponse is the body of GET /api/ai/session/{id}/history
type SessionHistoryResponse struct {
	Success bool      `json:"success"`
	History []Message `json:"history"`
}

// CacheEntry represents a cached response
type CacheEntry struct {
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	Hits         int       `json:"hits"`
}

// Session represents the stored conversation of one session id
type Session struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
