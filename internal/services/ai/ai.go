package ai

import (
	"context"
	"errors"

	"github.com/mita-ai-go/internal/models"
)

var (
	// ErrDisabled is returned when no provider credential is configured
	ErrDisabled = errors.New("external AI is not configured")
	// ErrEmptyResponse is returned when the provider answered with no text
	ErrEmptyResponse = errors.New("external AI returned an empty response")
)

// Service represents the AI service interface
type Service interface {
	// Available reports whether the service can call the provider
	Available() bool
	// Model returns the provider model name reported in usage
	Model() string
	// GetResponse asks the provider for a reply to message given prior turns
	GetResponse(ctx context.Context, message string, history []models.Message) (string, error)
}

// Disabled is the Service used when no API key is configured. It never calls out.
type Disabled struct {
	model string
}

// NewDisabled creates a disabled service reporting the given model name
func NewDisabled(model string) *Disabled {
	return &Disabled{model: model}
}

func (d *Disabled) Available() bool { return false }

func (d *Disabled) Model() string { return d.model }

func (d *Disabled) GetResponse(ctx context.Context, message string, history []models.Message) (string, error) {
	return "", ErrDisabled
}
