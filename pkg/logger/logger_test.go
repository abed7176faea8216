package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/mita-ai-go/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(&config.LoggingConfig{Level: "debug", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mita.log")
	log, err := NewLogger(&config.LoggingConfig{
		Level:  "info",
		Output: "file",
		File:   config.FileConfig{Path: path, MaxSize: 1},
	})
	require.NoError(t, err)

	out, ok := log.Out.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, path, out.Filename)
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewLogger_Both(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mita.log")
	log, err := NewLogger(&config.LoggingConfig{
		Level:  "info",
		Output: "both",
		File:   config.FileConfig{Path: path, MaxSize: 1},
	})
	require.NoError(t, err)
	assert.Implements(t, (*io.Writer)(nil), log.Out)
	_, isFile := log.Out.(*lumberjack.Logger)
	assert.False(t, isFile)
}

func TestNewLogger_BadConfig(t *testing.T) {
	_, err := NewLogger(&config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(&config.LoggingConfig{Level: "info", Output: "syslog"})
	assert.Error(t, err)
}

func TestNewLogger_ServiceField(t *testing.T) {
	log, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.WithField("topic", "greetings").Info("Answered from knowledge base")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mita-ai", entry[ServiceField])
	assert.Equal(t, "Answered from knowledge base", entry["message"])
	assert.Equal(t, "greetings", entry["topic"])
	assert.Contains(t, entry, "timestamp")
}

func TestWithRequest(t *testing.T) {
	entry := WithRequest(NewNopLogger(), "req-1", "/api/ai/chat")
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, "/api/ai/chat", entry.Data["path"])
}
