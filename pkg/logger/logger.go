package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mita-ai-go/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ServiceField is attached to every entry so mixed log streams stay attributable
const ServiceField = "service"

// NewLogger builds the service logger from the logging section of the config
func NewLogger(cfg *config.LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out, err := newOutput(cfg)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(newFormatter(cfg.Format))
	logger.SetOutput(out)
	logger.AddHook(&serviceHook{name: "mita-ai"})

	return logger, nil
}

func newFormatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		}
	}
	return &logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	}
}

// newOutput resolves stdout, stderr, a rotated file, or both stdout and the file
func newOutput(cfg *config.LoggingConfig) (io.Writer, error) {
	switch cfg.Output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "file", "both":
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize, // megabytes
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge, // days
			Compress:   true,
		}
		if cfg.Output == "both" {
			return io.MultiWriter(os.Stdout, file), nil
		}
		return file, nil
	default:
		return nil, fmt.Errorf("unsupported log output %q", cfg.Output)
	}
}

type serviceHook struct {
	name string
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data[ServiceField]; !ok {
		entry.Data[ServiceField] = h.name
	}
	return nil
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// WithRequest adds common request fields to logger
func WithRequest(logger *logrus.Logger, requestID, path string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"path":       path,
	})
}
