package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

type ServerConfig struct {
	Port             int           `mapstructure:"port"`
	CORSOrigins      []string      `mapstructure:"cors_origins"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	MaxMessageLength int           `mapstructure:"max_message_length"`
}

type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Temperature     float32       `mapstructure:"temperature"`
	TopP            float32       `mapstructure:"top_p"`
	TopK            float32       `mapstructure:"top_k"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
	SafetyThreshold string        `mapstructure:"safety_threshold"`
}

// Enabled reports whether a provider credential is configured
func (g GeminiConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type KnowledgeConfig struct {
	File string `mapstructure:"file"`
}

type StorageConfig struct {
	Type            string        `mapstructure:"type"`
	Redis           RedisConfig   `mapstructure:"redis"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	MaxHistory      int           `mapstructure:"max_history"`
	HistoryForAI    int           `mapstructure:"history_for_ai"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
}

// DefaultCORSOrigins are the browser origins allowed when nothing is configured
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:5175",
	"https://eliteheat-2ee0b.web.app",
	"https://eliteheat-2ee0b.firebaseapp.com",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origins", DefaultCORSOrigins)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_message_length", 5000)

	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.timeout", 10*time.Second)
	v.SetDefault("gemini.temperature", 0.8)
	v.SetDefault("gemini.top_p", 0.95)
	v.SetDefault("gemini.top_k", 50)
	v.SetDefault("gemini.max_output_tokens", 4000)
	v.SetDefault("gemini.safety_threshold", "BLOCK_ONLY_HIGH")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.key_prefix", "mita:")
	v.SetDefault("storage.session_ttl", time.Hour)
	v.SetDefault("storage.max_history", 20)
	v.SetDefault("storage.history_for_ai", 10)
	v.SetDefault("storage.cleanup_interval", 15*time.Minute)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 30*time.Minute)
	v.SetDefault("cache.max_size", 500)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file.path", "logs/mita.log")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)

	v.SetDefault("monitoring.metrics.enabled", false)
	v.SetDefault("monitoring.metrics.port", 9090)
	v.SetDefault("monitoring.metrics.path", "/metrics")

	v.SetDefault("i18n.default_language", "ru")
	v.SetDefault("i18n.languages", []string{"ru", "en"})
}

// LoadConfig loads configuration from an optional file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini.model", "AI_MODEL")
	v.BindEnv("server.port", "PYTHON_AI_PORT", "PORT")
	v.BindEnv("server.cors_origins", "CORS_ORIGINS")
	v.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	v.BindEnv("storage.redis.db", "REDIS_DB")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Handle Redis address special case
	if redisHost := v.GetString("REDIS_HOST"); redisHost != "" {
		redisPort := v.GetString("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}
		config.Storage.Redis.Addr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	config.Server.CORSOrigins = cleanList(config.Server.CORSOrigins)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.MaxMessageLength < 0 {
		return fmt.Errorf("max message length must not be negative")
	}
	if cfg.Gemini.Timeout <= 0 {
		return fmt.Errorf("gemini timeout must be positive")
	}
	switch cfg.Storage.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if cfg.Storage.MaxHistory < 2 {
		return fmt.Errorf("storage max_history must be at least 2")
	}
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("cache ttl must be positive")
		}
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.RequestsPerMinute <= 0 || cfg.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive requests_per_minute and burst")
	}
	if cfg.I18n.DefaultLanguage == "" {
		return fmt.Errorf("i18n default language is required")
	}
	return nil
}
