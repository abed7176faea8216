package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/mita-ai-go/internal/config"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

// Localizer manages internationalization
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	languages       []string
	localizers      map[string]*i18n.Localizer
	matcher         language.Matcher
}

// NewLocalizer creates a new localizer
func NewLocalizer(cfg *config.I18nConfig) (*Localizer, error) {
	defaultTag, err := language.Parse(cfg.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", cfg.DefaultLanguage, err)
	}

	bundle := i18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	// The default language goes first so the matcher falls back to it
	languages := []string{cfg.DefaultLanguage}
	for _, lang := range cfg.Languages {
		if lang != cfg.DefaultLanguage {
			languages = append(languages, lang)
		}
	}

	tags := make([]language.Tag, 0, len(languages))
	localizers := make(map[string]*i18n.Localizer, len(languages))
	for _, lang := range languages {
		if _, err := bundle.LoadMessageFileFS(locales, fmt.Sprintf("locales/%s.json", lang)); err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", lang, err)
		}
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", lang, err)
		}
		tags = append(tags, tag)
		localizers[lang] = i18n.NewLocalizer(bundle, lang)
	}

	return &Localizer{
		bundle:          bundle,
		defaultLanguage: cfg.DefaultLanguage,
		languages:       languages,
		localizers:      localizers,
		matcher:         language.NewMatcher(tags),
	}, nil
}

// Get returns localized message
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	localizer, exists := l.localizers[lang]
	if !exists {
		localizer = l.localizers[l.defaultLanguage]
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID // Fallback to message ID
	}

	return msg
}

// Resolve picks the supported language that best fits an Accept-Language header
func (l *Localizer) Resolve(acceptLanguage string) string {
	if acceptLanguage == "" {
		return l.defaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.defaultLanguage
	}

	_, idx, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return l.defaultLanguage
	}
	return l.languages[idx]
}

// DefaultLanguage returns the configured default language
func (l *Localizer) DefaultLanguage() string {
	return l.defaultLanguage
}

// Message IDs
const (
	MsgEmptyMessage      = "empty_message"
	MsgMessageTooLong    = "message_too_long"
	MsgInvalidRequest    = "invalid_request"
	MsgRateLimitExceeded = "rate_limit_exceeded"
	MsgInternalError     = "internal_error"
	MsgSessionRequired   = "session_required"
	MsgFallback          = "fallback"
)
