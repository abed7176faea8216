package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")
)

var (
	scriptTagPattern = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	jsSchemePattern  = regexp.MustCompile(`(?i)javascript:`)
)

// Security validates user input and cleans text bound for the AI provider
type Security struct {
	maxLength int
}

// NewSecurity creates the input guard; maxLength 0 disables the length check
func NewSecurity(maxLength int) *Security {
	return &Security{maxLength: maxLength}
}

// ValidateInput checks a trimmed chat message
func (s *Security) ValidateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if s.maxLength > 0 && utf8.RuneCountInString(text) > s.maxLength {
		return ErrMessageTooLong
	}
	return nil
}

// SanitizeForAI neutralizes script blocks and javascript: links
func SanitizeForAI(text string) string {
	text = scriptTagPattern.ReplaceAllString(text, "[CODE_BLOCKED]")
	return jsSchemePattern.ReplaceAllString(text, "javascript-blocked:")
}
