package knowledge

import (
	"regexp"
	"strings"
)

// PatternRule maps a regular expression to a canned response
type PatternRule struct {
	Pattern  *regexp.Regexp
	Topic    string
	Response string
}

// PatternMatcher evaluates rules in declaration order; the first hit wins
type PatternMatcher struct {
	rules []PatternRule
}

// NewPatternMatcher creates a matcher over the base's pattern rules
func NewPatternMatcher(base *Base) *PatternMatcher {
	return &PatternMatcher{rules: base.patterns}
}

// Match returns the first rule whose expression matches the lowercased message
func (m *PatternMatcher) Match(message string) (PatternRule, bool) {
	lower := strings.ToLower(message)
	for _, rule := range m.rules {
		if rule.Pattern.MatchString(lower) {
			return rule, true
		}
	}
	return PatternRule{}, false
}

// Len returns the number of rules
func (m *PatternMatcher) Len() int {
	return len(m.rules)
}
