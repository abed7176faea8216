package knowledge

import (
	"strings"
	"unicode/utf8"

	"github.com/mita-ai-go/internal/models"
)

// KeywordMatcher picks the topic whose longest keyword occurs in a message
type KeywordMatcher struct {
	topics []models.Topic
}

// NewKeywordMatcher creates a matcher over the base's topics
func NewKeywordMatcher(base *Base) *KeywordMatcher {
	return &KeywordMatcher{topics: base.topics}
}

// Match scores every keyword found in the lowercased message by its length in
// characters. A later match replaces the best only with a strictly greater
// score, so on ties the earlier declared topic wins.
func (m *KeywordMatcher) Match(message string) (models.Topic, bool) {
	lower := strings.ToLower(message)

	var (
		best      models.Topic
		bestScore int
		found     bool
	)
	for _, topic := range m.topics {
		for _, keyword := range topic.Keywords {
			if !strings.Contains(lower, keyword) {
				continue
			}
			if score := utf8.RuneCountInString(keyword); score > bestScore {
				best, bestScore, found = topic, score, true
			}
		}
	}

	return best, found
}
