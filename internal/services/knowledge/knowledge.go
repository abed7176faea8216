package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mita-ai-go/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/knowledge.yaml
var builtin []byte

// PatternSpec declares one regular expression and the topic whose response it yields
type PatternSpec struct {
	Pattern string `yaml:"pattern"`
	Topic   string `yaml:"topic"`
}

// Document is the on-disk layout of a knowledge file
type Document struct {
	Topics   []models.Topic `yaml:"topics"`
	Patterns []PatternSpec  `yaml:"patterns"`
}

// Base is the immutable set of topics and pattern rules.
// It is built once at startup and only read afterwards.
type Base struct {
	topics   []models.Topic
	byName   map[string]int
	patterns []PatternRule
}

// New validates the document and builds a Base from it
func New(doc Document) (*Base, error) {
	if len(doc.Topics) == 0 {
		return nil, fmt.Errorf("knowledge base has no topics")
	}

	base := &Base{
		topics: make([]models.Topic, 0, len(doc.Topics)),
		byName: make(map[string]int, len(doc.Topics)),
	}

	for i, topic := range doc.Topics {
		name := strings.TrimSpace(topic.Name)
		if name == "" {
			return nil, fmt.Errorf("topic %d has no name", i)
		}
		if _, exists := base.byName[name]; exists {
			return nil, fmt.Errorf("duplicate topic %q", name)
		}
		if topic.Response == "" {
			return nil, fmt.Errorf("topic %q has no response", name)
		}

		keywords := make([]string, 0, len(topic.Keywords))
		for _, kw := range topic.Keywords {
			if kw == "" {
				return nil, fmt.Errorf("topic %q has an empty keyword", name)
			}
			keywords = append(keywords, strings.ToLower(kw))
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("topic %q has no keywords", name)
		}

		base.byName[name] = len(base.topics)
		base.topics = append(base.topics, models.Topic{
			Name:     name,
			Keywords: keywords,
			Response: topic.Response,
		})
	}

	for i, spec := range doc.Patterns {
		idx, ok := base.byName[spec.Topic]
		if !ok {
			return nil, fmt.Errorf("pattern %d references unknown topic %q", i, spec.Topic)
		}
		re, err := compilePattern(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		base.patterns = append(base.patterns, PatternRule{
			Pattern:  re,
			Topic:    spec.Topic,
			Response: base.topics[idx].Response,
		})
	}

	return base, nil
}

// Parse decodes a YAML knowledge document
func Parse(data []byte) (*Base, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge document: %w", err)
	}
	return New(doc)
}

// Default returns the built-in knowledge base
func Default() (*Base, error) {
	return Parse(builtin)
}

// LoadFile reads a knowledge document from disk
func LoadFile(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	return Parse(data)
}

// Load returns the base from path, or the built-in one when path is empty
func Load(path string) (*Base, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Topics returns the topics in declaration order
func (b *Base) Topics() []models.Topic {
	out := make([]models.Topic, len(b.topics))
	copy(out, b.topics)
	return out
}

// Topic looks a topic up by name
func (b *Base) Topic(name string) (models.Topic, bool) {
	idx, ok := b.byName[name]
	if !ok {
		return models.Topic{}, false
	}
	return b.topics[idx], true
}

// Size returns the number of topics
func (b *Base) Size() int {
	return len(b.topics)
}

// Patterns returns the pattern rules in evaluation order
func (b *Base) Patterns() []PatternRule {
	out := make([]PatternRule, len(b.patterns))
	copy(out, b.patterns)
	return out
}

// unicodeSpace covers every Unicode whitespace character.
// RE2 limits \s to ASCII, so rules written with \s would miss NBSP.
const unicodeSpace = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

// compilePattern compiles expr with \s and \S widened to Unicode whitespace
func compilePattern(expr string) (*regexp.Regexp, error) {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == '\\' && i+1 < len(expr) {
			next := expr[i+1]
			i++
			switch {
			case next == 's' && inClass:
				b.WriteString(unicodeSpace)
			case next == 's':
				b.WriteString("[" + unicodeSpace + "]")
			case next == 'S' && !inClass:
				b.WriteString("[^" + unicodeSpace + "]")
			default:
				b.WriteByte(c)
				b.WriteByte(next)
			}
			continue
		}
		switch {
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			// A leading ] or ^] is literal
			if i+1 < len(expr) && expr[i+1] == '^' {
				i++
				b.WriteByte('^')
			}
			if i+1 < len(expr) && expr[i+1] == ']' {
				i++
				b.WriteByte(']')
			}
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return regexp.Compile(b.String())
}
