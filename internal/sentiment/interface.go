package sentiment

import (
	"context"
	"fmt"

	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/models"
)

// Result is the outcome of classifying one text
type Result struct {
	Sentiment  models.Sentiment `json:"sentiment"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning,omitempty"`
}

// Classifier defines the contract for sentiment classification backends
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (*Result, error)
}

// TagSuggestion is a candidate tag for a text
type TagSuggestion struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// Suggester proposes at most three tags for a text, preferring existing tag
// names. Failures are logged and yield no suggestions.
type Suggester interface {
	SuggestTags(ctx context.Context, text string, existing []string) []TagSuggestion
}

// Summarizer writes the narrative of a report over a sample of its mentions
type Summarizer interface {
	Summarize(ctx context.Context, mentions []*models.Mention, dateRange string) (string, error)
}

// ClassificationError is returned for every failed classification, including timeouts
type ClassificationError struct {
	Classifier string
	Err        error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("sentiment classification failed (%s): %v", e.Classifier, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// New returns the OpenAI-compatible classifier when an API key is configured
// and the offline keyword classifier otherwise
func New(cfg *config.Config) Classifier {
	if cfg.OpenAIAPIKey == "" {
		return NewKeywordClassifier()
	}
	return NewOpenAIClassifier(cfg)
}

// NewSuggester picks the tag suggester the same way New picks the classifier
func NewSuggester(cfg *config.Config) Suggester {
	if cfg.OpenAIAPIKey == "" {
		return NewKeywordClassifier()
	}
	return NewOpenAIClassifier(cfg)
}

// NewSummarizer picks the report summarizer the same way New picks the classifier
func NewSummarizer(cfg *config.Config) Summarizer {
	if cfg.OpenAIAPIKey == "" {
		return NewKeywordClassifier()
	}
	return NewOpenAIClassifier(cfg)
}

// clampConfidence bounds c into [0, 1]
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
