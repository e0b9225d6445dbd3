package sentiment

import (
	"context"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/metrics"
	"github.com/azure/mentions-dashboard/internal/models"
)

var (
	positiveWords = []string{"good", "great", "excellent", "love", "awesome", "fantastic", "helpful",
		"works", "solved", "success", "recommend", "exceeded", "satisfied", "solid", "quality"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "broken", "error", "fail", "problem",
		"issue", "bug", "late", "longer than promised", "expensive", "disappoint", "worst"}
)

// KeywordClassifier is an offline word-count classifier used when no model is configured
type KeywordClassifier struct{}

// Ensure KeywordClassifier implements Classifier
var _ Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier creates a keyword classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (k *KeywordClassifier) Name() string {
	return "keyword"
}

// Classify compares positive and negative word hits. Confidence starts at 0.5
// and grows by 0.15 per hit of margin, capped at 0.95.
func (k *KeywordClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		metrics.ObserveClassification(start, err)
		return nil, &ClassificationError{Classifier: k.Name(), Err: err}
	}

	content := strings.ToLower(text)
	positiveCount := countHits(content, positiveWords)
	negativeCount := countHits(content, negativeWords)

	result := &Result{Sentiment: models.SentimentNeutral, Confidence: defaultConfidence}
	margin := positiveCount - negativeCount
	if margin > 0 {
		result.Sentiment = models.SentimentPositive
	} else if margin < 0 {
		result.Sentiment = models.SentimentNegative
		margin = -margin
	}
	if margin > 0 {
		result.Confidence = clampConfidence(min(0.95, defaultConfidence+0.15*float64(margin)))
	}

	metrics.ObserveClassification(start, nil)
	return result, nil
}

func countHits(content string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(content, word) {
			count++
		}
	}
	return count
}
