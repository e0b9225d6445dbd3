package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/sirupsen/logrus"
)

// maxSuggestions caps the tags proposed for one text
const maxSuggestions = 3

// maxSummaryMentions caps the mentions sent to the model for a report narrative
const maxSummaryMentions = 50

const suggestPrompt = `You are a content classification expert for brand monitoring.
Suggest up to 3 relevant tags to categorize the given text.

Existing tags: %s

Answer in JSON with a "tags" array of objects containing:
- tag: the tag name (prefer existing tags when appropriate)
- confidence: a number between 0 and 1

Focus on aspects such as product, service, customer care, delivery,
support, quality and price.`

const summaryPrompt = `You are a brand monitoring data analyst.
Write an executive report based on the mentions provided. Include:
- an executive summary
- the main sentiment insights
- identified trends
- recommended actions

Be objective and professional.`

// Ensure both classifiers implement Suggester and Summarizer
var (
	_ Suggester  = (*OpenAIClassifier)(nil)
	_ Summarizer = (*OpenAIClassifier)(nil)
	_ Suggester  = (*KeywordClassifier)(nil)
	_ Summarizer = (*KeywordClassifier)(nil)
)

type suggestionAnswer struct {
	Tags []struct {
		Tag        string   `json:"tag"`
		Confidence *float64 `json:"confidence"`
	} `json:"tags"`
}

// SuggestTags asks the model for tags. Any failure returns no suggestions.
func (c *OpenAIClassifier) SuggestTags(ctx context.Context, text string, existing []string) []TagSuggestion {
	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: fmt.Sprintf(suggestPrompt, strings.Join(existing, ", "))},
		{Role: "user", Content: fmt.Sprintf("Suggest tags for this text: %q", text)},
	}, true)
	if err != nil {
		logrus.Warnf("Tag suggestion failed: %v", err)
		return []TagSuggestion{}
	}

	suggestions, err := parseSuggestions(content)
	if err != nil {
		logrus.Warnf("Tag suggestion failed: %v", err)
		return []TagSuggestion{}
	}
	return suggestions
}

// parseSuggestions drops blank names and repeats, defaults a missing
// confidence to 0.5 and keeps the first three
func parseSuggestions(content string) ([]TagSuggestion, error) {
	if strings.TrimSpace(content) == "" {
		content = "{}"
	}

	var raw suggestionAnswer
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion answer: %w", err)
	}

	suggestions := []TagSuggestion{}
	seen := make(map[string]struct{})
	for _, t := range raw.Tags {
		name := strings.TrimSpace(t.Tag)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		confidence := defaultConfidence
		if t.Confidence != nil {
			confidence = *t.Confidence
		}
		suggestions = append(suggestions, TagSuggestion{Tag: name, Confidence: clampConfidence(confidence)})
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions, nil
}

type summaryMention struct {
	Content     string            `json:"content"`
	Source      string            `json:"source"`
	Sentiment   *models.Sentiment `json:"sentiment,omitempty"`
	PublishedAt string            `json:"publishedAt"`
	Tags        []string          `json:"tags,omitempty"`
}

// Summarize asks the model for a narrative over the first 50 mentions
func (c *OpenAIClassifier) Summarize(ctx context.Context, mentions []*models.Mention, dateRange string) (string, error) {
	if len(mentions) > maxSummaryMentions {
		mentions = mentions[:maxSummaryMentions]
	}
	sample := make([]summaryMention, 0, len(mentions))
	for _, m := range mentions {
		sample = append(sample, summaryMention{
			Content:     m.Content,
			Source:      m.Source,
			Sentiment:   m.Sentiment,
			PublishedAt: m.PublishedAt.UTC().Format("2006-01-02"),
			Tags:        m.Tags,
		})
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		return "", fmt.Errorf("failed to encode mentions: %w", err)
	}

	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: summaryPrompt},
		{Role: "user", Content: fmt.Sprintf("Write a report for the period %s based on these mentions:\n%s", dateRange, payload)},
	}, false)
	if err != nil {
		return "", fmt.Errorf("failed to summarize report: %w", err)
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		return "", fmt.Errorf("failed to summarize report: empty answer")
	}
	return summary, nil
}

// topicWords maps a topic tag onto the words that reveal it
var topicWords = []struct {
	topic string
	words []string
}{
	{"product", []string{"product", "item"}},
	{"service", []string{"service", "customer care", "attendant"}},
	{"delivery", []string{"delivery", "shipping", "arrived", "late"}},
	{"support", []string{"support", "help desk", "ticket"}},
	{"quality", []string{"quality", "broken", "defect", "durable"}},
	{"price", []string{"price", "expensive", "cheap", "cost"}},
}

// SuggestTags proposes existing tags named in the text (confidence 0.9), then
// topics whose words appear in it (0.8 when a tag of that name exists, else 0.6)
func (k *KeywordClassifier) SuggestTags(ctx context.Context, text string, existing []string) []TagSuggestion {
	suggestions := []TagSuggestion{}
	if ctx.Err() != nil {
		return suggestions
	}

	content := strings.ToLower(text)
	byKey := make(map[string]string, len(existing))
	seen := make(map[string]struct{})
	add := func(name string, confidence float64) {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok || len(suggestions) == maxSuggestions {
			return
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, TagSuggestion{Tag: name, Confidence: confidence})
	}

	for _, name := range existing {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		byKey[strings.ToLower(name)] = name
		if strings.Contains(content, strings.ToLower(name)) {
			add(name, 0.9)
		}
	}

	for _, t := range topicWords {
		if countHits(content, t.words) == 0 {
			continue
		}
		if name, ok := byKey[t.topic]; ok {
			add(name, 0.8)
		} else {
			add(t.topic, 0.6)
		}
	}
	return suggestions
}

// Summarize writes a fixed-form narrative from the sentiment counts and the
// busiest source
func (k *KeywordClassifier) Summarize(ctx context.Context, mentions []*models.Mention, dateRange string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("failed to summarize report: %w", err)
	}
	if len(mentions) == 0 {
		return fmt.Sprintf("No mentions were found for %s.", dateRange), nil
	}

	counts := map[models.Sentiment]int{}
	sources := map[string]int{}
	for _, m := range mentions {
		if m.Sentiment != nil {
			counts[*m.Sentiment]++
		}
		sources[m.Source]++
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if sources[names[i]] != sources[names[j]] {
			return sources[names[i]] > sources[names[j]]
		}
		return names[i] < names[j]
	})

	overall := "mixed"
	switch {
	case counts[models.SentimentPositive] > counts[models.SentimentNegative]:
		overall = "mostly positive"
	case counts[models.SentimentNegative] > counts[models.SentimentPositive]:
		overall = "mostly negative"
	}

	return fmt.Sprintf("%d mentions for %s: %d positive, %d neutral, %d negative. Overall sentiment is %s. Most mentions came from %s (%d).",
		len(mentions), dateRange,
		counts[models.SentimentPositive], counts[models.SentimentNeutral], counts[models.SentimentNegative],
		overall, names[0], sources[names[0]]), nil
}
