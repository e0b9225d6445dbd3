package scraper

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var defaultCorpus []byte

type corpusEntry struct {
	models.MentionDraft `yaml:",inline"`
	HoursAgo            float64 `yaml:"hoursAgo"`
}

type corpusFile struct {
	Mentions []corpusEntry `yaml:"mentions"`
}

// CorpusSource returns stored sample mentions whose content contains the query
type CorpusSource struct {
	entries []corpusEntry
	now     func() time.Time
}

// NewCorpusSource parses a YAML corpus; nil data selects the embedded default
func NewCorpusSource(data []byte, now func() time.Time) (*CorpusSource, error) {
	if data == nil {
		data = defaultCorpus
	}

	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mention corpus: %w", err)
	}
	return &CorpusSource{entries: file.Mentions, now: now}, nil
}

func (c *CorpusSource) GetName() string {
	return "corpus"
}

func (c *CorpusSource) IsEnabled() bool {
	return len(c.entries) > 0
}

func (c *CorpusSource) FetchMentions(ctx context.Context, query string) ([]models.MentionDraft, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	now := c.now()
	var drafts []models.MentionDraft
	for _, entry := range c.entries {
		if !strings.Contains(strings.ToLower(entry.Content), needle) {
			continue
		}
		draft := entry.MentionDraft
		draft.PublishedAt = now.Add(-time.Duration(entry.HoursAgo * float64(time.Hour))).UTC()
		drafts = append(drafts, draft)
	}
	return drafts, ctx.Err()
}
