package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
)

type mentionTemplate struct {
	source  string
	author  string
	url     string        // fmt pattern taking the escaped query
	content string        // fmt pattern taking the raw query
	window  time.Duration // publishedAt is drawn uniformly from [now-window, now]
}

var defaultTemplates = []mentionTemplate{
	{
		source:  "Google Reviews",
		author:  "Satisfied Customer",
		url:     "https://www.google.com/search?q=%s",
		content: "Excellent experience with %s! It exceeded all my expectations. Highly recommended!",
		window:  7 * 24 * time.Hour,
	},
	{
		source:  "Reclame Aqui",
		author:  "Reviewer",
		url:     "https://www.reclameaqui.com.br/busca/?q=%s",
		content: "%s has a good product, but the price could be more competitive. Overall it is worth it.",
		window:  5 * 24 * time.Hour,
	},
	{
		source:  "Trustpilot",
		author:  "Verified User",
		url:     "https://www.trustpilot.com/review/%s",
		content: "I had a problem with the customer service of %s, but support solved it quickly.",
		window:  3 * 24 * time.Hour,
	},
	{
		source:  "Specialist Blog",
		author:  "Industry Specialist",
		url:     "https://example-blog.com/review-%s",
		content: "Comparing %s with other options on the market, it is definitely a solid choice.",
		window:  2 * 24 * time.Hour,
	},
}

// TemplateSource produces a fixed set of review-style drafts embedding the query
type TemplateSource struct {
	templates []mentionTemplate
	random    func() float64 // uniform in [0, 1)
	now       func() time.Time
}

// NewTemplateSource creates a template source with the default review templates
func NewTemplateSource(random func() float64, now func() time.Time) *TemplateSource {
	return &TemplateSource{templates: defaultTemplates, random: random, now: now}
}

func (t *TemplateSource) GetName() string {
	return "templates"
}

func (t *TemplateSource) IsEnabled() bool {
	return len(t.templates) > 0
}

func (t *TemplateSource) FetchMentions(ctx context.Context, query string) ([]models.MentionDraft, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	now := t.now()
	escaped := url.QueryEscape(query)

	drafts := make([]models.MentionDraft, 0, len(t.templates))
	for _, tpl := range t.templates {
		if err := ctx.Err(); err != nil {
			return drafts, err
		}
		offset := time.Duration(t.random() * float64(tpl.window))
		drafts = append(drafts, models.MentionDraft{
			Content:     fmt.Sprintf(tpl.content, query),
			Source:      tpl.source,
			SourceURL:   fmt.Sprintf(tpl.url, escaped),
			Author:      tpl.author,
			PublishedAt: now.Add(-offset).UTC(),
		})
	}
	return drafts, nil
}
