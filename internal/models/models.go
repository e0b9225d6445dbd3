package models

import "time"

// Sentiment is the classification label of a mention
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the three known labels
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// DefaultTagColor is assigned to tags created without a color
const DefaultTagColor = "#3B82F6"

// Mention represents a mention of the monitored brand on some platform
type Mention struct {
	ID             int64      `json:"id"`
	Content        string     `json:"content"`
	Source         string     `json:"source"` // "Twitter", "Trustpilot", "Google Reviews", etc.
	SourceURL      *string    `json:"sourceUrl"`
	Author         *string    `json:"author"`
	PublishedAt    time.Time  `json:"publishedAt"`
	CollectedAt    time.Time  `json:"collectedAt"`
	Sentiment      *Sentiment `json:"sentiment"`
	SentimentScore *float64   `json:"sentimentScore"` // classifier confidence (0-1)
	Tags           []string   `json:"tags"`
	IsProcessed    bool       `json:"isProcessed"`
	IsStarred      bool       `json:"isStarred"`
}

// Clone returns a deep copy so callers never share pointers with a store
func (m *Mention) Clone() *Mention {
	if m == nil {
		return nil
	}
	c := *m
	c.SourceURL = cloneString(m.SourceURL)
	c.Author = cloneString(m.Author)
	if m.Sentiment != nil {
		s := *m.Sentiment
		c.Sentiment = &s
	}
	if m.SentimentScore != nil {
		f := *m.SentimentScore
		c.SentimentScore = &f
	}
	c.Tags = append([]string{}, m.Tags...)
	return &c
}

// MentionDraft is a mention produced by the synthesizer before it is stored
type MentionDraft struct {
	Content     string    `json:"content" yaml:"content"`
	Source      string    `json:"source" yaml:"source"`
	SourceURL   string    `json:"sourceUrl,omitempty" yaml:"sourceUrl"`
	Author      string    `json:"author,omitempty" yaml:"author"`
	PublishedAt time.Time `json:"publishedAt" yaml:"-"`
}

// ToMention converts a draft into an unsaved mention
func (d MentionDraft) ToMention() *Mention {
	m := &Mention{
		Content:     d.Content,
		Source:      d.Source,
		PublishedAt: d.PublishedAt,
		Tags:        []string{},
	}
	if d.SourceURL != "" {
		m.SourceURL = stringPtr(d.SourceURL)
	}
	if d.Author != "" {
		m.Author = stringPtr(d.Author)
	}
	return m
}

// Tag represents a label that can be attached to mentions by name
type Tag struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"createdAt"`
	UsageCount int       `json:"usageCount"`
}

// TagPatch holds the mutable tag fields; nil means unchanged
type TagPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// SearchQuery is a saved term collected by the synthesizer
type SearchQuery struct {
	ID           int64      `json:"id"`
	Query        string     `json:"query"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastExecuted *time.Time `json:"lastExecuted"`
}

// SearchQueryPatch holds the mutable search query fields; nil means unchanged
type SearchQueryPatch struct {
	Query    *string `json:"query"`
	IsActive *bool   `json:"isActive"`
}

// Report is an immutable point-in-time snapshot of sentiment counts
type Report struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	DateRange     string    `json:"dateRange"`
	Filters       string    `json:"filters"` // JSON of the applied filters
	GeneratedAt   time.Time `json:"generatedAt"`
	TotalMentions int       `json:"totalMentions"`
	PositiveCount int       `json:"positiveCount"`
	NeutralCount  int       `json:"neutralCount"`
	NegativeCount int       `json:"negativeCount"`
	Summary       string    `json:"summary,omitempty"` // narrative written at generation time
}

// Alert is an immediate notification about mentions stored by one collection run
type Alert struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"` // "negative-spike"
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Mentions  []*Mention `json:"mentions,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// DashboardMetrics is the payload of the dashboard summary cards
type DashboardMetrics struct {
	TotalMentions    int    `json:"totalMentions"`
	TotalGrowth      string `json:"totalGrowth"`
	Positive         int    `json:"positive"`
	PositiveGrowth   string `json:"positiveGrowth"`
	Negative         int    `json:"negative"`
	NegativeGrowth   string `json:"negativeGrowth"`
	Engagement       int    `json:"engagement"`
	EngagementGrowth string `json:"engagementGrowth"`
}

// SentimentTrendPoint holds the sentiment split of one calendar day
type SentimentTrendPoint struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Neutral  int    `json:"neutral"`
	Negative int    `json:"negative"`
}

// SourceVolume is the mention count of a single source
type SourceVolume struct {
	Source     string `json:"source"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// SentimentCounts is a raw tally of mentions per label
type SentimentCounts struct {
	Total    int
	Positive int
	Neutral  int
	Negative int
}

func stringPtr(s string) *string { return &s }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
