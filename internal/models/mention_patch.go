package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// MentionPatch holds the fields of a partial mention update; nil means
// unchanged. An explicit JSON null clears the nullable fields sourceUrl,
// author, sentiment and sentimentScore; null elsewhere leaves the field as is.
type MentionPatch struct {
	Content        *string    `json:"content"`
	Source         *string    `json:"source"`
	SourceURL      *string    `json:"sourceUrl"`
	Author         *string    `json:"author"`
	PublishedAt    *time.Time `json:"publishedAt"`
	Sentiment      *Sentiment `json:"sentiment"`
	SentimentScore *float64   `json:"sentimentScore"`
	Tags           *[]string  `json:"tags"`
	IsProcessed    *bool      `json:"isProcessed"`
	IsStarred      *bool      `json:"isStarred"`

	ClearSourceURL      bool `json:"-"`
	ClearAuthor         bool `json:"-"`
	ClearSentiment      bool `json:"-"`
	ClearSentimentScore bool `json:"-"`
}

// UnmarshalJSON decodes the patch, rejecting unknown fields and recording
// which nullable fields were sent as null
func (p *MentionPatch) UnmarshalJSON(data []byte) error {
	type plain MentionPatch
	var decoded plain
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&decoded); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	isNull := func(key string) bool {
		raw, ok := fields[key]
		return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
	}

	*p = MentionPatch(decoded)
	p.ClearSourceURL = isNull("sourceUrl")
	p.ClearAuthor = isNull("author")
	p.ClearSentiment = isNull("sentiment")
	p.ClearSentimentScore = isNull("sentimentScore")
	return nil
}

// IsEmpty reports whether applying the patch would change nothing
func (p MentionPatch) IsEmpty() bool {
	return p.Content == nil && p.Source == nil && p.SourceURL == nil && p.Author == nil &&
		p.PublishedAt == nil && p.Sentiment == nil && p.SentimentScore == nil &&
		p.Tags == nil && p.IsProcessed == nil && p.IsStarred == nil &&
		!p.ClearSourceURL && !p.ClearAuthor && !p.ClearSentiment && !p.ClearSentimentScore
}

// Apply merges the patch into m
func (p MentionPatch) Apply(m *Mention) {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
	if p.SourceURL != nil {
		m.SourceURL = cloneString(p.SourceURL)
	} else if p.ClearSourceURL {
		m.SourceURL = nil
	}
	if p.Author != nil {
		m.Author = cloneString(p.Author)
	} else if p.ClearAuthor {
		m.Author = nil
	}
	if p.PublishedAt != nil {
		m.PublishedAt = *p.PublishedAt
	}
	if p.Sentiment != nil {
		s := *p.Sentiment
		m.Sentiment = &s
	} else if p.ClearSentiment {
		m.Sentiment = nil
	}
	if p.SentimentScore != nil {
		f := *p.SentimentScore
		m.SentimentScore = &f
	} else if p.ClearSentimentScore {
		m.SentimentScore = nil
	}
	if p.Tags != nil {
		m.Tags = NormalizeTags(*p.Tags)
	}
	if p.IsProcessed != nil {
		m.IsProcessed = *p.IsProcessed
	}
	if p.IsStarred != nil {
		m.IsStarred = *p.IsStarred
	}
}

// NormalizeTags trims names and drops blanks and duplicates, keeping order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// AddedTags returns the names in next that are not present in prev
func AddedTags(prev, next []string) []string {
	have := make(map[string]struct{}, len(prev))
	for _, t := range prev {
		have[t] = struct{}{}
	}
	var added []string
	for _, t := range next {
		if _, ok := have[t]; !ok {
			added = append(added, t)
		}
	}
	return added
}
