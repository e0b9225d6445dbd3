package models

import (
	"sort"
	"time"
)

// MentionFilter selects mentions; every set field must match (AND).
// Tags matches when the mention carries at least one of the names.
type MentionFilter struct {
	Sentiment *Sentiment `json:"sentiment,omitempty"`
	Source    string     `json:"source,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

// Matches reports whether m satisfies every criterion except pagination
func (f MentionFilter) Matches(m *Mention) bool {
	if f.Sentiment != nil && (m.Sentiment == nil || *m.Sentiment != *f.Sentiment) {
		return false
	}
	if f.Source != "" && m.Source != f.Source {
		return false
	}
	if f.StartDate != nil && m.PublishedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && m.PublishedAt.After(*f.EndDate) {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(m.Tags, f.Tags) {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// SortMentions orders mentions most recently collected first, newest id on ties
func SortMentions(mentions []*Mention) {
	sort.SliceStable(mentions, func(i, j int) bool {
		if !mentions[i].CollectedAt.Equal(mentions[j].CollectedAt) {
			return mentions[i].CollectedAt.After(mentions[j].CollectedAt)
		}
		return mentions[i].ID > mentions[j].ID
	})
}

// Paginate applies offset and limit; a zero limit means no limit
func Paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
