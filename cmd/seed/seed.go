package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/storage"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Tags          []seedTag     `yaml:"tags"`
	SearchQueries []seedQuery   `yaml:"searchQueries"`
	Mentions      []seedMention `yaml:"mentions"`
}

type seedTag struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type seedQuery struct {
	Query    string `yaml:"query"`
	IsActive *bool  `yaml:"isActive"`
}

type seedMention struct {
	Content        string            `yaml:"content"`
	Source         string            `yaml:"source"`
	SourceURL      string            `yaml:"sourceUrl"`
	Author         string            `yaml:"author"`
	HoursAgo       float64           `yaml:"hoursAgo"`
	Sentiment      *models.Sentiment `yaml:"sentiment"`
	SentimentScore *float64          `yaml:"sentimentScore"`
	Tags           []string          `yaml:"tags"`
	IsStarred      bool              `yaml:"isStarred"`
}

// mentionCreator stores a mention with validation and tag accounting
type mentionCreator interface {
	CreateMention(ctx context.Context, m *models.Mention) (*models.Mention, error)
}

// seedSummary counts what a seed run inserted
type seedSummary struct {
	Tags     int
	Queries  int
	Mentions int
	Skipped  int
}

func parseSeed(data []byte) (*seedFile, error) {
	if data == nil {
		data = defaultSeed
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

func (m seedMention) toMention(now time.Time) *models.Mention {
	mention := models.MentionDraft{
		Content:     m.Content,
		Source:      m.Source,
		SourceURL:   m.SourceURL,
		Author:      m.Author,
		PublishedAt: now.Add(-time.Duration(m.HoursAgo * float64(time.Hour))),
	}.ToMention()

	mention.Sentiment = m.Sentiment
	mention.SentimentScore = m.SentimentScore
	mention.IsProcessed = m.Sentiment != nil
	mention.IsStarred = m.IsStarred
	mention.Tags = m.Tags
	return mention
}

// applySeed inserts tags first so mention tag usage is counted. Existing tags
// are skipped; any other failure stops the run.
func applySeed(ctx context.Context, store storage.Storage, creator mentionCreator, seed *seedFile, now time.Time) (seedSummary, error) {
	var summary seedSummary

	for _, t := range seed.Tags {
		if _, err := store.CreateTag(ctx, t.Name, t.Color); err != nil {
			if errors.Is(err, storage.ErrTagExists) {
				summary.Skipped++
				continue
			}
			return summary, fmt.Errorf("failed to create tag %q: %w", t.Name, err)
		}
		summary.Tags++
	}

	for _, q := range seed.SearchQueries {
		if _, err := store.CreateSearchQuery(ctx, q.Query, q.IsActive); err != nil {
			return summary, fmt.Errorf("failed to create search query %q: %w", q.Query, err)
		}
		summary.Queries++
	}

	for i, m := range seed.Mentions {
		if _, err := creator.CreateMention(ctx, m.toMention(now)); err != nil {
			return summary, fmt.Errorf("failed to create mention #%d: %w", i+1, err)
		}
		summary.Mentions++
	}

	return summary, nil
}
