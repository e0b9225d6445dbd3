package scraper

import (
	"context"

	"github.com/azure/mentions-dashboard/internal/models"
)

// Source interface defines the contract for every mention generator
type Source interface {
	GetName() string
	FetchMentions(ctx context.Context, query string) ([]models.MentionDraft, error)
	IsEnabled() bool
}
