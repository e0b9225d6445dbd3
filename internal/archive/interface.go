package archive

import (
	"context"

	"github.com/azure/mentions-dashboard/internal/models"
)

// ArchiveInterface defines the contract for long-term report snapshot storage
type ArchiveInterface interface {
	// ArchiveReport stores the snapshot and returns the object name it was written to
	ArchiveReport(ctx context.Context, report *models.Report) (string, error)
}
