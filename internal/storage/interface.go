package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
)

var (
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("not found")
	// ErrTagExists is returned when creating or renaming a tag to a taken name
	ErrTagExists = errors.New("tag name already exists")
)

// StorageError wraps a failure of the backing store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func wrapErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTagExists) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// MentionStore defines the contract for mention persistence
type MentionStore interface {
	CreateMention(ctx context.Context, m *models.Mention) (*models.Mention, error)
	GetMention(ctx context.Context, id int64) (*models.Mention, error)
	ListMentions(ctx context.Context, filter models.MentionFilter) ([]*models.Mention, error)
	UpdateMention(ctx context.Context, id int64, patch models.MentionPatch) (*models.Mention, error)
	DeleteMention(ctx context.Context, id int64) (bool, error)
}

// TagStore defines the contract for tag persistence
type TagStore interface {
	ListTags(ctx context.Context) ([]*models.Tag, error)
	GetTagByName(ctx context.Context, name string) (*models.Tag, error)
	CreateTag(ctx context.Context, name, color string) (*models.Tag, error)
	IncrementTagUsage(ctx context.Context, name string) error
	UpdateTag(ctx context.Context, id int64, patch models.TagPatch) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int64) (bool, error)
}

// SearchQueryStore defines the contract for saved search terms
type SearchQueryStore interface {
	ListSearchQueries(ctx context.Context) ([]*models.SearchQuery, error)
	ListActiveSearchQueries(ctx context.Context) ([]*models.SearchQuery, error)
	CreateSearchQuery(ctx context.Context, query string, isActive *bool) (*models.SearchQuery, error)
	UpdateSearchQuery(ctx context.Context, id int64, patch models.SearchQueryPatch) (*models.SearchQuery, error)
	MarkSearchQueryExecuted(ctx context.Context, id int64, at time.Time) error
	DeleteSearchQuery(ctx context.Context, id int64) (bool, error)
}

// ReportStore defines the contract for report snapshots
type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) (*models.Report, error)
	ListReports(ctx context.Context) ([]*models.Report, error)
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	DeleteReport(ctx context.Context, id int64) (bool, error)
}

// Storage is implemented by every backend
type Storage interface {
	MentionStore
	TagStore
	SearchQueryStore
	ReportStore
	Close() error
}

// Open returns the backend selected by driver ("memory", "sqlite", "postgres")
func Open(driver, dsn string) (Storage, error) {
	switch driver {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "postgres":
		return OpenSQL(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
