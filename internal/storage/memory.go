package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
)

// Option customises a storage backend
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for server-assigned timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MemoryStorage keeps every record in process memory
type MemoryStorage struct {
	mu sync.RWMutex

	now func() time.Time

	mentions map[int64]*models.Mention
	tags     map[int64]*models.Tag
	queries  map[int64]*models.SearchQuery
	reports  map[int64]*models.Report

	nextMentionID int64
	nextTagID     int64
	nextQueryID   int64
	nextReportID  int64
}

// Ensure MemoryStorage implements Storage
var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory backend
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	o := buildOptions(opts)
	return &MemoryStorage{
		now:      o.now,
		mentions: make(map[int64]*models.Mention),
		tags:     make(map[int64]*models.Tag),
		queries:  make(map[int64]*models.SearchQuery),
		reports:  make(map[int64]*models.Report),
	}
}

// Close is a no-op for the memory backend
func (s *MemoryStorage) Close() error { return nil }

func (s *MemoryStorage) CreateMention(_ context.Context, m *models.Mention) (*models.Mention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := m.Clone()
	s.nextMentionID++
	stored.ID = s.nextMentionID
	stored.CollectedAt = s.now().UTC()
	stored.Tags = models.NormalizeTags(stored.Tags)
	s.mentions[stored.ID] = stored

	return stored.Clone(), nil
}

func (s *MemoryStorage) GetMention(_ context.Context, id int64) (*models.Mention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mentions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *MemoryStorage) ListMentions(_ context.Context, filter models.MentionFilter) ([]*models.Mention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.Mention{}
	for _, m := range s.mentions {
		if filter.Matches(m) {
			result = append(result, m.Clone())
		}
	}

	models.SortMentions(result)
	return models.Paginate(result, filter.Limit, filter.Offset), nil
}

func (s *MemoryStorage) UpdateMention(_ context.Context, id int64, patch models.MentionPatch) (*models.Mention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mentions[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(m)
	return m.Clone(), nil
}

func (s *MemoryStorage) DeleteMention(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mentions[id]; !ok {
		return false, nil
	}
	delete(s.mentions, id)
	return true, nil
}

func (s *MemoryStorage) ListTags(_ context.Context) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]*models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		c := *t
		tags = append(tags, &c)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].UsageCount != tags[j].UsageCount {
			return tags[i].UsageCount > tags[j].UsageCount
		}
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}

func (s *MemoryStorage) GetTagByName(_ context.Context, name string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t := s.tagByName(name); t != nil {
		c := *t
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) tagByName(name string) *models.Tag {
	for _, t := range s.tags {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (s *MemoryStorage) CreateTag(_ context.Context, name, color string) (*models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tagByName(name) != nil {
		return nil, ErrTagExists
	}
	if color == "" {
		color = models.DefaultTagColor
	}

	s.nextTagID++
	t := &models.Tag{
		ID:        s.nextTagID,
		Name:      name,
		Color:     color,
		CreatedAt: s.now().UTC(),
	}
	s.tags[t.ID] = t

	c := *t
	return &c, nil
}

func (s *MemoryStorage) IncrementTagUsage(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t := s.tagByName(name); t != nil {
		t.UsageCount++
	}
	return nil
}

func (s *MemoryStorage) UpdateTag(_ context.Context, id int64, patch models.TagPatch) (*models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tags[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil && *patch.Name != t.Name {
		if s.tagByName(*patch.Name) != nil {
			return nil, ErrTagExists
		}
		t.Name = *patch.Name
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}

	c := *t
	return &c, nil
}

func (s *MemoryStorage) DeleteTag(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[id]; !ok {
		return false, nil
	}
	delete(s.tags, id)
	return true, nil
}

func (s *MemoryStorage) ListSearchQueries(_ context.Context) ([]*models.SearchQuery, error) {
	return s.listQueries(false), nil
}

func (s *MemoryStorage) ListActiveSearchQueries(_ context.Context) ([]*models.SearchQuery, error) {
	return s.listQueries(true), nil
}

func (s *MemoryStorage) listQueries(activeOnly bool) []*models.SearchQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queries := make([]*models.SearchQuery, 0, len(s.queries))
	for _, q := range s.queries {
		if activeOnly && !q.IsActive {
			continue
		}
		queries = append(queries, cloneQuery(q))
	}
	sort.Slice(queries, func(i, j int) bool {
		if !queries[i].CreatedAt.Equal(queries[j].CreatedAt) {
			return queries[i].CreatedAt.After(queries[j].CreatedAt)
		}
		return queries[i].ID > queries[j].ID
	})
	return queries
}

func cloneQuery(q *models.SearchQuery) *models.SearchQuery {
	c := *q
	if q.LastExecuted != nil {
		at := *q.LastExecuted
		c.LastExecuted = &at
	}
	return &c
}

func (s *MemoryStorage) CreateSearchQuery(_ context.Context, query string, isActive *bool) (*models.SearchQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQueryID++
	q := &models.SearchQuery{
		ID:        s.nextQueryID,
		Query:     query,
		IsActive:  isActive == nil || *isActive,
		CreatedAt: s.now().UTC(),
	}
	s.queries[q.ID] = q
	return cloneQuery(q), nil
}

func (s *MemoryStorage) UpdateSearchQuery(_ context.Context, id int64, patch models.SearchQueryPatch) (*models.SearchQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Query != nil {
		q.Query = *patch.Query
	}
	if patch.IsActive != nil {
		q.IsActive = *patch.IsActive
	}
	return cloneQuery(q), nil
}

func (s *MemoryStorage) MarkSearchQueryExecuted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queries[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	q.LastExecuted = &at
	return nil
}

func (s *MemoryStorage) DeleteSearchQuery(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queries[id]; !ok {
		return false, nil
	}
	delete(s.queries, id)
	return true, nil
}

func (s *MemoryStorage) CreateReport(_ context.Context, r *models.Report) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *r
	s.nextReportID++
	stored.ID = s.nextReportID
	stored.GeneratedAt = s.now().UTC()
	s.reports[stored.ID] = &stored

	c := stored
	return &c, nil
}

func (s *MemoryStorage) ListReports(_ context.Context) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]*models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		c := *r
		reports = append(reports, &c)
	}
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].GeneratedAt.Equal(reports[j].GeneratedAt) {
			return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
		}
		return reports[i].ID > reports[j].ID
	})
	return reports, nil
}

func (s *MemoryStorage) GetReport(_ context.Context, id int64) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *MemoryStorage) DeleteReport(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return false, nil
	}
	delete(s.reports, id)
	return true, nil
}
