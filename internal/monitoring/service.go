package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/azure/mentions-dashboard/internal/analytics"
	"github.com/azure/mentions-dashboard/internal/archive"
	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/metrics"
	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/notifications"
	"github.com/azure/mentions-dashboard/internal/sentiment"
	"github.com/azure/mentions-dashboard/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Synthesizer produces mention drafts for a query
type Synthesizer interface {
	Synthesize(ctx context.Context, query string) []models.MentionDraft
}

// Service orchestrates collection, classification and reporting of mentions
type Service struct {
	config              *config.Config
	storage             storage.Storage
	synthesizer         Synthesizer
	classifier          sentiment.Classifier
	suggester           sentiment.Suggester
	summarizer          sentiment.Summarizer
	aggregator          *analytics.Aggregator
	notificationService notifications.NotificationInterface
	archive             archive.ArchiveInterface
	now                 func() time.Time

	// collectMu serialises collection runs within this process
	collectMu sync.Mutex

	stats *RunStats
	mu    sync.RWMutex
}

// RunStats holds figures of the latest collection run
type RunStats struct {
	LastRun              time.Time      `json:"lastRun"`
	LastRunDuration      string         `json:"lastRunDuration"`
	Queries              []string       `json:"queries"`
	Collected            int            `json:"collected"`
	Duplicates           int            `json:"duplicates"`
	ClassificationErrors int            `json:"classificationErrors"`
	SourceMetrics        map[string]int `json:"sourceMetrics"`
	SentimentBreakdown   map[string]int `json:"sentimentBreakdown"`
}

// CollectResult is returned by Collect
type CollectResult struct {
	Collected  int               `json:"collected"`
	Duplicates int               `json:"duplicates"`
	Queries    []string          `json:"queries"`
	Mentions   []*models.Mention `json:"mentions"`
}

// Batch analysis outcomes
const (
	OutcomeAnalyzed = "analyzed"
	OutcomeSkipped  = "skipped"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// AnalyzeOutcome reports what happened to one id of a batch analysis
type AnalyzeOutcome struct {
	ID      int64           `json:"id"`
	Status  string          `json:"status"`
	Mention *models.Mention `json:"mention,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReportRequest describes a report to generate
type ReportRequest struct {
	Title          string
	DateRange      string
	Filters        models.MentionFilter
	IncludeSummary bool
}

// NewService creates a new monitoring service. archive may be nil.
func NewService(cfg *config.Config, store storage.Storage, synthesizer Synthesizer, classifier sentiment.Classifier,
	notificationService notifications.NotificationInterface, reportArchive archive.ArchiveInterface) *Service {
	return &Service{
		config:              cfg,
		storage:             store,
		synthesizer:         synthesizer,
		classifier:          classifier,
		suggester:           sentiment.NewKeywordClassifier(),
		summarizer:          sentiment.NewKeywordClassifier(),
		aggregator:          analytics.NewAggregator(store, cfg.Location()),
		notificationService: notificationService,
		archive:             reportArchive,
		now:                 time.Now,
		stats: &RunStats{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
	}
}

// WithSuggester replaces the offline tag suggester
func (s *Service) WithSuggester(suggester sentiment.Suggester) *Service {
	s.suggester = suggester
	return s
}

// WithSummarizer replaces the offline report summarizer
func (s *Service) WithSummarizer(summarizer sentiment.Summarizer) *Service {
	s.summarizer = summarizer
	return s
}

// Aggregator returns the metrics aggregator over the service's store
func (s *Service) Aggregator() *analytics.Aggregator {
	return s.aggregator
}

// CreateMention validates and stores a mention, counting usage of its tags
func (s *Service) CreateMention(ctx context.Context, m *models.Mention) (*models.Mention, error) {
	m = m.Clone()
	m.Content = models.SanitizeText(m.Content)
	m.Source = models.SanitizeText(m.Source)
	m.Author = models.SanitizeOptional(m.Author)
	m.Tags = models.NormalizeTags(m.Tags)

	if err := m.Validate(); err != nil {
		return nil, err
	}

	created, err := s.storage.CreateMention(ctx, m)
	if err != nil {
		return nil, err
	}
	s.incrementTags(ctx, created.Tags)
	return created, nil
}

// UpdateMention merges patch into the stored mention. The merged record must
// stay valid; tags attached by the patch have their usage incremented.
func (s *Service) UpdateMention(ctx context.Context, id int64, patch models.MentionPatch) (*models.Mention, error) {
	current, err := s.storage.GetMention(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	if patch.Content != nil {
		clean := models.SanitizeText(*patch.Content)
		patch.Content = &clean
	}
	if patch.Source != nil {
		clean := models.SanitizeText(*patch.Source)
		patch.Source = &clean
	}
	if patch.Author != nil {
		clean := models.SanitizeText(*patch.Author)
		patch.Author = &clean
	}

	merged := current.Clone()
	patch.Apply(merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.storage.UpdateMention(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.incrementTags(ctx, models.AddedTags(current.Tags, updated.Tags))
	return updated, nil
}

func (s *Service) incrementTags(ctx context.Context, tags []string) {
	for _, name := range tags {
		if err := s.storage.IncrementTagUsage(ctx, name); err != nil {
			logrus.Warnf("Failed to increment usage of tag %s: %v", name, err)
		}
	}
}

// Preview synthesizes mentions for query without persisting them
func (s *Service) Preview(ctx context.Context, query string) ([]models.MentionDraft, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("query", "is required")
	}
	return s.synthesizer.Synthesize(ctx, query), nil
}

// Collect synthesizes mentions for the given queries, or for the active stored
// queries when none are given, and stores those not already present among the
// most recent DedupWindow mentions. A classification failure stores the
// mention unprocessed.
func (s *Service) Collect(ctx context.Context, queries []string) (*CollectResult, error) {
	s.collectMu.Lock()
	defer s.collectMu.Unlock()

	start := s.now()
	metrics.CollectRuns.Inc()

	terms, storedIDs, err := s.resolveQueries(ctx, queries)
	if err != nil {
		return nil, err
	}

	result := &CollectResult{Queries: terms, Mentions: []*models.Mention{}}
	if len(terms) == 0 {
		logrus.Info("No search queries to collect")
		return result, nil
	}

	logrus.Infof("Starting collection for %d queries", len(terms))

	recent, err := s.storage.ListMentions(ctx, models.MentionFilter{Limit: s.config.DedupWindow})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(recent))
	for _, m := range recent {
		seen[dedupKey(m.Content, m.Source)] = struct{}{}
	}

	classificationErrors := 0
	for _, term := range terms {
		for _, draft := range s.synthesizer.Synthesize(ctx, term) {
			key := dedupKey(draft.Content, draft.Source)
			if _, ok := seen[key]; ok {
				result.Duplicates++
				continue
			}
			seen[key] = struct{}{}

			m := draft.ToMention()
			if s.config.EnableSentimentAnalysis {
				if err := s.classify(ctx, m); err != nil {
					classificationErrors++
					logrus.Warnf("Storing mention from %s unprocessed: %v", m.Source, err)
				}
			}

			created, err := s.storage.CreateMention(ctx, m)
			if err != nil {
				return nil, err
			}
			result.Mentions = append(result.Mentions, created)
		}

		for _, id := range storedIDs[term] {
			if err := s.storage.MarkSearchQueryExecuted(ctx, id, s.now()); err != nil && !errors.Is(err, storage.ErrNotFound) {
				logrus.Errorf("Failed to update lastExecuted of query %d: %v", id, err)
			}
		}
	}
	result.Collected = len(result.Mentions)

	metrics.MentionsCollected.Add(float64(result.Collected))
	metrics.DuplicatesSkipped.Add(float64(result.Duplicates))
	s.updateStats(result, s.now().Sub(start), classificationErrors)

	logrus.Infof("Collection completed in %v: %d stored, %d duplicates skipped",
		s.now().Sub(start), result.Collected, result.Duplicates)

	s.alertOnNegativeSpike(ctx, result.Mentions)
	return result, nil
}

// resolveQueries picks the terms of a collection run: the given queries, else
// the active stored queries, else the configured defaults. It also returns the
// ids of stored queries by term so their lastExecuted can be stamped.
func (s *Service) resolveQueries(ctx context.Context, queries []string) ([]string, map[string][]int64, error) {
	terms := models.NormalizeTags(queries)
	explicit := len(terms) > 0

	var (
		stored []*models.SearchQuery
		err    error
	)
	if explicit {
		stored, err = s.storage.ListSearchQueries(ctx)
	} else {
		stored, err = s.storage.ListActiveSearchQueries(ctx)
	}
	if err != nil {
		return nil, nil, err
	}

	storedIDs := make(map[string][]int64)
	for _, q := range stored {
		term := strings.TrimSpace(q.Query)
		if term == "" {
			continue
		}
		if _, ok := storedIDs[term]; !ok && !explicit {
			terms = append(terms, term)
		}
		storedIDs[term] = append(storedIDs[term], q.ID)
	}
	if len(terms) > 0 {
		return terms, storedIDs, nil
	}

	return models.NormalizeTags(s.config.DefaultQueries), storedIDs, nil
}

func dedupKey(content, source string) string {
	return source + "\x00" + content
}

// classify sets the sentiment fields of m, leaving it unprocessed on failure
func (s *Service) classify(ctx context.Context, m *models.Mention) error {
	result, err := s.classifier.Classify(ctx, m.Content)
	if err != nil {
		m.IsProcessed = false
		return err
	}
	label := result.Sentiment
	score := result.Confidence
	m.Sentiment = &label
	m.SentimentScore = &score
	m.IsProcessed = true
	return nil
}

func (s *Service) alertOnNegativeSpike(ctx context.Context, mentions []*models.Mention) {
	threshold := s.config.NegativeAlertThreshold
	if threshold <= 0 || !s.notificationService.Enabled() {
		return
	}

	var negative []*models.Mention
	for _, m := range mentions {
		if m.Sentiment != nil && *m.Sentiment == models.SentimentNegative {
			negative = append(negative, m)
		}
	}
	if len(negative) < threshold {
		return
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		Type:      "negative-spike",
		Title:     fmt.Sprintf("Negative mentions alert: %d new negative mentions", len(negative)),
		Message:   fmt.Sprintf("The latest collection stored %d negative mentions out of %d (threshold %d)", len(negative), len(mentions), threshold),
		Mentions:  negative,
		CreatedAt: s.now().UTC(),
	}
	if err := s.notificationService.SendAlert(ctx, alert); err != nil {
		logrus.Errorf("Failed to send negative mentions alert: %v", err)
	}
}

// AnalyzeMention classifies a stored mention and persists the result.
// On failure the mention is left untouched.
func (s *Service) AnalyzeMention(ctx context.Context, id int64) (*models.Mention, error) {
	m, err := s.storage.GetMention(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.classifier.Classify(ctx, m.Content)
	if err != nil {
		return nil, err
	}

	processed := true
	return s.storage.UpdateMention(ctx, id, models.MentionPatch{
		Sentiment:      &result.Sentiment,
		SentimentScore: &result.Confidence,
		IsProcessed:    &processed,
	})
}

// AnalyzeBatch analyzes the unprocessed mentions among ids, one at a time.
// Already processed and unknown ids are reported without classification.
func (s *Service) AnalyzeBatch(ctx context.Context, ids []int64) ([]AnalyzeOutcome, error) {
	outcomes := make([]AnalyzeOutcome, 0, len(ids))

	for _, id := range ids {
		m, err := s.storage.GetMention(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			outcomes = append(outcomes, AnalyzeOutcome{ID: id, Status: OutcomeNotFound})
			continue
		}
		if err != nil {
			return nil, err
		}
		if m.IsProcessed {
			outcomes = append(outcomes, AnalyzeOutcome{ID: id, Status: OutcomeSkipped, Mention: m})
			continue
		}

		updated, err := s.AnalyzeMention(ctx, id)
		var cerr *sentiment.ClassificationError
		switch {
		case errors.As(err, &cerr):
			outcomes = append(outcomes, AnalyzeOutcome{ID: id, Status: OutcomeFailed, Error: cerr.Error()})
		case err != nil:
			return nil, err
		default:
			outcomes = append(outcomes, AnalyzeOutcome{ID: id, Status: OutcomeAnalyzed, Mention: updated})
		}
	}

	return outcomes, nil
}

var dayRange = regexp.MustCompile(`^(\d+)d$`)

// summarySample is the number of newest mentions a report narrative is written from
const summarySample = 50

// GenerateReport snapshots sentiment counts of the mentions matching the
// request. A "<N>d" date range restricts to the last N days unless the
// filters carry a start date. The stored report is archived and announced;
// failures of either are only logged.
func (s *Service) GenerateReport(ctx context.Context, req ReportRequest) (*models.Report, error) {
	v := &models.ValidationError{}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		v.Add("title", "is required")
	}
	dateRange := strings.TrimSpace(req.DateRange)
	if dateRange == "" {
		v.Add("dateRange", "is required")
	}

	filter := req.Filters
	filter.Limit, filter.Offset = 0, 0
	if match := dayRange.FindStringSubmatch(dateRange); match != nil {
		days, err := strconv.Atoi(match[1])
		if err != nil || days < 1 || days > 3650 {
			v.Add("dateRange", "must be between 1d and 3650d")
		} else if filter.StartDate == nil {
			start := s.now().UTC().AddDate(0, 0, -days)
			filter.StartDate = &start
		}
	}
	if filter.Sentiment != nil && !filter.Sentiment.Valid() {
		v.Add("filters.sentiment", "must be one of positive, negative, neutral")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	counts, err := s.aggregator.Counts(ctx, filter)
	if err != nil {
		return nil, err
	}

	// The request filters are stored as given, without the derived start date
	stored := req.Filters
	stored.Limit, stored.Offset = 0, 0
	filtersJSON, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report filters: %w", err)
	}

	var summary string
	if req.IncludeSummary {
		summary = s.summarize(ctx, filter, dateRange)
	}

	report, err := s.storage.CreateReport(ctx, &models.Report{
		Title:         title,
		DateRange:     dateRange,
		Filters:       string(filtersJSON),
		TotalMentions: counts.Total,
		PositiveCount: counts.Positive,
		NeutralCount:  counts.Neutral,
		NegativeCount: counts.Negative,
		Summary:       summary,
	})
	if err != nil {
		return nil, err
	}
	metrics.ReportsGenerated.Inc()
	logrus.Infof("Generated report %d (%s): %d mentions", report.ID, report.Title, report.TotalMentions)

	if s.archive != nil {
		if _, err := s.archive.ArchiveReport(ctx, report); err != nil {
			logrus.Errorf("Failed to archive report %d: %v", report.ID, err)
		}
	}
	if s.notificationService.Enabled() {
		if err := s.notificationService.SendReport(ctx, report); err != nil {
			logrus.Errorf("Failed to send report %d: %v", report.ID, err)
		}
	}

	return report, nil
}

// summarize writes the narrative of a report from its newest matching
// mentions. A failure leaves the report without a summary.
func (s *Service) summarize(ctx context.Context, filter models.MentionFilter, dateRange string) string {
	filter.Limit = summarySample
	mentions, err := s.storage.ListMentions(ctx, filter)
	if err != nil {
		logrus.Errorf("Failed to load mentions for report summary: %v", err)
		return ""
	}

	summary, err := s.summarizer.Summarize(ctx, mentions, dateRange)
	if err != nil {
		logrus.Errorf("Failed to summarize report: %v", err)
		return ""
	}
	return summary
}

// SuggestTags proposes tags for a stored mention, preferring existing tag
// names. Suggested tags are not created.
func (s *Service) SuggestTags(ctx context.Context, id int64) ([]sentiment.TagSuggestion, error) {
	m, err := s.storage.GetMention(ctx, id)
	if err != nil {
		return nil, err
	}

	tags, err := s.storage.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	existing := make([]string, 0, len(tags))
	for _, t := range tags {
		existing = append(existing, t.Name)
	}

	suggestions := s.suggester.SuggestTags(ctx, m.Content, existing)
	if suggestions == nil {
		suggestions = []sentiment.TagSuggestion{}
	}
	return suggestions, nil
}

func (s *Service) updateStats(result *CollectResult, duration time.Duration, classificationErrors int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.LastRun = s.now().UTC()
	s.stats.LastRunDuration = duration.String()
	s.stats.Queries = append([]string{}, result.Queries...)
	s.stats.Collected = result.Collected
	s.stats.Duplicates = result.Duplicates
	s.stats.ClassificationErrors = classificationErrors

	// Reset counters
	s.stats.SourceMetrics = make(map[string]int)
	s.stats.SentimentBreakdown = make(map[string]int)

	for _, m := range result.Mentions {
		s.stats.SourceMetrics[m.Source]++
		label := "unprocessed"
		if m.Sentiment != nil {
			label = string(*m.Sentiment)
		}
		s.stats.SentimentBreakdown[label]++
	}
}

// GetStats returns a copy of the latest collection run figures
func (s *Service) GetStats() RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := *s.stats
	stats.Queries = append([]string{}, s.stats.Queries...)
	stats.SourceMetrics = make(map[string]int, len(s.stats.SourceMetrics))
	for k, v := range s.stats.SourceMetrics {
		stats.SourceMetrics[k] = v
	}
	stats.SentimentBreakdown = make(map[string]int, len(s.stats.SentimentBreakdown))
	for k, v := range s.stats.SentimentBreakdown {
		stats.SentimentBreakdown[k] = v
	}
	return stats
}

// RunScheduledCollect collects the active queries; used by the scheduler
func (s *Service) RunScheduledCollect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	_, err := s.Collect(ctx, nil)
	return err
}
