package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/sentiment"
	"github.com/azure/mentions-dashboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClassifier is a mock implementation of sentiment.Classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Name() string { return "mock" }

func (m *MockClassifier) Classify(ctx context.Context, text string) (*sentiment.Result, error) {
	args := m.Called(ctx, text)
	if r := args.Get(0); r != nil {
		return r.(*sentiment.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSuggester is a mock implementation of sentiment.Suggester
type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) SuggestTags(ctx context.Context, text string, existing []string) []sentiment.TagSuggestion {
	args := m.Called(ctx, text, existing)
	return args.Get(0).([]sentiment.TagSuggestion)
}

// MockSummarizer is a mock implementation of sentiment.Summarizer
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, mentions []*models.Mention, dateRange string) (string, error) {
	args := m.Called(ctx, mentions, dateRange)
	return args.String(0), args.Error(1)
}

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockNotificationService) SendReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockArchive is a mock implementation of archive.ArchiveInterface
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) ArchiveReport(ctx context.Context, report *models.Report) (string, error) {
	args := m.Called(ctx, report)
	return args.String(0), args.Error(1)
}

// fakeSynthesizer returns fixed drafts per query
type fakeSynthesizer struct {
	drafts map[string][]models.MentionDraft
	calls  []string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, query string) []models.MentionDraft {
	f.calls = append(f.calls, query)
	return f.drafts[query]
}

func draft(content, source string) models.MentionDraft {
	return models.MentionDraft{Content: content, Source: source, PublishedAt: time.Now().Add(-time.Hour)}
}

func classifiedAs(label models.Sentiment, confidence float64) *sentiment.Result {
	return &sentiment.Result{Sentiment: label, Confidence: confidence}
}

type fixture struct {
	service    *Service
	store      *storage.MemoryStorage
	synth      *fakeSynthesizer
	classifier *MockClassifier
	notifier   *MockNotificationService
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	f := &fixture{
		store:      storage.NewMemoryStorage(),
		synth:      &fakeSynthesizer{drafts: map[string][]models.MentionDraft{}},
		classifier: new(MockClassifier),
		notifier:   new(MockNotificationService),
	}
	f.service = NewService(cfg, f.store, f.synth, f.classifier, f.notifier, nil)
	return f
}

func TestService_CreateMention(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.store.CreateTag(ctx, "price", "")
	require.NoError(t, err)

	author := "  <b>Ana</b> "
	created, err := f.service.CreateMention(ctx, &models.Mention{
		Content:     "<script>x</script>Great <i>support</i>",
		Source:      "Twitter",
		Author:      &author,
		PublishedAt: time.Now(),
		Tags:        []string{"price", " price ", "quality"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Great support", created.Content)
	require.NotNil(t, created.Author)
	assert.Equal(t, "Ana", *created.Author)
	assert.Equal(t, []string{"price", "quality"}, created.Tags)

	tag, err := f.store.GetTagByName(ctx, "price")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.UsageCount)
}

func TestService_CreateMention_Validation(t *testing.T) {
	f := newFixture(t, nil)
	positive := models.SentimentPositive

	tests := []struct {
		name    string
		mention *models.Mention
		field   string
	}{
		{
			name:    "sentiment without score",
			mention: &models.Mention{Content: "ok", Source: "Twitter", PublishedAt: time.Now(), Sentiment: &positive},
			field:   "sentimentScore",
		},
		{
			name:    "content reduced to nothing by sanitizing",
			mention: &models.Mention{Content: "<script>alert(1)</script>", Source: "Twitter", PublishedAt: time.Now()},
			field:   "content",
		},
		{
			name:    "missing source",
			mention: &models.Mention{Content: "ok", PublishedAt: time.Now()},
			field:   "source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateMention(context.Background(), tt.mention)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Errors)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
		})
	}
}

func TestService_UpdateMention(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	created, err := f.service.CreateMention(ctx, &models.Mention{
		Content: "fine", Source: "Twitter", PublishedAt: time.Now(), Tags: []string{"price"},
	})
	require.NoError(t, err)
	_, err = f.store.CreateTag(ctx, "delivery", "")
	require.NoError(t, err)

	t.Run("empty patch returns record unchanged", func(t *testing.T) {
		got, err := f.service.UpdateMention(ctx, created.ID, models.MentionPatch{})
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("adding tags increments their usage", func(t *testing.T) {
		tags := []string{"price", "delivery"}
		starred := true
		got, err := f.service.UpdateMention(ctx, created.ID, models.MentionPatch{Tags: &tags, IsStarred: &starred})
		require.NoError(t, err)
		assert.True(t, got.IsStarred)
		assert.Equal(t, tags, got.Tags)

		tag, err := f.store.GetTagByName(ctx, "delivery")
		require.NoError(t, err)
		assert.Equal(t, 1, tag.UsageCount)
	})

	t.Run("source and author are sanitized", func(t *testing.T) {
		source, author := "<b>Blog</b>", "<i>Ana</i>"
		got, err := f.service.UpdateMention(ctx, created.ID, models.MentionPatch{Source: &source, Author: &author})
		require.NoError(t, err)
		assert.Equal(t, "Blog", got.Source)
		require.NotNil(t, got.Author)
		assert.Equal(t, "Ana", *got.Author)
	})

	t.Run("null clears the sentiment pair", func(t *testing.T) {
		positive, score := models.SentimentPositive, 0.8
		_, err := f.service.UpdateMention(ctx, created.ID, models.MentionPatch{Sentiment: &positive, SentimentScore: &score})
		require.NoError(t, err)

		got, err := f.service.UpdateMention(ctx, created.ID, models.MentionPatch{ClearSentiment: true, ClearSentimentScore: true})
		require.NoError(t, err)
		assert.Nil(t, got.Sentiment)
		assert.Nil(t, got.SentimentScore)
	})

	t.Run("merged record must stay valid", func(t *testing.T) {
		negative := models.SentimentNegative
		_, err := f.service.UpdateMention(ctx, created.ID, models.MentionPatch{Sentiment: &negative})
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)

		stored, err := f.store.GetMention(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Sentiment)
	})

	t.Run("unknown id", func(t *testing.T) {
		starred := false
		_, err := f.service.UpdateMention(ctx, 999, models.MentionPatch{IsStarred: &starred})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestService_Collect_Deduplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.synth.drafts["acme"] = []models.MentionDraft{
		draft("Loved acme", "Twitter"),
		draft("Loved acme", "Facebook"),
		draft("Loved acme", "Twitter"),
		draft("acme is slow", "Trustpilot"),
	}
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return(classifiedAs(models.SentimentPositive, 0.8), nil)

	first, err := f.service.Collect(ctx, []string{"acme"})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Collected)
	assert.Equal(t, 1, first.Duplicates)
	assert.Len(t, first.Mentions, 3)
	for _, m := range first.Mentions {
		assert.True(t, m.IsProcessed)
		require.NotNil(t, m.SentimentScore)
		assert.Equal(t, 0.8, *m.SentimentScore)
	}

	second, err := f.service.Collect(ctx, []string{"acme"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Collected)
	assert.Equal(t, 4, second.Duplicates)
	assert.Empty(t, second.Mentions)

	all, err := f.store.ListMentions(ctx, models.MentionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats := f.service.GetStats()
	assert.Equal(t, 0, stats.Collected)
	assert.Equal(t, 4, stats.Duplicates)
	assert.Equal(t, []string{"acme"}, stats.Queries)
}

func TestService_Collect_DedupWindow(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.DedupWindow = 1
	cfg.EnableSentimentAnalysis = false
	f := newFixture(t, cfg)

	f.synth.drafts["old"] = []models.MentionDraft{draft("old post", "Blog")}
	f.synth.drafts["new"] = []models.MentionDraft{draft("new post", "Blog")}

	_, err := f.service.Collect(ctx, []string{"old"})
	require.NoError(t, err)
	_, err = f.service.Collect(ctx, []string{"new"})
	require.NoError(t, err)

	// "old post" has dropped out of a window of one mention
	again, err := f.service.Collect(ctx, []string{"old"})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Collected)
	f.classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestService_Collect_ClassificationFailureStoresUnprocessed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.synth.drafts["acme"] = []models.MentionDraft{draft("good acme", "Twitter"), draft("bad acme", "Twitter")}
	f.classifier.On("Classify", mock.Anything, "good acme").Return(classifiedAs(models.SentimentPositive, 0.9), nil)
	f.classifier.On("Classify", mock.Anything, "bad acme").
		Return(nil, &sentiment.ClassificationError{Classifier: "mock", Err: context.DeadlineExceeded})

	result, err := f.service.Collect(ctx, []string{"acme"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Collected)

	assert.True(t, result.Mentions[0].IsProcessed)
	assert.False(t, result.Mentions[1].IsProcessed)
	assert.Nil(t, result.Mentions[1].Sentiment)
	assert.Nil(t, result.Mentions[1].SentimentScore)
	assert.Equal(t, 1, f.service.GetStats().ClassificationErrors)
}

func TestService_Collect_QueryResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("active stored queries are stamped", func(t *testing.T) {
		cfg := config.Default()
		cfg.EnableSentimentAnalysis = false
		f := newFixture(t, cfg)

		inactive := false
		active, err := f.store.CreateSearchQuery(ctx, "acme", nil)
		require.NoError(t, err)
		_, err = f.store.CreateSearchQuery(ctx, "ignored", &inactive)
		require.NoError(t, err)

		f.synth.drafts["acme"] = []models.MentionDraft{draft("acme rocks", "Twitter")}

		result, err := f.service.Collect(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"acme"}, result.Queries)
		assert.Equal(t, []string{"acme"}, f.synth.calls)

		queries, err := f.store.ListSearchQueries(ctx)
		require.NoError(t, err)
		for _, q := range queries {
			if q.ID == active.ID {
				assert.NotNil(t, q.LastExecuted)
			} else {
				assert.Nil(t, q.LastExecuted)
			}
		}
	})

	t.Run("given queries stamp stored queries with the same term", func(t *testing.T) {
		cfg := config.Default()
		cfg.EnableSentimentAnalysis = false
		f := newFixture(t, cfg)

		inactive := false
		acme, err := f.store.CreateSearchQuery(ctx, "acme", nil)
		require.NoError(t, err)
		paused, err := f.store.CreateSearchQuery(ctx, "beta", &inactive)
		require.NoError(t, err)
		other, err := f.store.CreateSearchQuery(ctx, "other", nil)
		require.NoError(t, err)

		result, err := f.service.Collect(ctx, []string{"acme", "beta", "gamma"})
		require.NoError(t, err)
		assert.Equal(t, []string{"acme", "beta", "gamma"}, result.Queries)
		assert.Equal(t, []string{"acme", "beta", "gamma"}, f.synth.calls)

		queries, err := f.store.ListSearchQueries(ctx)
		require.NoError(t, err)
		for _, q := range queries {
			switch q.ID {
			case acme.ID, paused.ID:
				assert.NotNil(t, q.LastExecuted, q.Query)
			case other.ID:
				assert.Nil(t, q.LastExecuted)
			}
		}
	})

	t.Run("default queries when nothing is stored", func(t *testing.T) {
		cfg := config.Default()
		cfg.EnableSentimentAnalysis = false
		cfg.DefaultQueries = []string{"fallback"}
		f := newFixture(t, cfg)

		result, err := f.service.Collect(ctx, []string{" ", ""})
		require.NoError(t, err)
		assert.Equal(t, []string{"fallback"}, result.Queries)
	})

	t.Run("nothing to collect", func(t *testing.T) {
		f := newFixture(t, nil)

		result, err := f.service.Collect(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Collected)
		assert.NotNil(t, result.Mentions)
		assert.Empty(t, f.synth.calls)
	})
}

func TestService_Collect_NegativeAlert(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.NegativeAlertThreshold = 2
	f := newFixture(t, cfg)

	f.synth.drafts["acme"] = []models.MentionDraft{
		draft("acme broke", "Twitter"), draft("acme failed", "Reddit"), draft("acme fine", "Blog"),
	}
	f.classifier.On("Classify", mock.Anything, "acme fine").Return(classifiedAs(models.SentimentNeutral, 0.6), nil)
	f.classifier.On("Classify", mock.Anything, mock.Anything).Return(classifiedAs(models.SentimentNegative, 0.9), nil)
	f.notifier.On("Enabled").Return(true)
	f.notifier.On("SendAlert", mock.Anything, mock.MatchedBy(func(a *models.Alert) bool {
		return a.Type == "negative-spike" && len(a.Mentions) == 2
	})).Return(errors.New("webhook down")).Once()

	result, err := f.service.Collect(ctx, []string{"acme"})
	require.NoError(t, err, "alert failures are only logged")
	assert.Equal(t, 3, result.Collected)
	f.notifier.AssertExpectations(t)
}

func TestService_Preview(t *testing.T) {
	f := newFixture(t, nil)
	f.synth.drafts["acme"] = []models.MentionDraft{draft("acme", "Twitter")}

	drafts, err := f.service.Preview(context.Background(), "  acme ")
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	_, err = f.service.Preview(context.Background(), "   ")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	stored, err := f.store.ListMentions(context.Background(), models.MentionFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestService_AnalyzeMention(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	m, err := f.service.CreateMention(ctx, &models.Mention{Content: "terrible", Source: "Twitter", PublishedAt: time.Now()})
	require.NoError(t, err)

	f.classifier.On("Classify", mock.Anything, "terrible").
		Return(nil, &sentiment.ClassificationError{Classifier: "mock", Err: errors.New("boom")}).Once()
	_, err = f.service.AnalyzeMention(ctx, m.ID)
	var cerr *sentiment.ClassificationError
	require.ErrorAs(t, err, &cerr)

	unchanged, err := f.store.GetMention(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, unchanged)

	f.classifier.On("Classify", mock.Anything, "terrible").Return(classifiedAs(models.SentimentNegative, 0.95), nil).Once()
	analyzed, err := f.service.AnalyzeMention(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, analyzed.Sentiment)
	assert.Equal(t, models.SentimentNegative, *analyzed.Sentiment)
	assert.Equal(t, 0.95, *analyzed.SentimentScore)
	assert.True(t, analyzed.IsProcessed)

	_, err = f.service.AnalyzeMention(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_AnalyzeBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	pending, err := f.service.CreateMention(ctx, &models.Mention{Content: "nice", Source: "Blog", PublishedAt: time.Now()})
	require.NoError(t, err)
	failing, err := f.service.CreateMention(ctx, &models.Mention{Content: "hmm", Source: "Blog", PublishedAt: time.Now()})
	require.NoError(t, err)

	score := 0.7
	neutral := models.SentimentNeutral
	done, err := f.service.CreateMention(ctx, &models.Mention{
		Content: "done", Source: "Blog", PublishedAt: time.Now(),
		Sentiment: &neutral, SentimentScore: &score, IsProcessed: true,
	})
	require.NoError(t, err)

	f.classifier.On("Classify", mock.Anything, "nice").Return(classifiedAs(models.SentimentPositive, 0.9), nil)
	f.classifier.On("Classify", mock.Anything, "hmm").
		Return(nil, &sentiment.ClassificationError{Classifier: "mock", Err: errors.New("status 503")})

	outcomes, err := f.service.AnalyzeBatch(ctx, []int64{pending.ID, done.ID, 999, failing.ID})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.Equal(t, OutcomeAnalyzed, outcomes[0].Status)
	assert.True(t, outcomes[0].Mention.IsProcessed)
	assert.Equal(t, OutcomeSkipped, outcomes[1].Status)
	assert.Equal(t, OutcomeNotFound, outcomes[2].Status)
	assert.Equal(t, OutcomeFailed, outcomes[3].Status)
	assert.Contains(t, outcomes[3].Error, "503")

	f.classifier.AssertNotCalled(t, "Classify", mock.Anything, "done")
}

func TestService_GenerateReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	reportArchive := new(MockArchive)
	f.service.archive = reportArchive

	positive, negative := models.SentimentPositive, models.SentimentNegative
	score := 0.9
	seed := []*models.Mention{
		{Content: "a", Source: "Twitter", PublishedAt: time.Now().Add(-24 * time.Hour), Sentiment: &positive, SentimentScore: &score},
		{Content: "b", Source: "Twitter", PublishedAt: time.Now().Add(-48 * time.Hour), Sentiment: &negative, SentimentScore: &score},
		{Content: "c", Source: "Twitter", PublishedAt: time.Now().Add(-30 * 24 * time.Hour), Sentiment: &positive, SentimentScore: &score},
		{Content: "d", Source: "Blog", PublishedAt: time.Now().Add(-2 * time.Hour)},
	}
	for _, m := range seed {
		_, err := f.store.CreateMention(ctx, m)
		require.NoError(t, err)
	}

	reportArchive.On("ArchiveReport", mock.Anything, mock.Anything).Return("", errors.New("no container")).Once()
	f.notifier.On("Enabled").Return(true)
	f.notifier.On("SendReport", mock.Anything, mock.Anything).Return(nil).Once()

	report, err := f.service.GenerateReport(ctx, ReportRequest{
		Title:     " Weekly ",
		DateRange: "7d",
		Filters:   models.MentionFilter{Source: "Twitter", Limit: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, "Weekly", report.Title)
	assert.Equal(t, "7d", report.DateRange)
	assert.Equal(t, 2, report.TotalMentions)
	assert.Equal(t, 1, report.PositiveCount)
	assert.Equal(t, 1, report.NegativeCount)
	assert.Equal(t, 0, report.NeutralCount)

	var filters map[string]any
	require.NoError(t, json.Unmarshal([]byte(report.Filters), &filters))
	assert.Equal(t, map[string]any{"source": "Twitter"}, filters)

	stored, err := f.store.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, stored.ID)

	reportArchive.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestService_GenerateReport_Validation(t *testing.T) {
	f := newFixture(t, nil)
	bogus := models.Sentiment("angry")

	tests := []struct {
		name   string
		req    ReportRequest
		fields []string
	}{
		{name: "missing title and range", req: ReportRequest{}, fields: []string{"title", "dateRange"}},
		{name: "zero days", req: ReportRequest{Title: "t", DateRange: "0d"}, fields: []string{"dateRange"}},
		{name: "bad sentiment", req: ReportRequest{Title: "t", DateRange: "all", Filters: models.MentionFilter{Sentiment: &bogus}}, fields: []string{"filters.sentiment"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.GenerateReport(context.Background(), tt.req)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)

			var fields []string
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestService_GenerateReport_Summary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.notifier.On("Enabled").Return(false)

	positive := models.SentimentPositive
	score := 0.9
	_, err := f.store.CreateMention(ctx, &models.Mention{
		Content: "great", Source: "Twitter", PublishedAt: time.Now().Add(-time.Hour), Sentiment: &positive, SentimentScore: &score,
	})
	require.NoError(t, err)

	t.Run("written on request", func(t *testing.T) {
		report, err := f.service.GenerateReport(ctx, ReportRequest{Title: "Weekly", DateRange: "7d", IncludeSummary: true})
		require.NoError(t, err)
		assert.Equal(t, "1 mentions for 7d: 1 positive, 0 neutral, 0 negative. Overall sentiment is mostly positive. Most mentions came from Twitter (1).", report.Summary)

		stored, err := f.store.GetReport(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.Summary, stored.Summary)
	})

	t.Run("omitted by default", func(t *testing.T) {
		report, err := f.service.GenerateReport(ctx, ReportRequest{Title: "Weekly", DateRange: "7d"})
		require.NoError(t, err)
		assert.Empty(t, report.Summary)
	})

	t.Run("summarizer failure keeps the report", func(t *testing.T) {
		summarizer := new(MockSummarizer)
		summarizer.On("Summarize", mock.Anything, mock.Anything, "7d").Return("", errors.New("model unavailable")).Once()
		f.service.WithSummarizer(summarizer)
		defer f.service.WithSummarizer(sentiment.NewKeywordClassifier())

		report, err := f.service.GenerateReport(ctx, ReportRequest{Title: "Weekly", DateRange: "7d", IncludeSummary: true})
		require.NoError(t, err)
		assert.Equal(t, 1, report.TotalMentions)
		assert.Empty(t, report.Summary)
		summarizer.AssertExpectations(t)
	})
}

func TestService_SuggestTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.store.CreateTag(ctx, "Acme Pro", "")
	require.NoError(t, err)
	created, err := f.service.CreateMention(ctx, &models.Mention{
		Content: "My Acme Pro arrived broken", Source: "Twitter", PublishedAt: time.Now(),
	})
	require.NoError(t, err)

	t.Run("keyword suggestions prefer existing tags", func(t *testing.T) {
		got, err := f.service.SuggestTags(ctx, created.ID)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "Acme Pro", got[0].Tag)
		assert.LessOrEqual(t, len(got), 3)

		tags, err := f.store.ListTags(ctx)
		require.NoError(t, err)
		assert.Len(t, tags, 1)
	})

	t.Run("suggester receives existing tag names", func(t *testing.T) {
		suggester := new(MockSuggester)
		suggester.On("SuggestTags", mock.Anything, "My Acme Pro arrived broken", []string{"Acme Pro"}).
			Return([]sentiment.TagSuggestion(nil)).Once()
		f.service.WithSuggester(suggester)
		defer f.service.WithSuggester(sentiment.NewKeywordClassifier())

		got, err := f.service.SuggestTags(ctx, created.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		suggester.AssertExpectations(t)
	})

	t.Run("unknown mention", func(t *testing.T) {
		_, err := f.service.SuggestTags(ctx, 999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
