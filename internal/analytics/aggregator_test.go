package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func mention(source string, sentiment models.Sentiment, published time.Time) *models.Mention {
	m := &models.Mention{Content: "content", Source: source, PublishedAt: published}
	if sentiment != "" {
		score := 0.9
		m.Sentiment = &sentiment
		m.SentimentScore = &score
	}
	return m
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total int
		expected    int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds half up
		{3, 8, 38}, // 37.5 rounds half up
		{4, 4, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, percent(tt.part, tt.total), "percent(%d, %d)", tt.part, tt.total)
	}
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		name              string
		current, previous int
		expected          string
	}{
		{"Both empty", 0, 0, "0%"},
		{"From nothing", 3, 0, "+100%"},
		{"Increase", 12, 10, "+20%"},
		{"Decrease", 5, 10, "-50%"},
		{"Unchanged", 10, 10, "0%"},
		{"Drop to zero", 0, 4, "-100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, growth(tt.current, tt.previous))
		})
	}
}

func TestComputeDashboard(t *testing.T) {
	t.Run("Empty store", func(t *testing.T) {
		metrics := ComputeDashboard(nil, refNow)
		assert.Equal(t, models.DashboardMetrics{
			TotalGrowth:      "0%",
			PositiveGrowth:   "0%",
			NegativeGrowth:   "0%",
			EngagementGrowth: "0%",
		}, metrics)
	})

	t.Run("Percentages and growth", func(t *testing.T) {
		day := 24 * time.Hour
		mentions := []*models.Mention{
			mention("Twitter", models.SentimentPositive, refNow.Add(-1*day)),
			mention("Twitter", models.SentimentPositive, refNow.Add(-1*day)),
			mention("Twitter", models.SentimentPositive, refNow.Add(-2*day)),
			mention("Facebook", models.SentimentNegative, refNow.Add(-2*day)),
			mention("Facebook", models.SentimentNeutral, refNow.Add(-10*day)),
			mention("Facebook", "", refNow.Add(-10*day)),
		}

		metrics := ComputeDashboard(mentions, refNow)

		assert.Equal(t, 6, metrics.TotalMentions)
		assert.Equal(t, 50, metrics.Positive)
		assert.Equal(t, 17, metrics.Negative)
		assert.Equal(t, 67, metrics.Engagement)
		assert.Equal(t, "+100%", metrics.TotalGrowth)
		assert.Equal(t, "+100%", metrics.PositiveGrowth)
		assert.Equal(t, "+100%", metrics.NegativeGrowth)
		assert.Equal(t, "+100%", metrics.EngagementGrowth)
	})

	t.Run("Positive and negative never exceed 100", func(t *testing.T) {
		for total := 1; total <= 60; total++ {
			for pos := 0; pos <= total; pos++ {
				for neg := 0; pos+neg <= total; neg++ {
					p, n := polarShares(models.SentimentCounts{Total: total, Positive: pos, Negative: neg})
					require.LessOrEqual(t, p+n, 100, "total=%d positive=%d negative=%d", total, pos, neg)
				}
			}
		}
		p, n := polarShares(models.SentimentCounts{Total: 200, Positive: 101, Negative: 99})
		assert.LessOrEqual(t, p+n, 100)
	})
}

func TestComputeTrend(t *testing.T) {
	at := func(day, hour int) time.Time {
		return time.Date(2026, 10, day, hour, 0, 0, 0, time.UTC)
	}
	mentions := []*models.Mention{
		mention("Twitter", models.SentimentPositive, at(16, 9)),
		mention("Twitter", models.SentimentPositive, at(16, 10)),
		mention("Twitter", models.SentimentNegative, at(16, 11)),
		mention("Twitter", models.SentimentPositive, at(14, 8)),
		mention("Twitter", models.SentimentNeutral, at(14, 9)),
		mention("Twitter", models.SentimentNeutral, at(14, 10)),
		mention("Twitter", models.SentimentNegative, at(1, 10)),
	}

	points := ComputeTrend(mentions, 3, refNow, time.UTC)

	assert.Equal(t, []models.SentimentTrendPoint{
		{Date: "2026-10-14", Positive: 33, Neutral: 67, Negative: 0},
		{Date: "2026-10-15", Positive: 0, Neutral: 0, Negative: 0},
		{Date: "2026-10-16", Positive: 67, Neutral: 0, Negative: 33},
	}, points)

	t.Run("Default window length", func(t *testing.T) {
		points := ComputeTrend(mentions, 7, refNow, nil)
		require.Len(t, points, 7)
		assert.Equal(t, "2026-10-10", points[0].Date)
		assert.Equal(t, "2026-10-16", points[6].Date)
	})

	t.Run("Buckets sum to 100 or are empty", func(t *testing.T) {
		for _, p := range ComputeTrend(mentions, 30, refNow, time.UTC) {
			sum := p.Positive + p.Neutral + p.Negative
			assert.True(t, sum == 100 || (p.Positive == 0 && p.Neutral == 0 && p.Negative == 0),
				"bucket %s sums to %d", p.Date, sum)
		}
	})

	t.Run("Unclassified mentions count toward neutral", func(t *testing.T) {
		points := ComputeTrend([]*models.Mention{
			mention("Blog", "", at(16, 1)),
			mention("Blog", models.SentimentPositive, at(16, 2)),
		}, 1, refNow, time.UTC)
		assert.Equal(t, []models.SentimentTrendPoint{{Date: "2026-10-16", Positive: 50, Neutral: 50}}, points)
	})

	t.Run("Days are calendar days of the location", func(t *testing.T) {
		brt := time.FixedZone("BRT", -3*60*60)
		late := []*models.Mention{mention("Blog", models.SentimentPositive, at(16, 2))}

		utc := ComputeTrend(late, 2, refNow, time.UTC)
		assert.Equal(t, 100, utc[1].Positive)

		local := ComputeTrend(late, 2, refNow, brt)
		assert.Equal(t, "2026-10-15", local[0].Date)
		assert.Equal(t, 100, local[0].Positive)
		assert.Equal(t, 0, local[1].Positive)
	})

	t.Run("Non-positive days", func(t *testing.T) {
		assert.Empty(t, ComputeTrend(mentions, 0, refNow, time.UTC))
	})
}

func TestComputeSourceVolume(t *testing.T) {
	mentions := []*models.Mention{
		mention("Twitter", "", refNow),
		mention("Twitter", "", refNow),
		mention("Facebook", "", refNow),
		mention("Facebook", "", refNow),
		mention("Blog", "", refNow),
	}

	assert.Equal(t, []models.SourceVolume{
		{Source: "Facebook", Count: 2, Percentage: 40},
		{Source: "Twitter", Count: 2, Percentage: 40},
		{Source: "Blog", Count: 1, Percentage: 20},
	}, ComputeSourceVolume(mentions))

	assert.Equal(t, []models.SourceVolume{}, ComputeSourceVolume(nil))
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	for _, m := range []*models.Mention{
		mention("Twitter", models.SentimentPositive, refNow.Add(-time.Hour)),
		mention("Twitter", models.SentimentNegative, refNow.Add(-time.Hour)),
		mention("Trustpilot", models.SentimentNeutral, refNow.Add(-time.Hour)),
		mention("Trustpilot", models.SentimentPositive, refNow.Add(-time.Hour)),
	} {
		_, err := store.CreateMention(ctx, m)
		require.NoError(t, err)
	}

	agg := NewAggregator(store, nil).WithClock(func() time.Time { return refNow })

	metrics, err := agg.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.TotalMentions)
	assert.Equal(t, 50, metrics.Positive)
	assert.Equal(t, 25, metrics.Negative)

	trend, err := agg.SentimentTrend(ctx, 7)
	require.NoError(t, err)
	require.Len(t, trend, 7)
	assert.Equal(t, models.SentimentTrendPoint{Date: "2026-10-16", Positive: 50, Neutral: 25, Negative: 25}, trend[6])

	volume, err := agg.SourceVolume(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.SourceVolume{
		{Source: "Trustpilot", Count: 2, Percentage: 50},
		{Source: "Twitter", Count: 2, Percentage: 50},
	}, volume)

	counts, err := agg.Counts(ctx, models.MentionFilter{Source: "Twitter", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, models.SentimentCounts{Total: 2, Positive: 1, Negative: 1}, counts)
}
