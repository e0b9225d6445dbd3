package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/storage"
)

const dateLayout = "2006-01-02"

// growthWindow is the period compared against the one before it for growth figures
const growthWindow = 7 * 24 * time.Hour

// Aggregator computes dashboard figures from the mentions in a store
type Aggregator struct {
	store storage.MentionStore
	loc   *time.Location
	now   func() time.Time
}

// NewAggregator creates an aggregator bucketing days in loc (UTC when nil)
func NewAggregator(store storage.MentionStore, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{store: store, loc: loc, now: time.Now}
}

// WithClock overrides the reference time, used by tests
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) all(ctx context.Context) ([]*models.Mention, error) {
	mentions, err := a.store.ListMentions(ctx, models.MentionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load mentions: %w", err)
	}
	return mentions, nil
}

// Dashboard returns the summary card figures
func (a *Aggregator) Dashboard(ctx context.Context) (models.DashboardMetrics, error) {
	mentions, err := a.all(ctx)
	if err != nil {
		return models.DashboardMetrics{}, err
	}
	return ComputeDashboard(mentions, a.now()), nil
}

// SentimentTrend returns the daily sentiment split for the last days days
func (a *Aggregator) SentimentTrend(ctx context.Context, days int) ([]models.SentimentTrendPoint, error) {
	mentions, err := a.all(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeTrend(mentions, days, a.now(), a.loc), nil
}

// SourceVolume returns mention counts per source
func (a *Aggregator) SourceVolume(ctx context.Context) ([]models.SourceVolume, error) {
	mentions, err := a.all(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeSourceVolume(mentions), nil
}

// Counts tallies the mentions matching filter, ignoring its pagination
func (a *Aggregator) Counts(ctx context.Context, filter models.MentionFilter) (models.SentimentCounts, error) {
	filter.Limit, filter.Offset = 0, 0
	mentions, err := a.store.ListMentions(ctx, filter)
	if err != nil {
		return models.SentimentCounts{}, fmt.Errorf("failed to load mentions: %w", err)
	}
	return CountSentiments(mentions), nil
}

// roundHalfUp rounds .5 away from zero for non-negative inputs
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// percent returns round(part/total*100), or 0 when total is 0
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return roundHalfUp(float64(part) / float64(total) * 100)
}

// CountSentiments tallies mentions per sentiment label
func CountSentiments(mentions []*models.Mention) models.SentimentCounts {
	counts := models.SentimentCounts{Total: len(mentions)}
	for _, m := range mentions {
		if m.Sentiment == nil {
			continue
		}
		switch *m.Sentiment {
		case models.SentimentPositive:
			counts.Positive++
		case models.SentimentNegative:
			counts.Negative++
		case models.SentimentNeutral:
			counts.Neutral++
		}
	}
	return counts
}

// ComputeDashboard derives the summary cards. Positive and negative are
// percentages of the total; engagement is the share of mentions carrying a
// polar sentiment. Growth compares the last seven days of publishedAt with
// the seven days before.
func ComputeDashboard(mentions []*models.Mention, now time.Time) models.DashboardMetrics {
	all := CountSentiments(mentions)

	var current, previous []*models.Mention
	for _, m := range mentions {
		age := now.Sub(m.PublishedAt)
		switch {
		case age < 0:
		case age < growthWindow:
			current = append(current, m)
		case age < 2*growthWindow:
			previous = append(previous, m)
		}
	}
	cur, prev := CountSentiments(current), CountSentiments(previous)
	positive, negative := polarShares(all)

	return models.DashboardMetrics{
		TotalMentions:    all.Total,
		TotalGrowth:      growth(cur.Total, prev.Total),
		Positive:         positive,
		PositiveGrowth:   growth(cur.Positive, prev.Positive),
		Negative:         negative,
		NegativeGrowth:   growth(cur.Negative, prev.Negative),
		Engagement:       engagement(all),
		EngagementGrowth: growth(engagement(cur), engagement(prev)),
	}
}

// polarShares returns the positive and negative percentages of c, trimming the
// negative share when independent rounding would push their sum past 100
func polarShares(c models.SentimentCounts) (positive, negative int) {
	positive = percent(c.Positive, c.Total)
	negative = percent(c.Negative, c.Total)
	if positive+negative > 100 {
		negative = 100 - positive
	}
	return positive, negative
}

func engagement(c models.SentimentCounts) int {
	return percent(c.Positive+c.Negative, c.Total)
}

// growth formats the relative change from previous to current as "+12%"
func growth(current, previous int) string {
	if previous == 0 {
		if current == 0 {
			return "0%"
		}
		return "+100%"
	}
	change := float64(current-previous) / float64(previous) * 100
	var pct int
	if change < 0 {
		pct = -roundHalfUp(-change)
	} else {
		pct = roundHalfUp(change)
	}
	if pct > 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}

// ComputeTrend buckets mentions by the calendar day (in loc) of publishedAt
// for the days days ending today, oldest first. Neutral is the remainder so
// that a non-empty bucket always sums to 100; an empty bucket is 0/0/0.
func ComputeTrend(mentions []*models.Mention, days int, now time.Time, loc *time.Location) []models.SentimentTrendPoint {
	if days <= 0 {
		return []models.SentimentTrendPoint{}
	}
	if loc == nil {
		loc = time.UTC
	}

	buckets := make(map[string][]*models.Mention)
	for _, m := range mentions {
		key := m.PublishedAt.In(loc).Format(dateLayout)
		buckets[key] = append(buckets[key], m)
	}

	localNow := now.In(loc)
	today := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc)

	points := make([]models.SentimentTrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := today.AddDate(0, 0, -i).Format(dateLayout)
		point := models.SentimentTrendPoint{Date: key}

		counts := CountSentiments(buckets[key])
		if counts.Total > 0 {
			point.Positive, point.Negative = polarShares(counts)
			point.Neutral = 100 - point.Positive - point.Negative
		}
		points = append(points, point)
	}
	return points
}

// ComputeSourceVolume groups mentions by source, ordered by count descending
// then name ascending
func ComputeSourceVolume(mentions []*models.Mention) []models.SourceVolume {
	sourceCount := make(map[string]int)
	for _, m := range mentions {
		sourceCount[m.Source]++
	}

	volumes := make([]models.SourceVolume, 0, len(sourceCount))
	for source, count := range sourceCount {
		volumes = append(volumes, models.SourceVolume{
			Source:     source,
			Count:      count,
			Percentage: percent(count, len(mentions)),
		})
	}
	sort.Slice(volumes, func(i, j int) bool {
		if volumes[i].Count != volumes[j].Count {
			return volumes[i].Count > volumes[j].Count
		}
		return volumes[i].Source < volumes[j].Source
	})
	return volumes
}
