package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/gorilla/mux"
)

const (
	maxLimit           = 1000
	defaultRecentLimit = 10
	maxTrendDays       = 90
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, models.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

// queryInt parses an optional integer parameter bounded to [lo, hi]
func queryInt(r *http.Request, key string, def, lo, hi int, v *models.ValidationError) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		v.Add(key, "must be an integer between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
		return def
	}
	return n
}

// parseDate accepts RFC 3339 or YYYY-MM-DD in loc. A date-only end of range
// covers the whole day.
func parseDate(raw string, endOfDay bool, loc *time.Location) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// filterInput is the wire form of a mention filter with string dates
type filterInput struct {
	Sentiment string   `json:"sentiment"`
	Source    string   `json:"source"`
	Tags      []string `json:"tags"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
}

func (f filterInput) toFilter(loc *time.Location, prefix string, v *models.ValidationError) models.MentionFilter {
	var filter models.MentionFilter

	if f.Sentiment != "" {
		label := models.Sentiment(f.Sentiment)
		if !label.Valid() {
			v.Add(prefix+"sentiment", "must be one of positive, negative, neutral")
		} else {
			filter.Sentiment = &label
		}
	}
	filter.Source = strings.TrimSpace(f.Source)
	filter.Tags = models.NormalizeTags(f.Tags)

	if f.StartDate != "" {
		start, err := parseDate(f.StartDate, false, loc)
		if err != nil {
			v.Add(prefix+"startDate", "must be an RFC 3339 timestamp or YYYY-MM-DD")
		}
		filter.StartDate = start
	}
	if f.EndDate != "" {
		end, err := parseDate(f.EndDate, true, loc)
		if err != nil {
			v.Add(prefix+"endDate", "must be an RFC 3339 timestamp or YYYY-MM-DD")
		}
		filter.EndDate = end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		v.Add(prefix+"endDate", "must not be before startDate")
	}

	return filter
}

// mentionFilter reads the list filters of GET /mentions
func (s *Server) mentionFilter(r *http.Request) (models.MentionFilter, error) {
	q := r.URL.Query()
	v := &models.ValidationError{}

	var tags []string
	for _, raw := range q["tags"] {
		tags = append(tags, strings.Split(raw, ",")...)
	}

	filter := filterInput{
		Sentiment: q.Get("sentiment"),
		Source:    q.Get("source"),
		Tags:      tags,
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}.toFilter(s.config.Location(), "", v)

	filter.Limit = queryInt(r, "limit", 0, 1, maxLimit, v)
	filter.Offset = queryInt(r, "offset", 0, 0, math.MaxInt32, v)

	return filter, v.OrNil()
}
