package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposure(t *testing.T) {
	CollectRuns.Inc()
	MentionsCollected.Add(3)
	DuplicatesSkipped.Inc()
	ReportsGenerated.Inc()
	ObserveRequest("/api/mentions", http.MethodGet, http.StatusOK)
	ObserveClassification(time.Now().Add(-1500*time.Millisecond), nil)
	ObserveClassification(time.Now(), errors.New("timeout"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, m := range []string{
		"mentions_http_requests_total",
		"mentions_collect_runs_total",
		"mentions_collected_total",
		"mentions_duplicates_skipped_total",
		"mentions_classifications_total",
		"mentions_classification_duration_seconds",
		"mentions_reports_generated_total",
	} {
		assert.Contains(t, body, m)
	}
}

func TestObserveClassification_Outcomes(t *testing.T) {
	before := testutil.ToFloat64(Classifications.WithLabelValues("error"))
	ObserveClassification(time.Now(), errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(Classifications.WithLabelValues("error")))

	before = testutil.ToFloat64(Classifications.WithLabelValues("success"))
	ObserveClassification(time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(Classifications.WithLabelValues("success")))
}
