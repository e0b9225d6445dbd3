package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mentions_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	CollectRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mentions_collect_runs_total",
		Help: "Total collection runs",
	})
	MentionsCollected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mentions_collected_total",
		Help: "Total mentions persisted by collection runs",
	})
	DuplicatesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mentions_duplicates_skipped_total",
		Help: "Total synthesized mentions dropped as duplicates",
	})
	Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mentions_classifications_total",
		Help: "Total sentiment classification calls by outcome",
	}, []string{"outcome"})
	ClassificationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mentions_classification_duration_seconds",
		Help:    "Sentiment classification latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	ReportsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mentions_reports_generated_total",
		Help: "Total reports generated",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, CollectRuns, MentionsCollected, DuplicatesSkipped,
		Classifications, ClassificationDuration, ReportsGenerated)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest counts a served HTTP request
func ObserveRequest(route, method string, status int) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// ObserveClassification records the latency and outcome of a classifier call
func ObserveClassification(start time.Time, err error) {
	ClassificationDuration.Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	Classifications.WithLabelValues(outcome).Inc()
}
