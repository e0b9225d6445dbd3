package api

import (
	"net/http"
	"time"

	"github.com/azure/mentions-dashboard/internal/analytics"
	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/metrics"
	"github.com/azure/mentions-dashboard/internal/monitoring"
	"github.com/azure/mentions-dashboard/internal/storage"
	"github.com/gorilla/mux"
)

// Server exposes the dashboard REST API
type Server struct {
	config     *config.Config
	store      storage.Storage
	monitoring *monitoring.Service
	aggregator *analytics.Aggregator
	now        func() time.Time
}

// NewServer creates the API server over store and the monitoring service
func NewServer(cfg *config.Config, store storage.Storage, monitoringService *monitoring.Service) *Server {
	return &Server{
		config:     cfg,
		store:      store,
		monitoring: monitoringService,
		aggregator: monitoringService.Aggregator(),
		now:        time.Now,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	setFallbacks(router)
	router.Use(recoverPanic, requestID, logRequest, observeRequest)

	// Health check and Prometheus endpoints
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	setFallbacks(api)
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api.HandleFunc("/mentions", s.listMentions).Methods(http.MethodGet)
	api.HandleFunc("/mentions", s.createMention).Methods(http.MethodPost)
	api.HandleFunc("/mentions/recent", s.recentMentions).Methods(http.MethodGet)
	api.HandleFunc("/mentions/analyze-batch", s.analyzeBatch).Methods(http.MethodPost)
	api.HandleFunc("/mentions/{id:[0-9]+}", s.getMention).Methods(http.MethodGet)
	api.HandleFunc("/mentions/{id:[0-9]+}", s.updateMention).Methods(http.MethodPatch)
	api.HandleFunc("/mentions/{id:[0-9]+}", s.deleteMention).Methods(http.MethodDelete)
	api.HandleFunc("/mentions/{id:[0-9]+}/analyze", s.analyzeMention).Methods(http.MethodPost)
	api.HandleFunc("/mentions/{id:[0-9]+}/suggest-tags", s.suggestTags).Methods(http.MethodPost)

	api.HandleFunc("/tags", s.listTags).Methods(http.MethodGet)
	api.HandleFunc("/tags", s.createTag).Methods(http.MethodPost)
	api.HandleFunc("/tags/{id:[0-9]+}", s.updateTag).Methods(http.MethodPatch)
	api.HandleFunc("/tags/{id:[0-9]+}", s.deleteTag).Methods(http.MethodDelete)

	api.HandleFunc("/search-queries", s.listSearchQueries).Methods(http.MethodGet)
	api.HandleFunc("/search-queries", s.createSearchQuery).Methods(http.MethodPost)
	api.HandleFunc("/search-queries/{id:[0-9]+}", s.updateSearchQuery).Methods(http.MethodPatch)
	api.HandleFunc("/search-queries/{id:[0-9]+}", s.deleteSearchQuery).Methods(http.MethodDelete)

	api.HandleFunc("/collect", s.collect).Methods(http.MethodPost)
	api.HandleFunc("/search-preview", s.searchPreview).Methods(http.MethodPost)

	api.HandleFunc("/dashboard/metrics", s.dashboardMetrics).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/sentiment-trend", s.sentimentTrend).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/source-volume", s.sourceVolume).Methods(http.MethodGet)

	api.HandleFunc("/reports", s.listReports).Methods(http.MethodGet)
	api.HandleFunc("/reports/generate", s.generateReport).Methods(http.MethodPost)
	api.HandleFunc("/reports/{id:[0-9]+}", s.getReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id:[0-9]+}", s.deleteReport).Methods(http.MethodDelete)

	return router
}

// setFallbacks answers unmatched paths and methods with JSON. Subrouters need
// their own handlers or a method mismatch under them surfaces as a 404.
func setFallbacks(router *mux.Router) {
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   s.now().UTC().Format(time.RFC3339),
		"lastCollect": s.monitoring.GetStats(),
	})
}
