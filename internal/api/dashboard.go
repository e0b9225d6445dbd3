package api

import (
	"net/http"

	"github.com/azure/mentions-dashboard/internal/models"
)

func (s *Server) dashboardMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.aggregator.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) sentimentTrend(w http.ResponseWriter, r *http.Request) {
	v := &models.ValidationError{}
	days := queryInt(r, "days", s.config.TrendDays, 1, maxTrendDays, v)
	if err := v.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	trend, err := s.aggregator.SentimentTrend(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) sourceVolume(w http.ResponseWriter, r *http.Request) {
	volume, err := s.aggregator.SourceVolume(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, volume)
}
