package api

import (
	"net/http"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/monitoring"
)

type reportInput struct {
	Title          string      `json:"title"`
	DateRange      string      `json:"dateRange"`
	Filters        filterInput `json:"filters"`
	IncludeSummary bool        `json:"includeSummary"`
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReports(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	var in reportInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}

	v := &models.ValidationError{}
	filters := in.Filters.toFilter(s.config.Location(), "filters.", v)
	if err := v.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.monitoring.GenerateReport(r.Context(), monitoring.ReportRequest{
		Title:          in.Title,
		DateRange:      in.DateRange,
		Filters:        filters,
		IncludeSummary: in.IncludeSummary,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, r, orNotFound(err, "report", id))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := s.store.DeleteReport(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, notFound("report", id))
		return
	}
	writeMessage(w, http.StatusOK, "report deleted")
}
