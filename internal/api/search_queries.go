package api

import (
	"net/http"
	"strings"

	"github.com/azure/mentions-dashboard/internal/models"
)

type searchQueryInput struct {
	Query    string `json:"query"`
	IsActive *bool  `json:"isActive"`
}

func (s *Server) listSearchQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := s.store.ListSearchQueries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

func (s *Server) createSearchQuery(w http.ResponseWriter, r *http.Request) {
	var in searchQueryInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		writeError(w, r, models.NewValidationError("query", "is required"))
		return
	}

	created, err := s.store.CreateSearchQuery(r.Context(), query, in.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateSearchQuery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.SearchQueryPatch
	if err := decodeJSON(w, r, &patch, true); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Query != nil {
		query := strings.TrimSpace(*patch.Query)
		if query == "" {
			writeError(w, r, models.NewValidationError("query", "must not be empty"))
			return
		}
		patch.Query = &query
	}

	updated, err := s.store.UpdateSearchQuery(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, orNotFound(err, "search query", id))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteSearchQuery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := s.store.DeleteSearchQuery(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, notFound("search query", id))
		return
	}
	writeMessage(w, http.StatusOK, "search query deleted")
}
