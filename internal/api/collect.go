package api

import (
	"net/http"

	"github.com/azure/mentions-dashboard/internal/models"
)

type collectInput struct {
	Queries []string `json:"queries"`
}

type previewInput struct {
	Query string `json:"query"`
}

// collect runs the synthesizer for the given or active queries and stores new mentions
func (s *Server) collect(w http.ResponseWriter, r *http.Request) {
	var in collectInput
	if err := decodeJSON(w, r, &in, true); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.monitoring.Collect(r.Context(), in.Queries)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Collection finished",
		"collected":  result.Collected,
		"duplicates": result.Duplicates,
		"queries":    result.Queries,
		"mentions":   result.Mentions,
	})
}

func (s *Server) searchPreview(w http.ResponseWriter, r *http.Request) {
	var in previewInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}

	drafts, err := s.monitoring.Preview(r.Context(), in.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if drafts == nil {
		drafts = []models.MentionDraft{}
	}
	writeJSON(w, http.StatusOK, drafts)
}
