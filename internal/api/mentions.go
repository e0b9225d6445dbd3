package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/monitoring"
	"github.com/azure/mentions-dashboard/internal/storage"
)

// mentionInput is the create payload: a mention without id and collectedAt
type mentionInput struct {
	Content        string            `json:"content"`
	Source         string            `json:"source"`
	SourceURL      *string           `json:"sourceUrl"`
	Author         *string           `json:"author"`
	PublishedAt    *time.Time        `json:"publishedAt"`
	Sentiment      *models.Sentiment `json:"sentiment"`
	SentimentScore *float64          `json:"sentimentScore"`
	Tags           []string          `json:"tags"`
	IsProcessed    bool              `json:"isProcessed"`
	IsStarred      bool              `json:"isStarred"`
}

func (in mentionInput) toMention() *models.Mention {
	m := &models.Mention{
		Content:        in.Content,
		Source:         in.Source,
		SourceURL:      in.SourceURL,
		Author:         in.Author,
		Sentiment:      in.Sentiment,
		SentimentScore: in.SentimentScore,
		Tags:           in.Tags,
		IsProcessed:    in.IsProcessed,
		IsStarred:      in.IsStarred,
	}
	if in.PublishedAt != nil {
		m.PublishedAt = *in.PublishedAt
	}
	return m
}

type analyzeBatchInput struct {
	MentionIDs []int64 `json:"mentionIds"`
}

func orNotFound(err error, kind string, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(kind, id)
	}
	return err
}

func (s *Server) listMentions(w http.ResponseWriter, r *http.Request) {
	filter, err := s.mentionFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	mentions, err := s.store.ListMentions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mentions)
}

func (s *Server) recentMentions(w http.ResponseWriter, r *http.Request) {
	v := &models.ValidationError{}
	limit := queryInt(r, "limit", defaultRecentLimit, 1, maxLimit, v)
	if err := v.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	mentions, err := s.store.ListMentions(r.Context(), models.MentionFilter{Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mentions)
}

func (s *Server) getMention(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	mention, err := s.store.GetMention(r.Context(), id)
	if err != nil {
		writeError(w, r, orNotFound(err, "mention", id))
		return
	}
	writeJSON(w, http.StatusOK, mention)
}

func (s *Server) createMention(w http.ResponseWriter, r *http.Request) {
	var in mentionInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}

	mention, err := s.monitoring.CreateMention(r.Context(), in.toMention())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mention)
}

func (s *Server) updateMention(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.MentionPatch
	if err := decodeJSON(w, r, &patch, true); err != nil {
		writeError(w, r, err)
		return
	}

	mention, err := s.monitoring.UpdateMention(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, orNotFound(err, "mention", id))
		return
	}
	writeJSON(w, http.StatusOK, mention)
}

func (s *Server) deleteMention(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := s.store.DeleteMention(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, notFound("mention", id))
		return
	}
	writeMessage(w, http.StatusOK, "mention deleted")
}

func (s *Server) analyzeMention(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	mention, err := s.monitoring.AnalyzeMention(r.Context(), id)
	if err != nil {
		writeError(w, r, orNotFound(err, "mention", id))
		return
	}
	writeJSON(w, http.StatusOK, mention)
}

func (s *Server) analyzeBatch(w http.ResponseWriter, r *http.Request) {
	var in analyzeBatchInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	if len(in.MentionIDs) == 0 {
		writeError(w, r, models.NewValidationError("mentionIds", "must contain at least one id"))
		return
	}
	if len(in.MentionIDs) > maxLimit {
		writeError(w, r, models.NewValidationError("mentionIds", "must not contain more than 1000 ids"))
		return
	}

	outcomes, err := s.monitoring.AnalyzeBatch(r.Context(), in.MentionIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	analyzed := 0
	for _, o := range outcomes {
		if o.Status == monitoring.OutcomeAnalyzed {
			analyzed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analyzed": analyzed,
		"results":  outcomes,
	})
}

// suggestTags proposes tags for a mention without creating them
func (s *Server) suggestTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	suggestions, err := s.monitoring.SuggestTags(r.Context(), id)
	if err != nil {
		writeError(w, r, orNotFound(err, "mention", id))
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}
