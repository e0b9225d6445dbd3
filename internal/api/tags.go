package api

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/azure/mentions-dashboard/internal/models"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

const maxTagName = 50

type tagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func validateTagName(name string, v *models.ValidationError) {
	switch {
	case name == "":
		v.Add("name", "is required")
	case len(name) > maxTagName:
		v.Add("name", "must not exceed 50 characters")
	}
}

func validateTagColor(color string, v *models.ValidationError) {
	if !hexColor.MatchString(color) {
		v.Add("color", "must be a hex color like #3B82F6")
	}
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var in tagInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}

	v := &models.ValidationError{}
	name := strings.TrimSpace(in.Name)
	validateTagName(name, v)
	color := strings.TrimSpace(in.Color)
	if color != "" {
		validateTagColor(color, v)
	}
	if err := v.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	tag, err := s.store.CreateTag(r.Context(), name, color)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) updateTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.TagPatch
	if err := decodeJSON(w, r, &patch, true); err != nil {
		writeError(w, r, err)
		return
	}

	v := &models.ValidationError{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		validateTagName(name, v)
		patch.Name = &name
	}
	if patch.Color != nil {
		validateTagColor(*patch.Color, v)
	}
	if err := v.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	tag, err := s.store.UpdateTag(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, orNotFound(err, "tag", id))
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := s.store.DeleteTag(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, notFound("tag", id))
		return
	}
	writeMessage(w, http.StatusOK, "tag deleted")
}
