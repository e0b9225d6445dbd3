package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/sentiment"
	"github.com/azure/mentions-dashboard/internal/storage"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every failed request
type errorResponse struct {
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Message: message})
}

// writeError maps domain errors onto HTTP status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *models.ValidationError
		cerr *sentiment.ClassificationError
		serr *storage.StorageError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "validation failed", Errors: verr.Errors})
	case errors.Is(err, storage.ErrTagExists):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "validation failed",
			Errors:  []models.FieldError{{Field: "name", Message: "already exists"}},
		})
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.As(err, &cerr):
		logrus.Errorf("[%s] %s %s: %v", requestIDFrom(r.Context()), r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, cerr.Error())
	case errors.As(err, &serr):
		logrus.Errorf("[%s] %s %s: %v", requestIDFrom(r.Context()), r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "storage failure")
	default:
		logrus.Errorf("[%s] %s %s: %v", requestIDFrom(r.Context()), r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d %w", kind, id, storage.ErrNotFound)
}

// decodeJSON reads a size-limited body into v, rejecting unknown fields.
// An empty body is an error unless allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.NewValidationError("body", "must not exceed 1 MiB")
		}
		if errors.Is(err, io.EOF) {
			return models.NewValidationError("body", "is required")
		}
		return models.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	if decoder.More() {
		return models.NewValidationError("body", "must contain a single JSON value")
	}
	return nil
}
