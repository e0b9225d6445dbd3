package models

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input is malformed or incomplete
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field error
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// OrNil returns e when it carries errors, nil otherwise
func (e *ValidationError) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError with a single field error
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Validate checks the invariants of a mention about to be stored.
// A sentiment without a score is rejected rather than defaulted.
func (m *Mention) Validate() error {
	v := &ValidationError{}

	if strings.TrimSpace(m.Content) == "" {
		v.Add("content", "is required")
	}
	if strings.TrimSpace(m.Source) == "" {
		v.Add("source", "is required")
	}
	if m.PublishedAt.IsZero() {
		v.Add("publishedAt", "is required")
	}

	switch {
	case m.Sentiment != nil && !m.Sentiment.Valid():
		v.Add("sentiment", "must be one of positive, negative, neutral")
	case m.Sentiment != nil && m.SentimentScore == nil:
		v.Add("sentimentScore", "is required when sentiment is set")
	case m.Sentiment == nil && m.SentimentScore != nil:
		v.Add("sentimentScore", "must be omitted when sentiment is not set")
	}

	if m.SentimentScore != nil && (*m.SentimentScore < 0 || *m.SentimentScore > 1) {
		v.Add("sentimentScore", "must be between 0 and 1")
	}

	return v.OrNil()
}
