package models

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML element from s and trims surrounding space.
// Entities escaped by the policy are decoded again since mentions are stored
// as plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// SanitizeOptional applies SanitizeText to a non-nil pointer, dropping it when empty
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
