package services

import (
	"strings"

	"github.com/depflow/depflow/internal/models"
)

// MapStatus translates a raw tracker status string into an internal
// dependency status. Matching is case-insensitive substring with a fixed
// precedence: a status containing both "done" and "block" resolves to
// completed. Always returns a value.
func MapStatus(raw string) string {
	s := strings.ToLower(raw)

	switch {
	case strings.Contains(s, "done"),
		strings.Contains(s, "complete"),
		strings.Contains(s, "resolved"):
		return models.StatusCompleted
	case strings.Contains(s, "block"):
		return models.StatusBlocked
	case strings.Contains(s, "risk"),
		strings.Contains(s, "impediment"):
		return models.StatusAtRisk
	default:
		return models.StatusInProgress
	}
}
