package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// makeCacheKey joins parts under prefix, skipping empty parts and escaping
// the separator.
func makeCacheKey(prefix string, parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(prefix) + len(parts)*16)
	builder.WriteString(prefix)
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

// parseDate accepts a calendar date or an RFC3339 timestamp and returns the
// UTC midnight of that day.
func parseDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation, field+" must be a date in YYYY-MM-DD format")
		}
		parsed = ts
	}
	parsed = parsed.UTC()
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

// checkID rejects identifiers that cannot name a stored row, so malformed
// path values read as missing instead of reaching the database.
func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return nil
}
