package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/courseq/courseq/internal/errors"
)

// pathID parses a positive numeric path segment, e.g. {courseID}.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validationf("invalid %s", name)
	}
	return id, nil
}

// parseOptionalInt parses an optional numeric form field.
func parseOptionalInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// userLocation resolves the viewer's time zone, falling back to UTC.
func userLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		return time.UTC
	}
	return loc
}

// weekStart returns the Monday midnight opening the week containing now, in
// the given location, unless the week query parameter pins a different week.
func weekStart(r *http.Request, loc *time.Location, now time.Time) time.Time {
	if raw := r.URL.Query().Get("week"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
			return t
		}
	}
	local := now.In(loc)
	daysSinceMonday := (int(local.Weekday()) + 6) % 7
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -daysSinceMonday)
}

// parseLocalTime parses an HTML datetime-local value in the given location.
func parseLocalTime(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02T15:04", strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, apperrors.Validation("times must look like 2026-01-30T15:04")
	}
	return t, nil
}
