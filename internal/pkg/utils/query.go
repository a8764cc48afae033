package utils

import (
	"net/http"
	"strconv"
	"time"
)

// DateLayout is the calendar-day format used by usage metrics and the
// analytics query parameters.
const DateLayout = "2006-01-02"

// MaxListLimit caps list endpoints that accept a limit parameter.
const MaxListLimit = 500

// ParseLimit reads a positive integer query parameter, falling back to def
// when it is absent, malformed or not positive. Values above MaxListLimit are
// clamped.
func ParseLimit(r *http.Request, key string, def int) int {
	limit := parseIntQuery(r.URL.Query().Get(key), def)
	if limit < 1 {
		return def
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ParseDate reads an optional YYYY-MM-DD query parameter.
func ParseDate(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIntQuery(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
