package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"payroll/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from the query, defaulting each
// missing value to the current month. A value that is not a number is a
// validation error; range checks are left to the month window.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.Validation("parse month", "year %q is not a number", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.Validation("parse month", "month %q is not a number", v)
		}
		params.Month = m
	}
	return params, nil
}

// ParseLimit reads ?limit=; absent means 0, which callers treat as the default.
func ParseLimit(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Validation("parse limit", "limit %q is not a number", v)
	}
	return n, nil
}

// ParseBoolParam reads a boolean query flag such as ?active=true.
func ParseBoolParam(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, core.Validation("parse "+key, "%s %q is not a boolean", key, v)
	}
	return b, nil
}

// decodeJSON reads one JSON object into dst, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.Validation("decode body", "request body is empty")
		case errors.As(err, &maxErr):
			return core.Validation("decode body", "request body exceeds %d bytes", maxErr.Limit)
		default:
			return core.Validation("decode body", "malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return core.Validation("decode body", "request body must hold a single JSON object")
	}
	return nil
}

// pathDate parses the {date} path segment.
func pathDate(r *http.Request) (core.Date, error) {
	raw := r.PathValue("date")
	if raw == "" {
		return core.Date{}, core.Validation("parse date", "missing date")
	}
	return core.ParseDate(raw)
}

func queryDate(query url.Values) (core.Date, error) {
	raw := strings.TrimSpace(query.Get("date"))
	if raw == "" {
		return core.Date{}, core.Validation("parse date", "query parameter date is required")
	}
	return core.ParseDate(raw)
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
