package http

import (
	"encoding/json"
	"net/http"

	"payroll/internal/core"
	applog "payroll/internal/log"
)

type successBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// KindRateLimited tags 429 responses; it never leaves the HTTP layer.
const KindRateLimited = "rate_limited"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successBody{Success: true, Data: data})
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusUnprocessableEntity
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes the error envelope. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusForKind(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	logger := applog.FromContext(r.Context())
	fields := applog.NewFields().
		WithError(err).
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "")
	fields[applog.FieldErrorKind] = string(kind)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}

	writeJSON(w, status, errorBody{Success: false, Error: msg, Kind: string(kind)})
}

func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Success: false,
		Error:   "rate limit exceeded, try again later",
		Kind:    KindRateLimited,
	})
}
