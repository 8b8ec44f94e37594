package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind classifies a failed backend call so callers can react to the
// class instead of pattern-matching message strings.
type ErrorKind string

const (
	// KindTransport covers failures before any HTTP response arrived
	// (connection refused, DNS, timeout).
	KindTransport ErrorKind = "TRANSPORT"
	// KindValidation covers 400/422 responses with field errors.
	KindValidation ErrorKind = "VALIDATION"
	// KindNotFound covers 404 responses.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindConflict covers 409 responses, which the backend uses for stale
	// optimistic-concurrency versions. Callers should prompt a reload.
	KindConflict ErrorKind = "CONFLICT"
	// KindBusiness covers every other non-2xx response.
	KindBusiness ErrorKind = "BUSINESS"
)

// APIError is a classified backend failure with a human-readable message
// assembled from whichever error envelope the backend used.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: %s: %s", e.Kind, e.Message)
}

// KindOf returns the error's kind, or empty when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// errorEnvelope matches the backend's structured error shapes. The backend
// sends either {statusCode, message}, {title, ...} or {errors: {field: [msgs]}};
// unknown bodies fall back to the raw text.
type errorEnvelope struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Title      string              `json:"title"`
	Errors     map[string][]string `json:"errors"`
}

// parseErrorBody flattens any of the three backend error shapes into one
// display string.
func parseErrorBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	// Plain JSON string bodies.
	var plain string
	if err := json.Unmarshal(body, &plain); err == nil {
		return plain
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return trimmed
	}

	parts := make([]string, 0, 2)
	if envelope.Message != "" {
		parts = append(parts, envelope.Message)
	} else if envelope.Title != "" {
		parts = append(parts, envelope.Title)
	}
	if len(envelope.Errors) > 0 {
		fields := make([]string, 0, len(envelope.Errors))
		for field := range envelope.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(envelope.Errors[field], "; ")))
		}
	}
	if len(parts) == 0 {
		return trimmed
	}
	return strings.Join(parts, "; ")
}

// classify maps an HTTP status to an error kind.
func classify(status int) ErrorKind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindBusiness
	}
}
