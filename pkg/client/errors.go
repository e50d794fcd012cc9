package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents a non-2xx response from the API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int
	// Code is the machine-readable error code, when the server sent one.
	Code string
	// Message is the server's explanation, or a generic phrase for the
	// operation when the body had none.
	Message string
	// Details holds per-field validation messages.
	Details map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ticketflow: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401, which means the token was
// rejected or has expired.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// newAPIError understands both the structured envelope
// {"error":{"code","message","details"}} and a bare {"error":"text"}.
func newAPIError(status int, body []byte, fallback string) *APIError {
	apiErr := &APIError{StatusCode: status, Message: fallback}

	var raw struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || len(raw.Error) == 0 {
		return apiErr
	}

	var structured struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}
	if err := json.Unmarshal(raw.Error, &structured); err == nil {
		apiErr.Code = structured.Code
		apiErr.Details = structured.Details
		if strings.TrimSpace(structured.Message) != "" {
			apiErr.Message = structured.Message
		}
		return apiErr
	}

	var text string
	if err := json.Unmarshal(raw.Error, &text); err == nil && strings.TrimSpace(text) != "" {
		apiErr.Message = text
	}
	return apiErr
}
