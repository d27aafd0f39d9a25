package grobid

import (
	"errors"
	"fmt"
)

// Common errors returned by the GROBID client.
var (
	// ErrUnavailable indicates the service did not answer its health check.
	ErrUnavailable = errors.New("GROBID service unavailable")

	// ErrNetworkError indicates a network connectivity issue or timeout.
	ErrNetworkError = errors.New("network error communicating with GROBID")

	// ErrInvalidResponse indicates an empty or unreadable response body.
	ErrInvalidResponse = errors.New("invalid response from GROBID")
)

// APIError represents a non-success HTTP status from GROBID.
type APIError struct {
	StatusCode int
	Message    string
	Path       string // PDF being processed, for context
}

func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("GROBID API error (status %d): %s (file: %s)", e.StatusCode, e.Message, e.Path)
	}
	return fmt.Sprintf("GROBID API error (status %d): %s", e.StatusCode, e.Message)
}

// IsUnavailable returns true if the error means the service cannot be used
// at all (down, overloaded), as opposed to a problem with one document.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 503
	}
	return false
}

// Kind names the failure class for the per-document error field.
func Kind(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return "APIError"
	case errors.Is(err, ErrNetworkError):
		return "NetworkError"
	case errors.Is(err, ErrInvalidResponse):
		return "InvalidResponse"
	case errors.Is(err, ErrUnavailable):
		return "Unavailable"
	default:
		return "Error"
	}
}
