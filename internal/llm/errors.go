package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the provider name ("ollama", "gemini").
	Provider string
	// StatusCode is the HTTP status code, or 0 for network errors.
	StatusCode int
	// Message is the error message from the API.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient reports whether a retry may succeed: rate limiting (429),
// server errors (5xx), and network errors (no HTTP response at all).
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// isTransientError classifies arbitrary errors for the retry loops.
func isTransientError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsTransient()
	}
	return false
}
