package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's error taxonomy.
var (
	// ErrNotFound indicates that a requested entity does not exist. For
	// source lookups this is usually expressed as a zero EnrichmentResult
	// instead; the sentinel is used by stores and id lookups.
	ErrNotFound = errors.New("not found")

	// ErrSourceUnavailable indicates that an external source could not be
	// reached (network error, timeout, 5xx). Distinct from "no record":
	// papers hit by it stay eligible for later tiers and later runs.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedResponse indicates an unexpected payload shape. Treated
	// like ErrSourceUnavailable for retry purposes.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrConfiguration indicates missing or invalid configuration at
	// startup. Fatal: no tier runs after it.
	ErrConfiguration = errors.New("invalid configuration")
)

// NotFoundError provides details about a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ExternalAPIError provides details about a failed external API call.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Source, e.Message)
}

// Unwrap returns ErrSourceUnavailable so callers can classify retryable
// failures with errors.Is without inspecting the concrete type.
func (e *ExternalAPIError) Unwrap() error {
	return ErrSourceUnavailable
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{Source: source, StatusCode: statusCode, Message: message, Cause: cause}
}

// MalformedResponseError indicates a payload that could not be interpreted.
type MalformedResponseError struct {
	Source  string
	Message string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s returned malformed response: %s", e.Source, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

// NewMalformedResponseError creates a new MalformedResponseError.
func NewMalformedResponseError(source, message string, cause error) *MalformedResponseError {
	return &MalformedResponseError{Source: source, Message: message, Cause: cause}
}

// IsRetryable reports whether an error represents a transient failure that
// batch-level retry may recover from.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrMalformedResponse)
}
