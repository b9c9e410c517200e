package providers

import (
	"errors"
	"fmt"
	"strings"
)

// NotConfiguredError indicates that a provider name has no descriptor in the
// registry. This is a caller error.
type NotConfiguredError struct {
	Provider string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("provider %q not configured", e.Provider)
}

// NotImplementedError indicates that a provider is declared in configuration
// but no adapter is registered for it. This is a deployment error.
type NotImplementedError struct {
	Provider string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("provider %q not implemented or not enabled", e.Provider)
}

// BackendError indicates that a specific backend call failed: transport
// error, timeout, non-success status or malformed payload. It always carries
// the provider name and the underlying cause.
type BackendError struct {
	Provider   string
	Message    string
	StatusCode int
	Cause      error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("provider %q: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError creates a BackendError for the given provider
func NewBackendError(provider, message string, statusCode int, cause error) *BackendError {
	return &BackendError{
		Provider:   provider,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// Attempt records one failed provider invocation inside a dispatch.
type Attempt struct {
	Provider string
	Err      error
}

// AllFailedError is the terminal dispatch failure: the primary provider and
// every attempted fallback failed. Attempts preserves the order in which
// providers were tried, each with its cause.
type AllFailedError struct {
	Attempts []Attempt
}

func (e *AllFailedError) Error() string {
	names := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		names[i] = a.Provider
	}
	return fmt.Sprintf("all providers failed: %s", strings.Join(names, ", "))
}

// Error type checking helpers

// IsNotConfigured checks if an error is a NotConfiguredError
func IsNotConfigured(err error) bool {
	var e *NotConfiguredError
	return errors.As(err, &e)
}

// IsNotImplemented checks if an error is a NotImplementedError
func IsNotImplemented(err error) bool {
	var e *NotImplementedError
	return errors.As(err, &e)
}

// IsBackendError checks if an error is a BackendError
func IsBackendError(err error) bool {
	var e *BackendError
	return errors.As(err, &e)
}

// IsAllFailed checks if an error is an AllFailedError
func IsAllFailed(err error) bool {
	var e *AllFailedError
	return errors.As(err, &e)
}
