// Package apierr defines the error taxonomy for the storefront data-access layer.
// Callers receive either a fully normalized success value or one of these typed
// failures, never a partial shape.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned by operations that require a session when no
// credential is present.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrAuthThrottled is returned when a fresh network authentication is attempted
// before the minimum interval between attempts has elapsed.
var ErrAuthThrottled = errors.New("authentication throttled")

// ValidationError reports malformed caller input, rejected before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NetworkError wraps a transport failure where no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// PayloadError reports a response body whose shape could not be normalized
// into a canonical type.
type PayloadError struct {
	What string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("payload: %s: unexpected shape", e.What)
}

// NewPayload creates a PayloadError for the named entity.
func NewPayload(what string) *PayloadError {
	return &PayloadError{What: what}
}

// AuthError reports a 401 response. It is always paired with the credential
// clearing side effect before it is surfaced.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPayload reports whether err is (or wraps) a PayloadError.
func IsPayload(err error) bool {
	var pe *PayloadError
	return errors.As(err, &pe)
}

// StatusCode extracts the HTTP status from err, or 0 if err carries none.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return http.StatusUnauthorized
	}
	return 0
}

// Retriable reports whether the failure is worth retrying: transport errors,
// 429, and 5xx responses. Auth and validation failures are never retriable.
func Retriable(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	switch code := StatusCode(err); {
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	}
	return false
}
