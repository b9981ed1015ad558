package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized marks responses rejected with HTTP 401. Error values
// produced by this package wrap it so callers can test with errors.Is.
var ErrUnauthorized = errors.New("api: unauthorized")

// Error is a non-2xx response translated into a Go error. Message holds the
// server's user-facing message from the envelope when one was present.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed with status %d", e.StatusCode)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsUnauthorized reports whether err represents an HTTP 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsValidation reports whether err is a 4xx response other than 401. The
// server uses these for user-correctable failures (bad credentials,
// duplicate favourite) and their messages are safe to surface verbatim.
func IsValidation(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusUnauthorized
}

// StatusOf extracts the HTTP status from err, or 0 when err did not come
// from a completed HTTP exchange (transport failure, context cancellation).
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
