// Package session owns the credential lifecycle of the TripWell API client:
// bearer-token injection, the single silent refresh-and-retry on 401, and the
// signals other components subscribe to when authentication state changes.
package session

import "errors"

var (
	// ErrNoCredentials indicates an operation needed a stored credential
	// pair and none was present.
	ErrNoCredentials = errors.New("session: no credentials stored")
	// ErrRefreshFailed indicates the refresh endpoint answered without a
	// usable token pair.
	ErrRefreshFailed = errors.New("session: token refresh failed")
	// ErrMissingTokenPair indicates a login or registration response did
	// not carry both tokens.
	ErrMissingTokenPair = errors.New("session: response missing token pair")
	// ErrInvalidRequest indicates a request descriptor is missing its
	// method or path.
	ErrInvalidRequest = errors.New("session: invalid request descriptor")
	// ErrMissingInput signals empty login or registration fields.
	ErrMissingInput = errors.New("session: required input is empty")
)
