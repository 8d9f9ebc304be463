// Package common defines shared constants and sentinel errors used across
// the Discograph auth service. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Configuration errors.
	ErrInvalidSecret = errors.New("invalid secret")

	// Session token errors. All four map to the same uniform "invalid
	// session" response at the HTTP layer; they stay distinct internally
	// for logging.
	ErrMalformedToken       = errors.New("malformed token")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTokenExpired         = errors.New("token expired")

	// Lockout errors.
	ErrAccountLocked = errors.New("account locked")
)
