package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain lets adapters map it consistently to 404.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleMismatch signals that the backend authenticated the user but the
	// account's role differs from the role the login was attempted as. The
	// session must never be populated from such a response.
	ErrRoleMismatch = errors.New("account role does not match the selected role")
	// ErrUnavailable wraps transport-level failures (backend unreachable,
	// malformed envelope). Callers surface a generic retryable message and log
	// the underlying cause.
	ErrUnavailable = errors.New("service unavailable")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	ErrAccountLocked = errors.New("account locked")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict")
	ErrTokenExpired  = errors.New("token expired")
	ErrRateLimited   = errors.New("rate limited")
	// ErrLoginInFlight rejects re-entrant submission while a login request is
	// outstanding. Duplicate submits are refused, not queued.
	ErrLoginInFlight = errors.New("a login request is already in flight")
)
