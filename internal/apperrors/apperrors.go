// Package apperrors defines the expected, locally recoverable failure
// classes. Handlers and the socket layer classify with errors.Is and map to
// a status code or event; anything matching none of these is treated as an
// internal error and never surfaced verbatim.
package apperrors

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")

	// Auth failures, kept distinct so clients can tell an expired session
	// from a bad credential.
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrUserGone     = errors.New("user no longer exists")
)

// Error carries a client-facing message classified under one of the
// sentinel kinds. Error() returns only the message, so boundaries can send
// it to clients as-is while still classifying with errors.Is.
type Error struct {
	kind    error
	message string
}

func (e *Error) Error() string { return e.message }
func (e *Error) Unwrap() error { return e.kind }

func NotFound(message string) error  { return &Error{kind: ErrNotFound, message: message} }
func Forbidden(message string) error { return &Error{kind: ErrForbidden, message: message} }
func Conflict(message string) error  { return &Error{kind: ErrConflict, message: message} }

// IsAuthError reports whether err belongs to the credential failure class.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrUserGone)
}
