// apperrors/errors.go - typed errors carried from services to the HTTP layer
package apperrors

import "net/http"

// Error is a domain error with the HTTP status it maps to. Services return
// these; the Fiber error handler serializes them as
// {error: true, message, details?, status_code}.
type Error struct {
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// WithDetail attaches a field-level detail and returns the same error for
// chaining.
func (e *Error) WithDetail(field, msg string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[field] = msg
	return e
}

// Validation: malformed or missing input (400).
func Validation(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message}
}

// Unauthorized: bad credentials or an invalid/expired token (401).
func Unauthorized(message string) *Error {
	return &Error{StatusCode: http.StatusUnauthorized, Message: message}
}

// Forbidden: a valid user with an insufficient role (403).
func Forbidden(message string) *Error {
	return &Error{StatusCode: http.StatusForbidden, Message: message}
}

// NotFound: unknown id (404).
func NotFound(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Message: message}
}

// Conflict: duplicate unique field (409).
func Conflict(message string) *Error {
	return &Error{StatusCode: http.StatusConflict, Message: message}
}

// Internal: anything unexpected (500). The message shown to clients is
// replaced with a generic one in production by the error handler.
func Internal(message string) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Message: message}
}
