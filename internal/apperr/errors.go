// Package apperr classifies the failures the client core surfaces to users.
package apperr

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the backend rejects the session token
var ErrUnauthorized = errors.New("session expired or missing, please log in again")

// ValidationError is bad local input. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransientError is a transport-level failure: timeouts, refused connections,
// 5xx responses and open circuits. Callers may retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// RejectionError is an explicit failure answered by the backend.
// Message is surfaced verbatim and the attempt is not retried.
type RejectionError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransient reports whether err is, or wraps, a TransientError
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsRejection reports whether err is, or wraps, a RejectionError
func IsRejection(err error) bool {
	var r *RejectionError
	return errors.As(err, &r)
}

// Message returns the text a user should see for err
func Message(err error) string {
	var r *RejectionError
	if errors.As(err, &r) {
		return r.Message
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	return err.Error()
}
