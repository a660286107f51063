// Package apperrors holds the error taxonomy every service returns and the
// HTTP layer classifies.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is implemented by every error that maps onto a response status.
type HTTPError interface {
	error
	StatusCode() int
	Name() string
}

type (
	// ValidationError carries per-field issues for a malformed payload.
	ValidationError struct {
		Message string
		Issues  map[string]string
	}

	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError is returned both for resources the caller does not own
	// and for resources that do not exist, so ownership checks do not leak
	// existence on their own.
	ForbiddenError struct {
		Message string
	}

	NotFoundError struct {
		Message string
	}

	ConflictError struct {
		Message string
	}
)

func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ConflictError) Error() string     { return e.Message }

func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ConflictError) StatusCode() int     { return http.StatusConflict }

func (e *ValidationError) Name() string   { return "ValidationError" }
func (e *UnauthorizedError) Name() string { return "UnauthorizedError" }
func (e *ForbiddenError) Name() string    { return "ForbiddenError" }
func (e *NotFoundError) Name() string     { return "NotFoundError" }
func (e *ConflictError) Name() string     { return "ConflictError" }

func Validation(issues map[string]string) *ValidationError {
	return &ValidationError{Message: "invalid request", Issues: issues}
}

func Unauthorized(format string, args ...any) *UnauthorizedError {
	return &UnauthorizedError{Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *ForbiddenError {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// Classify finds the first HTTPError in err's chain. Anything else is an
// internal error.
func Classify(err error) (HTTPError, bool) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsForbidden(err error) bool {
	var fb *ForbiddenError
	return errors.As(err, &fb)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
