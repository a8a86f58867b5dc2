package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrForbidden
	ErrConflict
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Field    string    `json:"field,omitempty"`
	Location string    `json:"location,omitempty"`
	Err      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status for the boundary.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Field:   resource,
		Err:     err,
	}
}

func NotFoundMsg(message, field string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: message,
		Field:   field,
	}
}

func Validation(message, field string) *AppError {
	return &AppError{
		Code:     ErrValidation,
		Message:  message,
		Field:    field,
		Location: "body",
	}
}

func Forbidden(message, field string) *AppError {
	return &AppError{
		Code:     ErrForbidden,
		Message:  message,
		Field:    field,
		Location: "authorization",
	}
}

func Conflict(message, field string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Field:   field,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Kind checks

func IsNotFound(err error) bool     { return hasCode(err, ErrNotFound) }
func IsValidation(err error) bool   { return hasCode(err, ErrValidation) }
func IsForbidden(err error) bool    { return hasCode(err, ErrForbidden) }
func IsConflict(err error) bool     { return hasCode(err, ErrConflict) }
func IsUnauthorized(err error) bool { return hasCode(err, ErrUnauthorized) }

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
