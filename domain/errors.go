package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalid           ErrorCode = "INVALID"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeIntegrity         ErrorCode = "INTEGRITY"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Field names the offending
// input field for validation failures so callers can surface it.
type Error struct {
	Code    ErrorCode
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Message, e.Field)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewFieldError builds a domain error scoped to a specific input field.
func NewFieldError(code ErrorCode, message, field string) *Error {
	return &Error{Code: code, Message: message, Field: field}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrContributionNotFound   = NewError(ErrCodeNotFound, "contribution not found")
	ErrInvalidPayload         = NewError(ErrCodeInvalid, "invalid payload")
	ErrConcurrentModification = NewError(ErrCodeConflict, "contribution modified concurrently, re-fetch and retry")
	ErrCertificateAlreadySet  = NewError(ErrCodeInvalidTransition, "certificate already issued")
	ErrIntegrityViolation     = NewError(ErrCodeIntegrity, "certificate content hash mismatch")
	ErrUnauthorized           = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden              = NewError(ErrCodeForbidden, "operator role required")
)

// NewInvalidTransition describes a rejected lifecycle move.
func NewInvalidTransition(from State, to State) *Error {
	return NewError(ErrCodeInvalidTransition, fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
