package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeValidation      ErrorCode = "VALIDATION"
	ErrCodeDuplicateEmail  ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrCodeInternal        ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
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

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid builds a field-level validation error.
func Invalid(message string) *Error {
	return NewError(ErrCodeValidation, message)
}

// Common domain errors.
var (
	ErrUserNotFound = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound = NewError(ErrCodeNotFound, "task not found")

	ErrDuplicateEmail = NewError(ErrCodeDuplicateEmail, "email already registered")

	// Login failures never reveal which credential was wrong.
	ErrInvalidCredentials = NewError(ErrCodeUnauthenticated, "invalid email or password")

	ErrUnauthenticated = NewError(ErrCodeUnauthenticated, "not authorized")
	ErrInvalidPayload  = NewError(ErrCodeValidation, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
