// Package errors provides typed errors for the application
package errors

import "errors"

// ErrorType represents the type of error
type ErrorType int

const (
	ErrorTypeValidation ErrorType = iota
	ErrorTypeNotFound
	ErrorTypeInternal
)

// Typed is implemented by every error that carries an ErrorType,
// including domain error structs defined outside this package
type Typed interface {
	error
	ErrorType() ErrorType
}

// baseError is the base implementation for all error types
type baseError struct {
	msg string
}

func (e *baseError) Error() string {
	return e.msg
}

// ValidationError represents a validation error (400)
type ValidationError struct {
	baseError
}

// NewValidationError creates a new ValidationError
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{baseError{msg: msg}}
}

// ErrorType implements Typed
func (e *ValidationError) ErrorType() ErrorType { return ErrorTypeValidation }

// NotFoundError represents a not found error (404)
type NotFoundError struct {
	baseError
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{baseError{msg: msg}}
}

// ErrorType implements Typed
func (e *NotFoundError) ErrorType() ErrorType { return ErrorTypeNotFound }

// InternalError represents an internal server error (500)
type InternalError struct {
	baseError
}

// NewInternalError creates a new InternalError
func NewInternalError(msg string) *InternalError {
	return &InternalError{baseError{msg: msg}}
}

// ErrorType implements Typed
func (e *InternalError) ErrorType() ErrorType { return ErrorTypeInternal }

// TypeOf returns the ErrorType of the first typed error in err's chain.
// Untyped errors are reported as internal.
func TypeOf(err error) ErrorType {
	var typed Typed
	if errors.As(err, &typed) {
		return typed.ErrorType()
	}
	return ErrorTypeInternal
}

// IsValidationError checks if error is a ValidationError
func IsValidationError(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeValidation
}

// IsNotFoundError checks if error is a NotFoundError
func IsNotFoundError(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeNotFound
}
