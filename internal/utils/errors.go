package utils

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected request parameter. Its message is safe to return to
// API clients.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message string, prefixed with the field when known.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError rejects a request without naming a parameter.
//
// Parameters:
//   - message: Client-safe text, returned verbatim in the 400 body.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewValidationErrorf is NewValidationError with fmt.Sprintf formatting.
//
// Parameters:
//   - format: Client-safe message template, e.g. "unsupported asset %q".
//   - args: Values substituted into format.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NewFieldError attributes a validation failure to a named parameter.
//
// Parameters:
//   - field: The request parameter that failed validation.
//   - cause: The parse or range error; only its text is kept.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewFieldError(field string, cause error) error {
	return &ValidationError{Field: field, Message: cause.Error()}
}

// IsValidationError reports whether err, or anything it wraps, is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
