// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99)
//   - Validation errors (100-199): invalid parameters and configuration
//   - Store errors (200-299): table lookup, query, import and export failures
//   - Signal errors (300-399): prediction selection and cross-section assembly
//   - Rebalance errors (400-499): execution sink failures
//   - Replay errors (500-599): lifecycle callback failures
//   - Filing errors (600-699): section extraction and tokenization
//   - Phrase errors (700-799): n-gram corpus handling
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeTableNotFound, "table %s not found", key)
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to load prices", cause)
//	if errors.HasCode(err, errors.ErrCodeTableNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Cause: nil}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: nil}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps an existing error with a code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join is errors.Join re-exported so callers only need this package.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// GetCode extracts the ErrorCode from err. Typed errors report their own code.
// Returns ErrCodeUnknown when err carries no code.
func GetCode(err error) ErrorCode {
	var coded interface{ ErrorCode() ErrorCode }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}

	return ErrCodeUnknown
}

// ErrorCode lets *Error satisfy the coded interface used by GetCode.
func (e *Error) ErrorCode() ErrorCode {
	return e.Code
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
