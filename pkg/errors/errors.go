// Package errors provides structured error types for pangenomerge.
//
// Errors carry a machine-readable [Code] so the CLI can decide how to report
// a failure and which failures abort a merge run. Low-level packages return
// sentinel errors; the merge engine wraps them at stage boundaries:
//
//	err := errors.Wrap(errors.ErrCodeRelabelCollision, cause, "relabel incoming graph %d", k)
//	if errors.Is(err, errors.ErrCodeRelabelCollision) {
//	    // abort the run
//	}
//
// # Error Codes
//
//   - INVALID_*: malformed input, configuration or graph files
//   - FILE_NOT_FOUND: a named input graph is missing
//   - ORACLE_FAILED: the external similarity search exited abnormally
//   - RELABEL_COLLISION, IDENTIFIER_CONFLICT: graph invariant violations
//   - METADATA_COMMIT: the per-iteration metadata transaction failed
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Merge errors
	ErrCodeOracleFailed       Code = "ORACLE_FAILED"
	ErrCodeRelabelCollision   Code = "RELABEL_COLLISION"
	ErrCodeIdentifierConflict Code = "IDENTIFIER_CONFLICT"
	ErrCodeMetadataCommit     Code = "METADATA_COMMIT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the chain contains no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err must abort a merge run. Only warnings that the
// engine records in its diagnostics report are recoverable; every coded error
// except INVALID_FORMAT on optional artifacts is treated as fatal.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeInvalidFormat:
		return false
	default:
		return true
	}
}
