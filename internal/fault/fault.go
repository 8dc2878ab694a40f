// Package fault provides the error kinds shared across the sensemaker core.
//
// Lookups report a missing entity as a nil value with a nil error. The codes
// below are reserved for failures: data that exists but cannot be used, a
// computation that has no defined result, or a write the ledger rejected.
package fault

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidReference Code = "INVALID_REFERENCE"
	CodeTypeMismatch     Code = "TYPE_MISMATCH"
	CodeComputation      Code = "COMPUTATION"
	CodeWriteFailure     Code = "WRITE_FAILURE"
	CodeInvalidInput     Code = "INVALID_INPUT"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Additional context, e.g. the offending address
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// With returns a copy of e carrying an extra metadata pair.
func (e *Error) With(key, value string) *Error {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	cp := *e
	cp.Metadata = md
	return &cp
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound         = New(CodeNotFound, "not found")
	ErrInvalidReference = New(CodeInvalidReference, "invalid reference")
	ErrTypeMismatch     = New(CodeTypeMismatch, "type mismatch")
	ErrComputation      = New(CodeComputation, "computation error")
	ErrWriteFailure     = New(CodeWriteFailure, "write failure")
	ErrInvalidInput     = New(CodeInvalidInput, "invalid input")
)

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeUnknown
}

// Write wraps a failed ledger write. Errors that already carry a code keep it.
func Write(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var fe *Error
	if errors.As(cause, &fe) {
		return cause
	}
	return Wrap(CodeWriteFailure, op, cause)
}
