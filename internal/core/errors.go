// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrEmptySeries  = &Error{Code: "EMPTY_SERIES", Message: "price series is empty"}
	ErrNoData       = &Error{Code: "NO_DATA", Message: "no usable data available"}
	ErrBadInput     = &Error{Code: "BAD_INPUT", Message: "malformed input record"}
	ErrUnknownField = &Error{Code: "UNKNOWN_FIELD", Message: "unknown indicator or column"}

	// Simulation errors
	ErrNoCandidates = &Error{Code: "NO_CANDIDATES", Message: "no trade candidates generated"}
	ErrBadPolicy    = &Error{Code: "BAD_POLICY", Message: "exit policy misconfigured"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "result storage operation failed"}

	// Analyst errors
	ErrAnalystFailed = &Error{Code: "ANALYST_FAILED", Message: "LLM commentary request failed"}
)
