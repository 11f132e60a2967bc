package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a fatal error detected while processing a run.
//
// Runtime errors include:
//   - Spec syntax: a manifest entry does not parse
//   - Environment query: the builtins or frozen listing cannot be obtained
//   - Invalid transition: a request would be resolved twice
//
// Per-dependency install failures are not runtime errors; they are recorded
// on the request and the run continues.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run, when one was started.
	RunID string

	// Entry is the 1-based manifest position, or 0 when not tied to one.
	Entry int

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeSpecSyntax indicates a manifest entry failed to parse.
	ErrCodeSpecSyntax RuntimeErrorCode = "SPEC_SYNTAX"

	// ErrCodeEnvironmentQuery indicates a required environment query failed.
	ErrCodeEnvironmentQuery RuntimeErrorCode = "ENVIRONMENT_QUERY"

	// ErrCodeInvalidTransition indicates an illegal request state change.
	ErrCodeInvalidTransition RuntimeErrorCode = "INVALID_TRANSITION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Entry > 0 {
		msg = fmt.Sprintf("%s: entry %d: %s", e.Code, e.Entry, e.Message)
	}
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsSpecSyntaxError returns true if err is a manifest parse failure.
// Uses errors.As to handle wrapped errors.
func IsSpecSyntaxError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeSpecSyntax
	}
	return false
}

// IsEnvironmentQueryError returns true if err is a failed environment query.
// Uses errors.As to handle wrapped errors.
func IsEnvironmentQueryError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeEnvironmentQuery
	}
	return false
}

// NewSpecSyntaxError creates a RuntimeError for an unparsable entry.
func NewSpecSyntaxError(entry int, text string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeSpecSyntax,
		Message: fmt.Sprintf("cannot parse %q", text),
		Entry:   entry,
		Err:     err,
	}
}

// NewEnvironmentQueryError creates a RuntimeError for a failed query.
func NewEnvironmentQueryError(runID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeEnvironmentQuery,
		Message: "environment query failed",
		RunID:   runID,
		Err:     err,
	}
}
