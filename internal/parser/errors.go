package parser

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes parse failures.
type ErrorCode string

const (
	// ErrCodeUnsupportedConditional marks a line with a comma: multiple
	// constraints or markers on one dependency.
	ErrCodeUnsupportedConditional ErrorCode = "UNSUPPORTED_CONDITIONAL"

	// ErrCodeInvalidSyntax marks a line that matches neither production.
	ErrCodeInvalidSyntax ErrorCode = "INVALID_SYNTAX"
)

// ParseError describes why a specification line was rejected.
type ParseError struct {
	Code    ErrorCode
	Input   string
	Pos     int // byte offset into Input, -1 when not tied to a position
	Message string
}

func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s: %q at column %d: %s", e.Code, e.Input, e.Pos+1, e.Message)
	}
	return fmt.Sprintf("%s: %q: %s", e.Code, e.Input, e.Message)
}

func syntaxError(input string, pos int, format string, args ...any) *ParseError {
	return &ParseError{
		Code:    ErrCodeInvalidSyntax,
		Input:   input,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsUnsupportedConditional returns true if err is a comma rejection.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedConditional(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeUnsupportedConditional
	}
	return false
}

// IsParseError returns true if err is any ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
