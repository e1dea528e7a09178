package timex

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of a TIMEX error.
type ErrorCode string

const (
	// ErrCodeMalformed indicates the text or field combination violates the grammar.
	ErrCodeMalformed ErrorCode = "MALFORMED_EXPRESSION"
	// ErrCodeIncompatible indicates two expressions of different kinds were combined.
	ErrCodeIncompatible ErrorCode = "INCOMPATIBLE_EXPRESSION"
	// ErrCodeInvalidDate indicates a fully specified date does not exist.
	ErrCodeInvalidDate ErrorCode = "INVALID_CALENDAR_DATE"
	// ErrCodeInvertedRange indicates a resolved end precedes its start.
	ErrCodeInvertedRange ErrorCode = "INVERTED_RANGE"
	// ErrCodeUnsupported indicates a field or modifier combination with no resolution rule.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_COMBINATION"
)

// Sentinel errors for errors.Is matching by code.
var (
	ErrMalformed     = &Error{Code: ErrCodeMalformed}
	ErrIncompatible  = &Error{Code: ErrCodeIncompatible}
	ErrInvalidDate   = &Error{Code: ErrCodeInvalidDate}
	ErrInvertedRange = &Error{Code: ErrCodeInvertedRange}
	ErrUnsupported   = &Error{Code: ErrCodeUnsupported}
)

// Error is the only error type returned by the TIMEX packages.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Malformed creates a MALFORMED_EXPRESSION error.
func Malformed(format string, args ...any) *Error {
	return &Error{Code: ErrCodeMalformed, Message: fmt.Sprintf(format, args...)}
}

// Incompatible creates an INCOMPATIBLE_EXPRESSION error.
func Incompatible(format string, args ...any) *Error {
	return &Error{Code: ErrCodeIncompatible, Message: fmt.Sprintf(format, args...)}
}

// InvalidDate creates an INVALID_CALENDAR_DATE error.
func InvalidDate(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidDate, Message: fmt.Sprintf(format, args...)}
}

// InvertedRange creates an INVERTED_RANGE error.
func InvertedRange(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvertedRange, Message: fmt.Sprintf(format, args...)}
}

// Unsupported creates an UNSUPPORTED_COMBINATION error.
func Unsupported(format string, args ...any) *Error {
	return &Error{Code: ErrCodeUnsupported, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is, or wraps, a TIMEX error with code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the error code from err, or def when err is not a TIMEX error.
func CodeOf(err error, def ErrorCode) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return def
}
