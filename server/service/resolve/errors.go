package resolve

import (
	"github.com/pkg/errors"

	"github.com/hrygo/timexkit/plugin/timex"
)

var (
	// ErrInvalidRequest is returned for requests that cannot be turned into a resolution
	// context (bad reference, timezone, policy, ...).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidFilter is returned when a CEL filter does not compile to a boolean.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrHistoryDisabled is returned by History when no store is configured.
	ErrHistoryDisabled = errors.New("resolution history is disabled")
)

// Service level error codes, reported next to the timex codes.
const (
	CodeInvalidRequest timex.ErrorCode = "INVALID_REQUEST"
	CodeInvalidFilter  timex.ErrorCode = "INVALID_FILTER"
	CodeInternal       timex.ErrorCode = "INTERNAL"
)

// CodeOf classifies err for callers and metrics.
func CodeOf(err error) timex.ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidFilter):
		return CodeInvalidFilter
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	}
	return timex.CodeOf(err, CodeInternal)
}

func newItemError(text string, err error) *ItemError {
	return &ItemError{Timex: text, Code: CodeOf(err), Message: err.Error()}
}

func invalidRequest(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidRequest, format, args...)
}
