// Package resolve is the resolution facade shared by the HTTP and CLI hosts.
package resolve

import (
	"context"
	"time"

	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/plugin/timex/value"
	"github.com/hrygo/timexkit/store"
)

// TimexService defines the resolution service interface.
type TimexService interface {
	// Resolve resolves one mention (one expression or several alternatives of it).
	Resolve(ctx context.Context, req *Request) (*Response, error)

	// ResolveBatch resolves independent mentions concurrently. Items fail individually.
	ResolveBatch(ctx context.Context, reqs []*Request) ([]*BatchItem, error)

	// Normalize returns the canonical serialization of each expression.
	Normalize(ctx context.Context, texts []string) ([]string, error)

	// Merge applies a set operation to two groups of alternatives.
	Merge(ctx context.Context, op SetOp, a, b []string) ([]string, error)

	// Grammar describes the grammar version served.
	Grammar() GrammarInfo

	// History lists persisted resolutions, newest first.
	History(ctx context.Context, find *store.FindHistory) ([]*store.History, error)
}

// Request is one resolution request. Empty fields fall back to the service defaults.
type Request struct {
	// Timex holds one expression, or several alternative readings of the same mention.
	Timex []string `json:"timex" yaml:"timex"`
	// Reference is "now"; empty means the current time.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Timezone  string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	// Policy is past, future or nearest.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`
	// Direction is forward or backward and applies to bare durations.
	Direction    string `json:"direction,omitempty" yaml:"direction,omitempty"`
	SingleResult *bool  `json:"singleResult,omitempty" yaml:"singleResult,omitempty"`
	HorizonYears int    `json:"horizonYears,omitempty" yaml:"horizonYears,omitempty"`
	// RangeStart and RangeEnd set the reference range; both or neither.
	RangeStart string `json:"rangeStart,omitempty" yaml:"rangeStart,omitempty"`
	RangeEnd   string `json:"rangeEnd,omitempty" yaml:"rangeEnd,omitempty"`
	// Filter is a CEL predicate over each record; records it rejects are dropped.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`
	// Chronological orders records by start instead of by preference.
	Chronological bool `json:"chronological,omitempty" yaml:"chronological,omitempty"`
}

// Response is the outcome of one Request.
type Response struct {
	RequestID string         `json:"requestId" yaml:"requestId"`
	Reference time.Time      `json:"reference" yaml:"reference"`
	Records   []value.Record `json:"records" yaml:"records"`
	// Ambiguous is true when resolution produced more than one candidate, before any
	// filter or single-result truncation.
	Ambiguous bool `json:"ambiguous" yaml:"ambiguous"`
	// Candidates counts the resolved candidates on the same terms as Ambiguous.
	Candidates int `json:"candidates" yaml:"candidates"`
	// Errors lists alternatives that failed while others resolved.
	Errors     []ItemError `json:"errors,omitempty" yaml:"errors,omitempty"`
	HistoryUID string      `json:"historyUid,omitempty" yaml:"historyUid,omitempty"`
}

// ItemError describes one failed expression.
type ItemError struct {
	Timex   string          `json:"timex,omitempty" yaml:"timex,omitempty"`
	Code    timex.ErrorCode `json:"code" yaml:"code"`
	Message string          `json:"message" yaml:"message"`
}

// BatchItem is the outcome of one request of a batch: a response or an error.
type BatchItem struct {
	Response *Response  `json:"response,omitempty" yaml:"response,omitempty"`
	Error    *ItemError `json:"error,omitempty" yaml:"error,omitempty"`
}

// SetOp names a set operation for Merge.
type SetOp string

const (
	SetOpUnion     SetOp = "union"
	SetOpIntersect SetOp = "intersect"
	SetOpCombine   SetOp = "combine"
)

// GrammarInfo describes the served grammar.
type GrammarInfo struct {
	Version   string   `json:"version" yaml:"version"`
	Modifiers []string `json:"modifiers" yaml:"modifiers"`
	Policies  []string `json:"policies" yaml:"policies"`
	Types     []string `json:"types" yaml:"types"`
}
