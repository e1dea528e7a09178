package v1

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/server/service/resolve"
	"github.com/hrygo/timexkit/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Code    timex.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

type BatchRequest struct {
	Requests []*resolve.Request `json:"requests"`
}

type BatchResponse struct {
	Items []*resolve.BatchItem `json:"items"`
}

type NormalizeRequest struct {
	Timex []string `json:"timex"`
}

// NormalizeResponse holds the canonical forms in request order.
type NormalizeResponse struct {
	Timex []string `json:"timex"`
}

type MergeRequest struct {
	Op resolve.SetOp `json:"op"`
	A  []string      `json:"a"`
	B  []string      `json:"b"`
}

type MergeResponse struct {
	Timex []string `json:"timex"`
}

type HistoryEntry struct {
	UID        string          `json:"uid"`
	RequestID  string          `json:"requestId"`
	Timex      string          `json:"timex"`
	Reference  time.Time       `json:"reference"`
	Policy     string          `json:"policy"`
	Candidates int32           `json:"candidates"`
	ErrorCode  string          `json:"errorCode,omitempty"`
	Records    json.RawMessage `json:"records"`
	CreateTime time.Time       `json:"createTime"`
}

type ListHistoryResponse struct {
	Entries []*HistoryEntry `json:"entries"`
}

// ResolveTimex resolves one mention.
// POST /api/v1/timex/resolve
func (s *APIV1Service) ResolveTimex(c echo.Context) error {
	ctx := s.requestContext(c, resolve.OpResolve)
	req := &resolve.Request{}
	if err := c.Bind(req); err != nil {
		return s.errorJSON(c, errors.Wrap(resolve.ErrInvalidRequest, err.Error()))
	}
	resp, err := s.Service.Resolve(ctx, req)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// BatchResolveTimex resolves independent mentions; items fail individually.
// POST /api/v1/timex/batch
func (s *APIV1Service) BatchResolveTimex(c echo.Context) error {
	ctx := s.requestContext(c, resolve.OpBatch)
	req := &BatchRequest{}
	if err := c.Bind(req); err != nil {
		return s.errorJSON(c, errors.Wrap(resolve.ErrInvalidRequest, err.Error()))
	}
	items, err := s.Service.ResolveBatch(ctx, req.Requests)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, &BatchResponse{Items: items})
}

// NormalizeTimex returns canonical forms.
// POST /api/v1/timex/normalize
func (s *APIV1Service) NormalizeTimex(c echo.Context) error {
	ctx := s.requestContext(c, resolve.OpNormalize)
	req := &NormalizeRequest{}
	if err := c.Bind(req); err != nil {
		return s.errorJSON(c, errors.Wrap(resolve.ErrInvalidRequest, err.Error()))
	}
	if len(req.Timex) == 0 {
		return s.errorJSON(c, errors.Wrap(resolve.ErrInvalidRequest, "no timex given"))
	}
	out, err := s.Service.Normalize(ctx, req.Timex)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, &NormalizeResponse{Timex: out})
}

// MergeTimex applies a set operation to two groups of alternatives.
// POST /api/v1/timex/merge
func (s *APIV1Service) MergeTimex(c echo.Context) error {
	ctx := s.requestContext(c, resolve.OpMerge)
	req := &MergeRequest{}
	if err := c.Bind(req); err != nil {
		return s.errorJSON(c, errors.Wrap(resolve.ErrInvalidRequest, err.Error()))
	}
	out, err := s.Service.Merge(ctx, req.Op, req.A, req.B)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, &MergeResponse{Timex: out})
}

// GetGrammar describes the served grammar. With ?version= it fails unless that grammar
// version can be served.
// GET /api/v1/timex/grammar
func (s *APIV1Service) GetGrammar(c echo.Context) error {
	if v := c.QueryParam("version"); v != "" && !timex.SupportsGrammar(v) {
		return c.JSON(http.StatusUnprocessableEntity, &ErrorResponse{
			Code:    "UNSUPPORTED_GRAMMAR",
			Message: "grammar " + v + " is not supported, serving " + timex.GrammarVersion,
		})
	}
	return c.JSON(http.StatusOK, s.Service.Grammar())
}

// ListHistory lists persisted resolutions, newest first.
// GET /api/v1/timex/history?uid=&timex=&errorCode=&limit=&offset=
func (s *APIV1Service) ListHistory(c echo.Context) error {
	ctx := s.requestContext(c, "history")
	find := &store.FindHistory{Limit: defaultHistoryLimit}
	if v := c.QueryParam("uid"); v != "" {
		find.UID = &v
	}
	if v := c.QueryParam("timex"); v != "" {
		find.Timex = &v
	}
	if v := c.QueryParam("errorCode"); v != "" {
		find.ErrorCode = &v
	}
	var err error
	if find.Limit, err = intParam(c, "limit", defaultHistoryLimit); err != nil {
		return s.errorJSON(c, err)
	}
	if find.Offset, err = intParam(c, "offset", 0); err != nil {
		return s.errorJSON(c, err)
	}
	if find.Limit <= 0 || find.Limit > maxHistoryLimit {
		return s.errorJSON(c, errors.Wrapf(resolve.ErrInvalidRequest, "limit must be between 1 and %d", maxHistoryLimit))
	}

	list, err := s.Service.History(ctx, find)
	if err != nil {
		return s.errorJSON(c, err)
	}
	resp := &ListHistoryResponse{Entries: make([]*HistoryEntry, 0, len(list))}
	for _, h := range list {
		resp.Entries = append(resp.Entries, convertHistoryFromStore(h))
	}
	return c.JSON(http.StatusOK, resp)
}

func intParam(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(resolve.ErrInvalidRequest, "invalid %s %q", name, v)
	}
	return n, nil
}

func convertHistoryFromStore(h *store.History) *HistoryEntry {
	entry := &HistoryEntry{
		UID:        h.UID,
		RequestID:  h.RequestID,
		Timex:      h.Timex,
		Reference:  time.Unix(h.ReferenceTs, 0).UTC(),
		Policy:     h.Policy,
		Candidates: h.Candidates,
		ErrorCode:  h.ErrorCode,
		Records:    json.RawMessage(h.Payload),
		CreateTime: time.Unix(h.CreatedTs, 0).UTC(),
	}
	if loc, err := time.LoadLocation(h.Timezone); err == nil {
		entry.Reference = entry.Reference.In(loc)
	}
	if !json.Valid(entry.Records) {
		entry.Records = json.RawMessage("[]")
	}
	return entry
}

// statusOf maps an error to its HTTP status and reported code.
func statusOf(err error) (int, timex.ErrorCode) {
	if errors.Is(err, resolve.ErrHistoryDisabled) {
		return http.StatusNotFound, "HISTORY_DISABLED"
	}
	code := resolve.CodeOf(err)
	switch code {
	case timex.ErrCodeMalformed, resolve.CodeInvalidRequest, resolve.CodeInvalidFilter:
		return http.StatusBadRequest, code
	case resolve.CodeInternal:
		return http.StatusInternalServerError, code
	}
	return http.StatusUnprocessableEntity, code
}

func (s *APIV1Service) errorJSON(c echo.Context, err error) error {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"request_id", c.Response().Header().Get(HeaderRequestID),
			"error", err)
		msg = "internal error"
	}
	return c.JSON(status, &ErrorResponse{Code: code, Message: msg})
}
