package resolve

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/timexkit/internal/observability"
	"github.com/hrygo/timexkit/internal/profile"
	"github.com/hrygo/timexkit/plugin/timex"
	"github.com/hrygo/timexkit/plugin/timex/resolver"
	"github.com/hrygo/timexkit/plugin/timex/value"
	"github.com/hrygo/timexkit/server/timezone"
	"github.com/hrygo/timexkit/store"
)

// Operation names used for logging and metrics.
const (
	OpResolve   = "resolve"
	OpBatch     = "batch"
	OpBatchItem = "batch_item"
	OpNormalize = "normalize"
	OpMerge     = "merge"
)

// Service implements TimexService on top of the resolver.
type Service struct {
	profile  *profile.Profile
	defaults resolver.Context
	location *time.Location

	parses  *parseCache
	filters *filterCache
	store   *store.Store
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists every resolution to s.
func WithStore(s *store.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithMetrics records into m instead of the global metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// WithClock replaces time.Now as the source of the default reference.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// NewService creates a service using the defaults of p.
func NewService(p *profile.Profile, opts ...Option) (*Service, error) {
	defaults, err := p.Context()
	if err != nil {
		return nil, err
	}
	parses, err := newParseCache(p.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create parse cache")
	}
	filters, err := newFilterCache(128)
	if err != nil {
		return nil, err
	}

	s := &Service{
		profile:  p,
		defaults: defaults,
		location: p.Location(),
		parses:   parses,
		filters:  filters,
		metrics:  observability.GlobalMetrics(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve resolves one mention. A request whose alternatives all fail returns the error;
// partial failures are listed in Response.Errors.
func (s *Service) Resolve(ctx context.Context, req *Request) (*Response, error) {
	return s.resolveCounted(ctx, OpResolve, req)
}

// resolveCounted resolves req and records it under op. Batch items are counted under
// OpBatchItem and stay out of the request totals.
func (s *Service) resolveCounted(ctx context.Context, op string, req *Request) (*Response, error) {
	rc := observability.RequestFromContext(ctx, s.logger, op)
	if op == OpBatchItem {
		s.metrics.RecordSubRequest(op)
	} else {
		s.metrics.RecordRequest(op)
	}
	start := time.Now()
	defer func() { s.metrics.RecordDuration(op, time.Since(start)) }()

	resp, err := s.resolve(ctx, rc.RequestID, req)
	if err != nil {
		code := CodeOf(err)
		if op == OpBatchItem {
			s.metrics.RecordSubFailure(op, string(code))
		} else {
			s.metrics.RecordFailure(op, string(code))
		}
		rc.Warn("timex resolution failed",
			slog.Any(observability.LogFieldTimex, timexOf(req)),
			slog.String(observability.LogFieldErrorCode, string(code)),
			slog.String("error", err.Error()))
		return nil, err
	}

	rc.Debug("timex resolved",
		slog.Any(observability.LogFieldTimex, timexOf(req)),
		slog.Int(observability.LogFieldCandidates, resp.Candidates),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()))
	return resp, nil
}

func (s *Service) resolve(ctx context.Context, requestID string, req *Request) (*Response, error) {
	if req == nil || len(req.Timex) == 0 {
		return nil, invalidRequest("no timex given")
	}
	rctx, err := s.context(req)
	if err != nil {
		return nil, err
	}
	exprs, err := s.parses.parseAll(req.Timex)
	if err != nil {
		return nil, err
	}
	set, err := timex.NewSet(exprs...)
	if err != nil {
		return nil, err
	}

	// truncation happens here so the full candidate count is known
	single := rctx.SingleResult
	rctx.SingleResult = false
	recs, err := value.ResolveSet(set, rctx)
	resp := &Response{RequestID: requestID, Reference: rctx.Reference}
	if err != nil {
		var setErr *value.SetError
		if !errors.As(err, &setErr) {
			return nil, err
		}
		if len(setErr.Failed) == set.Len() {
			if set.Len() == 1 {
				return nil, setErr.Failed[0].Err
			}
			return nil, err
		}
		for _, f := range setErr.Failed {
			resp.Errors = append(resp.Errors, *newItemError(f.Timex, f.Err))
		}
	}

	resp.Ambiguous = len(recs) > 0 && recs[0].IsAmbiguous
	resp.Candidates = len(recs)
	s.metrics.RecordCandidates(resp.Candidates)
	if single && len(recs) > 1 {
		recs = recs[:1]
	}

	if recs, err = s.filters.apply(req.Filter, recs); err != nil {
		return nil, err
	}
	if req.Chronological {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].StartTime.Before(recs[j].StartTime) })
	}
	resp.Records = recs

	s.record(ctx, requestID, req, rctx, resp)
	return resp, nil
}

// context builds the resolution context of req from the service defaults.
func (s *Service) context(req *Request) (resolver.Context, error) {
	rctx := s.defaults

	loc := s.location
	if req.Timezone != "" {
		l, err := timezone.ParseTimezone(req.Timezone)
		if err != nil {
			return rctx, invalidRequest("%v", err)
		}
		loc = l
	}
	ref, err := timezone.ParseReference(req.Reference, loc, s.now)
	if err != nil {
		return rctx, invalidRequest("%v", err)
	}
	rctx.Reference = ref

	if req.Policy != "" {
		policy, ok := resolver.PolicyByName(req.Policy)
		if !ok {
			return rctx, invalidRequest("unknown policy %q", req.Policy)
		}
		rctx.Policy = policy
	}
	if req.Direction != "" {
		dir, ok := resolver.ParseDirection(req.Direction)
		if !ok {
			return rctx, invalidRequest("unknown direction %q", req.Direction)
		}
		rctx.Direction = dir
	}
	if req.SingleResult != nil {
		rctx.SingleResult = *req.SingleResult
	}
	if req.HorizonYears < 0 {
		return rctx, invalidRequest("horizonYears must not be negative")
	}
	if req.HorizonYears > 0 {
		rctx.Horizon.Years = req.HorizonYears
	}

	if (req.RangeStart == "") != (req.RangeEnd == "") {
		return rctx, invalidRequest("rangeStart and rangeEnd must be given together")
	}
	if req.RangeStart != "" {
		lo, err := timezone.ParseReference(req.RangeStart, loc, s.now)
		if err != nil {
			return rctx, invalidRequest("rangeStart: %v", err)
		}
		hi, err := timezone.ParseReference(req.RangeEnd, loc, s.now)
		if err != nil {
			return rctx, invalidRequest("rangeEnd: %v", err)
		}
		rctx.ReferenceRange = &resolver.Span{Start: lo, End: hi}
	}
	return rctx, nil
}

// record persists a resolution when history is enabled. Failures are logged only.
func (s *Service) record(ctx context.Context, requestID string, req *Request, rctx resolver.Context, resp *Response) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(resp.Records)
	if err != nil {
		s.logger.Warn("failed to encode history payload", slog.String("error", err.Error()))
		return
	}
	var code string
	if len(resp.Errors) > 0 {
		code = string(resp.Errors[0].Code)
	}
	policy := "past"
	if rctx.Policy != nil {
		policy = rctx.Policy.Name()
	}
	h, err := s.store.CreateHistory(ctx, &store.History{
		RequestID:   requestID,
		Timex:       joinTimex(req.Timex),
		ReferenceTs: rctx.Reference.Unix(),
		Timezone:    rctx.Reference.Location().String(),
		Policy:      policy,
		Candidates:  int32(resp.Candidates),
		ErrorCode:   code,
		Payload:     string(payload),
	})
	if err != nil {
		s.logger.Warn("failed to store resolution history",
			slog.String(observability.LogFieldRequestID, requestID),
			slog.String("error", err.Error()))
		return
	}
	resp.HistoryUID = h.UID
}

// ResolveBatch resolves reqs with at most the configured number of concurrent workers.
// It only fails as a whole when the batch is too large or ctx is cancelled.
func (s *Service) ResolveBatch(ctx context.Context, reqs []*Request) ([]*BatchItem, error) {
	rc := observability.RequestFromContext(ctx, s.logger, OpBatch)
	s.metrics.RecordRequest(OpBatch)
	start := time.Now()
	defer func() { s.metrics.RecordDuration(OpBatch, time.Since(start)) }()

	if len(reqs) > s.profile.MaxBatch {
		s.metrics.RecordFailure(OpBatch, string(CodeInvalidRequest))
		return nil, invalidRequest("batch of %d exceeds the limit of %d", len(reqs), s.profile.MaxBatch)
	}

	items := make([]*BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.profile.BatchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			child := observability.NewRequestContextWithID(s.logger, rc.RequestID, OpBatchItem, rc.Client)
			resp, err := s.resolveCounted(observability.WithRequestContext(gctx, child), OpBatchItem, req)
			if err != nil {
				items[i] = &BatchItem{Error: newItemError(joinTimex(timexOf(req)), err)}
				return nil
			}
			items[i] = &BatchItem{Response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.RecordFailure(OpBatch, string(CodeInternal))
		return nil, errors.Wrap(err, "batch cancelled")
	}

	rc.Info("timex batch resolved",
		slog.Int("size", len(reqs)),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return items, nil
}

// Normalize parses and canonicalizes every text.
func (s *Service) Normalize(ctx context.Context, texts []string) ([]string, error) {
	rc := observability.RequestFromContext(ctx, s.logger, OpNormalize)
	s.metrics.RecordRequest(OpNormalize)

	out := make([]string, len(texts))
	for i, text := range texts {
		e, err := s.parses.parse(text)
		if err == nil {
			e, err = timex.Normalize(e)
		}
		if err != nil {
			s.metrics.RecordFailure(OpNormalize, string(CodeOf(err)))
			rc.Warn("timex normalization failed", slog.String(observability.LogFieldTimex, text), slog.String("error", err.Error()))
			return nil, errors.Wrapf(err, "normalize %q", text)
		}
		out[i] = e.String()
	}
	return out, nil
}

// Merge applies op to the alternatives a and b.
func (s *Service) Merge(ctx context.Context, op SetOp, a, b []string) ([]string, error) {
	s.metrics.RecordRequest(OpMerge)
	out, err := s.merge(op, a, b)
	if err != nil {
		s.metrics.RecordFailure(OpMerge, string(CodeOf(err)))
		observability.RequestFromContext(ctx, s.logger, OpMerge).Warn("timex merge failed",
			slog.String("op", string(op)), slog.String("error", err.Error()))
		return nil, err
	}
	return out, nil
}

func (s *Service) merge(op SetOp, a, b []string) ([]string, error) {
	left, err := s.parseSet(a)
	if err != nil {
		return nil, err
	}
	right, err := s.parseSet(b)
	if err != nil {
		return nil, err
	}

	var res timex.Set
	switch op {
	case SetOpUnion:
		res, err = left.Union(right)
	case SetOpIntersect:
		res, err = left.Intersect(right)
	case SetOpCombine:
		if left.Len() != 1 || right.Len() != 1 {
			return nil, invalidRequest("combine takes exactly one expression on each side")
		}
		res, err = timex.Combine(left.At(0), right.At(0))
	default:
		return nil, invalidRequest("unknown set operation %q", op)
	}
	if err != nil {
		return nil, err
	}
	return res.Strings(), nil
}

func (s *Service) parseSet(texts []string) (timex.Set, error) {
	exprs, err := s.parses.parseAll(texts)
	if err != nil {
		return timex.Set{}, err
	}
	return timex.NewSet(exprs...)
}

// Grammar describes the served grammar.
func (s *Service) Grammar() GrammarInfo {
	return GrammarInfo{
		Version: timex.GrammarVersion,
		Modifiers: []string{
			timex.ModBefore.Prefix(), timex.ModAfter.Prefix(),
			timex.ModOnOrBefore.Prefix(), timex.ModOnOrAfter.Prefix(), timex.ModApprox.Prefix(),
		},
		Policies: []string{resolver.BiasPast.Name(), resolver.BiasFuture.Name(), resolver.BiasNearest.Name()},
		Types: []string{
			value.TypeDate, value.TypeTime, value.TypeDateTime,
			value.TypeDateRange, value.TypeTimeRange, value.TypeDateTimeRange, value.TypeDuration,
		},
	}
}

// History lists persisted resolutions.
func (s *Service) History(ctx context.Context, find *store.FindHistory) ([]*store.History, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.ListHistory(ctx, find)
}

// Store returns the history store, nil when history is disabled.
func (s *Service) Store() *store.Store {
	return s.store
}

func timexOf(req *Request) []string {
	if req == nil {
		return nil
	}
	return req.Timex
}

func joinTimex(texts []string) string {
	if len(texts) == 1 {
		return texts[0]
	}
	b, _ := json.Marshal(texts)
	return string(b)
}

var _ TimexService = (*Service)(nil)
