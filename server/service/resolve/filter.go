package resolve

import (
	"github.com/google/cel-go/cel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/hrygo/timexkit/plugin/timex/value"
)

// filterCache compiles CEL record filters once per expression text.
//
// A filter sees one record at a time through these variables:
//
//	timex, type, value, mod  string
//	approximate, ambiguous   bool
//	start, end               timestamp
//
// e.g. `type == "date" && start.getDayOfWeek() == 3`.
type filterCache struct {
	env      *cel.Env
	programs *lru.Cache[string, cel.Program]
}

func newFilterCache(size int) (*filterCache, error) {
	env, err := cel.NewEnv(
		cel.Variable("timex", cel.StringType),
		cel.Variable("type", cel.StringType),
		cel.Variable("value", cel.StringType),
		cel.Variable("mod", cel.StringType),
		cel.Variable("approximate", cel.BoolType),
		cel.Variable("ambiguous", cel.BoolType),
		cel.Variable("start", cel.TimestampType),
		cel.Variable("end", cel.TimestampType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}
	if size <= 0 {
		size = 64
	}
	programs, err := lru.New[string, cel.Program](size)
	if err != nil {
		return nil, err
	}
	return &filterCache{env: env, programs: programs}, nil
}

func (f *filterCache) compile(expr string) (cel.Program, error) {
	if prg, ok := f.programs.Get(expr); ok {
		return prg, nil
	}
	ast, iss := f.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrap(ErrInvalidFilter, iss.Err().Error())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Wrapf(ErrInvalidFilter, "filter must be boolean, got %s", ast.OutputType())
	}
	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidFilter, err.Error())
	}
	f.programs.Add(expr, prg)
	return prg, nil
}

// apply keeps the records prg accepts.
func (f *filterCache) apply(expr string, recs []value.Record) ([]value.Record, error) {
	if expr == "" {
		return recs, nil
	}
	prg, err := f.compile(expr)
	if err != nil {
		return nil, err
	}

	kept := make([]value.Record, 0, len(recs))
	for _, r := range recs {
		out, _, err := prg.Eval(map[string]any{
			"timex":       r.Timex,
			"type":        r.Type,
			"value":       r.Value,
			"mod":         r.Mod,
			"approximate": r.Approximate,
			"ambiguous":   r.IsAmbiguous,
			"start":       r.StartTime,
			"end":         r.EndTime,
		})
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidFilter, "evaluating %q: %v", expr, err)
		}
		if ok, _ := out.Value().(bool); ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}
