package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/hupe1980/entitymesh/core"
)

var env *cel.Env

func init() {
	var err error
	env, err = cel.NewEnv(
		cel.Variable("r", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("id", cel.StringType),
	)
	if err != nil {
		panic(fmt.Sprintf("query: build cel env: %v", err))
	}
}

// Filter is a compiled, reusable record predicate. It is safe for concurrent use.
type Filter struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expr. The expression must yield a bool.
func Compile(expr string) (*Filter, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("query: compile %q: %w", expr, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("query: %q yields %s, want bool", expr, out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("query: program %q: %w", expr, err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Filter {
	f, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the filter against one record.
func (f *Filter) Match(id string, rec core.Record) bool {
	out, _, err := f.prg.Eval(map[string]any{"r": celValue(rec), "id": id})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Predicate adapts the filter for category lookups.
func (f *Filter) Predicate() core.Predicate { return f.Match }

// Find revives every entry of cat matching expr into op, in the order the
// backing table scans them.
func Find(ctx context.Context, cat core.Category, op *core.OpCtx, expr string) ([]core.Entry, error) {
	f, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	// The predicate never accepts, so LookupRaw visits every record in order.
	var ids []string
	if _, _, _, err := cat.LookupRaw(ctx, func(id string, rec core.Record) bool {
		if f.Match(id, rec) {
			ids = append(ids, id)
		}
		return false
	}); err != nil {
		return nil, err
	}
	out := make([]core.Entry, 0, len(ids))
	for _, id := range ids {
		e, ok, err := cat.GetLive(ctx, op, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// celValue converts a record into plain JSON shapes so nested references and
// typed slices become maps and lists CEL understands.
func celValue(rec core.Record) map[string]any {
	raw, err := json.Marshal(rec)
	if err != nil {
		return map[string]any(rec)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any(rec)
	}
	return out
}
