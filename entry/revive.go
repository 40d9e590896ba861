package entry

import (
	"context"
	"fmt"

	"github.com/hupe1980/entitymesh/core"
)

// Live is satisfied by any pointer type embedding Base or Inventoried.
type Live interface {
	core.Entry
	base() *Base
}

// Reviver builds a core.ReviveFunc from a constructor. The returned function
// returns the entry already cached in the operation context when present.
// Otherwise it constructs the entry, registers it in the context before
// loading so reference cycles resolve to the same instance, and loads it.
// A failed load evicts the half built entry again.
func Reviver[T Live](t core.EntryType, construct func(b Base) T) core.ReviveFunc {
	return func(ctx context.Context, reg core.Registry, op *core.OpCtx, id string, raw core.Record, opts core.LoadOptions) (core.Entry, error) {
		if cached, ok := op.Get(reg.Name(), id); ok {
			return cached, nil
		}

		e := construct(NewBase(t, reg, op, id, raw, opts))
		b := e.base()
		b.self = e
		b.state = core.StateConstructing
		op.Set(e)

		b.state = core.StateLoading
		if err := e.Load(ctx, raw.Clone()); err != nil {
			op.Delete(reg.Name(), id)
			return nil, fmt.Errorf("load %s %s: %w", t, id, err)
		}
		b.state = core.StateReady
		return e, nil
	}
}

// KindOf bundles a constructor and an optional default template into a
// core.Kind ready for catalog registration.
func KindOf[T Live](t core.EntryType, construct func(b Base) T, defaults func() core.Record) core.Kind {
	return core.Kind{Type: t, Revive: Reviver(t, construct), Default: defaults}
}
