package entry

import (
	"context"

	"github.com/hupe1980/entitymesh/core"
)

// ResolveAs resolves ref from e's registry into e's operation context and
// asserts the concrete type. A miss or a type mismatch yields false.
func ResolveAs[T core.Entry](ctx context.Context, e core.Entry, ref core.Ref) (T, bool) {
	var zero T
	if ref.IsZero() {
		return zero, false
	}
	got, ok := e.Registry().Resolve(ctx, e.OpCtx(), ref)
	if !ok {
		return zero, false
	}
	typed, ok := got.(T)
	return typed, ok
}

// ResolveAllAs resolves refs in order, dropping misses and type mismatches.
func ResolveAllAs[T core.Entry](ctx context.Context, e core.Entry, refs []core.Ref) []T {
	resolved := e.Registry().ResolveMany(ctx, e.OpCtx(), refs)
	out := make([]T, 0, len(resolved))
	for _, r := range resolved {
		if typed, ok := r.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Entries widens a typed slice for AssocEntries implementations.
func Entries[T core.Entry](items ...[]T) []core.Entry {
	var out []core.Entry
	for _, list := range items {
		for _, e := range list {
			out = append(out, e)
		}
	}
	return out
}
