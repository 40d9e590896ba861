package registry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hupe1980/entitymesh/core"
)

// Resolve returns the live entry ref points at, revived into op. References
// naming another registry are delegated to it. The id is tried first, then
// the fallback lid; an empty Type searches every category.
//
// Resolve never fails. An unresolvable reference is a routine outcome, and
// backend errors or panics raised by revive functions are logged and reported
// as a miss.
func (r *Registry) Resolve(ctx context.Context, op *core.OpCtx, ref core.Ref) (e core.Entry, ok bool) {
	if ref.IsZero() {
		return nil, false
	}
	if ref.RegName != "" && ref.RegName != r.name {
		other, found := r.SwitchReg(ctx, ref.RegName)
		if !found {
			r.logWarn("Reference names an unknown registry", "ref", ref.String())
			return nil, false
		}
		return other.Resolve(ctx, op, ref)
	}

	ctx, span := r.env.tracer.Start(ctx, "registry.Resolve")
	span.SetAttributes(
		attribute.String("entitymesh.registry", r.name),
		attribute.String("entitymesh.ref", ref.String()),
	)
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic during resolution: %v", p)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logError("Reference resolution panicked", "ref", ref.String(), "error", err)
			e, ok = nil, false
		}
		span.SetAttributes(attribute.Bool("entitymesh.resolved", ok))
		span.End()
	}()

	e, ok, err := r.resolveLocal(ctx, op, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logResolveMiss(ref.String(), err)
		return nil, false
	}
	if !ok {
		r.logResolveMiss(ref.String(), nil)
	}
	return e, ok
}

func (r *Registry) resolveLocal(ctx context.Context, op *core.OpCtx, ref core.Ref) (core.Entry, bool, error) {
	cats, err := r.candidates(ref.Type)
	if err != nil {
		return nil, false, err
	}
	if ref.ID != "" {
		for _, c := range cats {
			e, ok, err := c.GetLive(ctx, op, ref.ID)
			if err != nil || ok {
				return e, ok, err
			}
		}
	}
	if ref.FallbackLID != "" {
		for _, c := range cats {
			e, ok, err := c.LookupLID(ctx, op, ref.FallbackLID)
			if err != nil || ok {
				return e, ok, err
			}
		}
	}
	return nil, false, nil
}

func (r *Registry) candidates(t core.EntryType) ([]*Category, error) {
	if t == "" {
		out := make([]*Category, 0, len(r.order))
		for _, et := range r.order {
			out = append(out, r.cats[et])
		}
		return out, nil
	}
	c, err := r.category(t)
	if err != nil {
		return nil, err
	}
	return []*Category{c}, nil
}

// ResolveMany resolves refs in order and drops the ones that miss.
func (r *Registry) ResolveMany(ctx context.Context, op *core.OpCtx, refs []core.Ref) []core.Entry {
	out := make([]core.Entry, 0, len(refs))
	for _, ref := range refs {
		if e, ok := r.Resolve(ctx, op, ref); ok {
			out = append(out, e)
		}
	}
	return out
}
