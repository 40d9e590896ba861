package entry

import (
	"context"
	"fmt"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/registry"
)

// Base is embedded by concrete entries. It implements every core.Entry method
// except Load and Save, which carry the domain specific shape.
type Base struct {
	typ   core.EntryType
	id    string
	reg   core.Registry
	op    *core.OpCtx
	orig  core.Record
	flags map[string]any
	state core.State
	self  core.Entry
}

// NewBase binds a base to its registry, operation context and raw record.
// Reviver calls it; custom revive functions may too.
func NewBase(t core.EntryType, reg core.Registry, op *core.OpCtx, id string, raw core.Record, opts core.LoadOptions) Base {
	flags := make(map[string]any, len(opts.Flags))
	for k, v := range opts.Flags {
		flags[k] = v
	}
	return Base{typ: t, id: id, reg: reg, op: op, orig: raw.Clone(), flags: flags}
}

func (b *Base) base() *Base { return b }

// EntryType returns the entry's type tag.
func (b *Base) EntryType() core.EntryType { return b.typ }

// RegistryID returns the id of the backing record.
func (b *Base) RegistryID() string { return b.id }

// Registry returns the registry the entry lives in.
func (b *Base) Registry() core.Registry { return b.reg }

// OpCtx returns the operation context the entry was revived into.
func (b *Base) OpCtx() *core.OpCtx { return b.op }

// OrigData returns a copy of the record the entry was loaded from.
func (b *Base) OrigData() core.Record { return b.orig.Clone() }

// State returns the construction state.
func (b *Base) State() core.State { return b.state }

// Flags returns the ephemeral flag map. It is never persisted.
func (b *Base) Flags() map[string]any { return b.flags }

// FallbackLID returns the lid of the loaded record. Entries that manage their
// lid as a live field should override it.
func (b *Base) FallbackLID() string { return b.orig.LID() }

// Self returns the concrete entry embedding b.
func (b *Base) Self() core.Entry {
	if b.self == nil {
		panic(fmt.Sprintf("entry %s:%s used before revival", b.typ, b.id))
	}
	return b.self
}

// AsRef builds a reference to this entry.
func (b *Base) AsRef() core.Ref {
	return core.Ref{
		ID:          b.id,
		FallbackLID: b.Self().FallbackLID(),
		Type:        b.typ,
		RegName:     b.reg.Name(),
	}
}

// Overlay lays fields over the original record. Save implementations return it
// so unmanaged fields survive.
func (b *Base) Overlay(fields core.Record) core.Record {
	return b.orig.Overlay(fields)
}

// AssocEntries returns no dependents by default.
func (b *Base) AssocEntries(context.Context) ([]core.Entry, error) { return nil, nil }

// Writeback pushes the current Save snapshot to the owning category.
func (b *Base) Writeback(ctx context.Context) error {
	cat, err := b.category()
	if err != nil {
		return err
	}
	return cat.Update(ctx, b.Self())
}

// DestroyEntry evicts the entry from its operation context and deletes the
// backing record.
func (b *Base) DestroyEntry(ctx context.Context) error {
	cat, err := b.category()
	if err != nil {
		return err
	}
	b.op.Delete(b.reg.Name(), b.id)
	_, _, err = cat.DeleteID(ctx, b.id)
	return err
}

// Refreshed re-resolves this entry by id into op, or a new context when op is
// nil. It reports false once the backing record is gone.
func (b *Base) Refreshed(ctx context.Context, op *core.OpCtx) (core.Entry, bool) {
	if op == nil {
		op = core.NewOpCtx()
	}
	return b.reg.Resolve(ctx, op, core.Ref{ID: b.id, Type: b.typ, RegName: b.reg.Name()})
}

// Insinuate copies this entry and everything it depends on or owns into dest.
// The returned entry lives in op, or a new context when op is nil.
func (b *Base) Insinuate(ctx context.Context, dest core.Registry, op *core.OpCtx, hooks *core.InsinuateHooks) (core.Entry, error) {
	return registry.Insinuate(ctx, b.Self(), dest, op, hooks)
}

func (b *Base) category() (core.Category, error) {
	cat, ok := b.reg.Category(b.typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCategoryMissing, b.typ)
	}
	return cat, nil
}
