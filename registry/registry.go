package registry

import (
	"context"
	"fmt"

	"github.com/hupe1980/entitymesh/core"
)

// Registry owns one Category per declared entry type and routes resolution to
// other registries of the same Env by name.
type Registry struct {
	name  string
	env   *Env
	cats  map[core.EntryType]*Category
	order []core.EntryType
	hooks core.RegistryHooks
	*loggerAdapter
}

// Compile-time assertion.
var _ core.Registry = (*Registry)(nil)

func newRegistry(ctx context.Context, env *Env, name string) (*Registry, error) {
	r := &Registry{
		name:          name,
		env:           env,
		cats:          make(map[core.EntryType]*Category),
		hooks:         env.hooks,
		loggerAdapter: env.loggerAdapter.withRegistry(name),
	}
	for _, t := range env.catalog.Types() {
		kind, ok := env.catalog.Kind(t)
		if !ok || kind.Revive == nil {
			return nil, fmt.Errorf("registry %s: %w: %s", name, core.ErrCategoryMissing, t)
		}
		tbl, err := env.backend.Table(ctx, name, t)
		if err != nil {
			return nil, fmt.Errorf("registry %s: open table %s: %w", name, t, err)
		}
		r.cats[t] = newCategory(r, kind, tbl)
		r.order = append(r.order, t)
	}
	return r, nil
}

// Name returns the registry's name.
func (r *Registry) Name() string { return r.name }

// Env returns the environment the registry belongs to.
func (r *Registry) Env() *Env { return r.env }

// Category returns the category for t.
func (r *Registry) Category(t core.EntryType) (core.Category, bool) {
	c, ok := r.cats[t]
	if !ok {
		return nil, false
	}
	return c, true
}

// Categories returns every category in catalog order.
func (r *Registry) Categories() []core.Category {
	out := make([]core.Category, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.cats[t])
	}
	return out
}

// Hooks returns the registry-level insinuation hooks.
func (r *Registry) Hooks() core.RegistryHooks { return r.hooks }

// SetHooks replaces the registry-level insinuation hooks.
func (r *Registry) SetHooks(h core.RegistryHooks) { r.hooks = h }

// SwitchReg locates or lazily creates the registry called name in the same Env.
func (r *Registry) SwitchReg(ctx context.Context, name string) (core.Registry, bool) {
	if name == r.name {
		return r, true
	}
	other, err := r.env.Registry(ctx, name)
	if err != nil {
		r.logError("Failed to switch registry", "registry", r.name, "target", name, "error", err)
		return nil, false
	}
	return other, true
}

// SwitchRegInv returns the inventory registry owned by owner and remembers the
// ownership so the inventory can report it through InventoryFor.
func (r *Registry) SwitchRegInv(ctx context.Context, owner core.Ref) (core.Registry, error) {
	if owner.ID == "" {
		return nil, fmt.Errorf("registry %s: inventory owner has no id", r.name)
	}
	if owner.RegName == "" {
		owner.RegName = r.name
	}
	name := InventoryName(owner)
	inv, err := r.env.Registry(ctx, name)
	if err != nil {
		return nil, err
	}
	r.env.recordOwner(name, owner)
	return inv, nil
}

// InventoryFor reports the entry owning this registry, if it is an inventory.
func (r *Registry) InventoryFor() (core.Ref, bool) {
	return r.env.InventoryOwner(r.name)
}

func (r *Registry) category(t core.EntryType) (*Category, error) {
	c, ok := r.cats[t]
	if !ok {
		return nil, fmt.Errorf("registry %s: %w: %s", r.name, core.ErrCategoryMissing, t)
	}
	return c, nil
}

// CreateLive creates a record of type t from raw and revives it into op.
func (r *Registry) CreateLive(ctx context.Context, op *core.OpCtx, t core.EntryType, raw core.Record) (core.Entry, error) {
	c, err := r.category(t)
	if err != nil {
		return nil, err
	}
	return c.CreateLive(ctx, op, raw)
}

// CreateDefault creates a record of type t from the kind's default template.
func (r *Registry) CreateDefault(ctx context.Context, op *core.OpCtx, t core.EntryType) (core.Entry, error) {
	c, err := r.category(t)
	if err != nil {
		return nil, err
	}
	return c.CreateDefault(ctx, op)
}

// GetLive revives the record (t, id) into op.
func (r *Registry) GetLive(ctx context.Context, op *core.OpCtx, t core.EntryType, id string) (core.Entry, bool, error) {
	c, err := r.category(t)
	if err != nil {
		return nil, false, err
	}
	return c.GetLive(ctx, op, id)
}

// GetRaw returns a copy of the record (t, id).
func (r *Registry) GetRaw(ctx context.Context, t core.EntryType, id string) (core.Record, bool, error) {
	c, err := r.category(t)
	if err != nil {
		return nil, false, err
	}
	return c.GetRaw(ctx, id)
}

// Delete removes the record (t, id) and returns it.
func (r *Registry) Delete(ctx context.Context, t core.EntryType, id string) (core.Record, bool, error) {
	c, err := r.category(t)
	if err != nil {
		return nil, false, err
	}
	return c.DeleteID(ctx, id)
}
