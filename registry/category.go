package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hupe1980/entitymesh/core"
)

// Category is the raw table and revival machinery for one entry type inside
// one registry.
type Category struct {
	reg   *Registry
	kind  core.Kind
	table core.Table
}

var _ core.Category = (*Category)(nil)

func newCategory(reg *Registry, kind core.Kind, tbl core.Table) *Category {
	return &Category{reg: reg, kind: kind, table: tbl}
}

// Type returns the entry type managed by the category.
func (c *Category) Type() core.EntryType { return c.kind.Type }

// Registry returns the owning registry.
func (c *Category) Registry() core.Registry { return c.reg }

// Table exposes the backing table.
func (c *Category) Table() core.Table { return c.table }

// LookupRaw returns the first record satisfying pred.
func (c *Category) LookupRaw(ctx context.Context, pred core.Predicate) (string, core.Record, bool, error) {
	var (
		foundID  string
		foundRec core.Record
		found    bool
	)
	err := c.table.Scan(ctx, func(id string, rec core.Record) bool {
		if pred(id, rec) {
			foundID, foundRec, found = id, rec, true
			return false
		}
		return true
	})
	if err != nil {
		return "", nil, false, c.wrap("lookup", err)
	}
	return foundID, foundRec, found, nil
}

// FilterRaw returns every record satisfying pred keyed by id.
func (c *Category) FilterRaw(ctx context.Context, pred core.Predicate) (map[string]core.Record, error) {
	out := map[string]core.Record{}
	err := c.table.Scan(ctx, func(id string, rec core.Record) bool {
		if pred(id, rec) {
			out[id] = rec
		}
		return true
	})
	if err != nil {
		return nil, c.wrap("filter", err)
	}
	return out, nil
}

// LookupLive revives the first record satisfying pred into op.
func (c *Category) LookupLive(ctx context.Context, op *core.OpCtx, pred core.Predicate) (core.Entry, bool, error) {
	id, rec, ok, err := c.LookupRaw(ctx, pred)
	if err != nil || !ok {
		return nil, false, err
	}
	if cached, hit := op.Get(c.reg.name, id); hit {
		return cached, true, nil
	}
	e, err := c.revive(ctx, op, id, rec, core.LoadOptions{})
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// LookupLID revives the first record whose lid equals lid.
func (c *Category) LookupLID(ctx context.Context, op *core.OpCtx, lid string) (core.Entry, bool, error) {
	if lid == "" {
		return nil, false, nil
	}
	return c.LookupLive(ctx, op, func(_ string, rec core.Record) bool {
		return rec.LID() == lid
	})
}

// GetRaw returns a copy of the record stored under id.
func (c *Category) GetRaw(ctx context.Context, id string) (core.Record, bool, error) {
	rec, ok, err := c.table.Get(ctx, id)
	if err != nil {
		return nil, false, c.wrap("get", err)
	}
	return rec, ok, nil
}

// RawMap returns copies of every record keyed by id.
func (c *Category) RawMap(ctx context.Context) (map[string]core.Record, error) {
	return c.FilterRaw(ctx, func(string, core.Record) bool { return true })
}

// GetLive returns the entry cached in op for id, or revives it from its record.
// A missing record is a miss, not an error.
func (c *Category) GetLive(ctx context.Context, op *core.OpCtx, id string) (core.Entry, bool, error) {
	if cached, ok := op.Get(c.reg.name, id); ok {
		return cached, true, nil
	}
	rec, ok, err := c.GetRaw(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	e, err := c.revive(ctx, op, id, rec, core.LoadOptions{})
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// ListLive revives every record of the category into op.
func (c *Category) ListLive(ctx context.Context, op *core.OpCtx) ([]core.Entry, error) {
	type row struct {
		id  string
		rec core.Record
	}
	var rows []row
	if err := c.table.Scan(ctx, func(id string, rec core.Record) bool {
		rows = append(rows, row{id: id, rec: rec})
		return true
	}); err != nil {
		return nil, c.wrap("list", err)
	}
	out := make([]core.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := c.revive(ctx, op, r.id, r.rec, core.LoadOptions{})
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// CreateManyLive stores raws under fresh ids and revives them into op.
func (c *Category) CreateManyLive(ctx context.Context, op *core.OpCtx, raws ...core.Record) ([]core.Entry, error) {
	ids, err := c.store(ctx, raws)
	if err != nil {
		return nil, err
	}
	out := make([]core.Entry, 0, len(ids))
	for i, id := range ids {
		e, err := c.revive(ctx, op, id, normalize(raws[i]), core.LoadOptions{Flags: c.reg.env.flags()})
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// CreateLive stores raw under a fresh id and revives it into op.
func (c *Category) CreateLive(ctx context.Context, op *core.OpCtx, raw core.Record) (core.Entry, error) {
	out, err := c.CreateManyLive(ctx, op, raw)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// CreateManyRaw stores raws under fresh ids and returns references without
// reviving anything.
func (c *Category) CreateManyRaw(ctx context.Context, raws ...core.Record) ([]core.Ref, error) {
	ids, err := c.store(ctx, raws)
	if err != nil {
		return nil, err
	}
	out := make([]core.Ref, 0, len(ids))
	for i, id := range ids {
		out = append(out, core.Ref{
			ID:          id,
			FallbackLID: normalize(raws[i]).LID(),
			Type:        c.kind.Type,
			RegName:     c.reg.name,
		})
	}
	return out, nil
}

// CreateRaw stores raw under a fresh id and returns its reference.
func (c *Category) CreateRaw(ctx context.Context, raw core.Record) (core.Ref, error) {
	refs, err := c.CreateManyRaw(ctx, raw)
	if err != nil {
		return core.Ref{}, err
	}
	return refs[0], nil
}

// CreateDefault creates an entry from the kind's default template, or an
// empty record when the kind has none.
func (c *Category) CreateDefault(ctx context.Context, op *core.OpCtx) (core.Entry, error) {
	raw := core.Record{}
	if c.kind.Default != nil {
		raw = c.kind.Default()
	}
	return c.CreateLive(ctx, op, raw)
}

// Update writes back each entry's current Save. Entries whose record has been
// deleted are skipped with a warning.
func (c *Category) Update(ctx context.Context, entries ...core.Entry) error {
	for _, e := range entries {
		if _, err := c.WriteRaw(ctx, e.RegistryID(), e.Save()); err != nil {
			return err
		}
	}
	return nil
}

// WriteRaw overwrites the record stored under id. A missing id is skipped with
// a warning and reported as false.
func (c *Category) WriteRaw(ctx context.Context, id string, rec core.Record) (bool, error) {
	ok, err := c.table.Has(ctx, id)
	if err != nil {
		return false, c.wrap("update", err)
	}
	if !ok {
		c.reg.logWarn("Tried to update a nonexistent entry", "registry", c.reg.name, "type", string(c.kind.Type), "id", id)
		return false, nil
	}
	if err := c.table.Put(ctx, id, rec); err != nil {
		return false, c.wrap("update", err)
	}
	return true, nil
}

// DeleteID removes and returns the record stored under id.
func (c *Category) DeleteID(ctx context.Context, id string) (core.Record, bool, error) {
	rec, ok, err := c.table.Delete(ctx, id)
	if err != nil {
		return nil, false, c.wrap("delete", err)
	}
	return rec, ok, nil
}

func (c *Category) store(ctx context.Context, raws []core.Record) ([]string, error) {
	ids := make([]string, 0, len(raws))
	for _, raw := range raws {
		id := uuid.NewString()
		if err := c.table.Put(ctx, id, normalize(raw)); err != nil {
			return nil, c.wrap("create", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Category) revive(ctx context.Context, op *core.OpCtx, id string, rec core.Record, opts core.LoadOptions) (core.Entry, error) {
	e, err := c.kind.Revive(ctx, c.reg, op, id, rec, opts)
	if err != nil {
		return nil, fmt.Errorf("revive %s %s in %s: %w", c.kind.Type, id, c.reg.name, err)
	}
	return e, nil
}

func (c *Category) wrap(action string, err error) error {
	return fmt.Errorf("%s %s in %s: %w", action, c.kind.Type, c.reg.name, err)
}

func normalize(raw core.Record) core.Record {
	if raw == nil {
		return core.Record{}
	}
	return raw
}
