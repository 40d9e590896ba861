package table

import (
	"context"
	"sync"

	"github.com/hupe1980/entitymesh/core"
)

// InMemoryBackend is a volatile Backend holding one InMemoryTable per
// (registry, entry type) pair. It is safe for concurrent access and is the
// default backend of every Env.
type InMemoryBackend struct {
	mu     sync.Mutex
	tables map[string]map[core.EntryType]*InMemoryTable
	closed bool
}

// NewInMemoryBackend constructs an empty in-memory backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{tables: make(map[string]map[core.EntryType]*InMemoryTable)}
}

// Table returns the table for (regName, t), creating it lazily.
func (b *InMemoryBackend) Table(_ context.Context, regName string, t core.EntryType) (core.Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, core.ErrBackendClosed
	}
	byType, ok := b.tables[regName]
	if !ok {
		byType = make(map[core.EntryType]*InMemoryTable)
		b.tables[regName] = byType
	}
	tbl, ok := byType[t]
	if !ok {
		tbl = NewInMemoryTable()
		byType[t] = tbl
	}
	return tbl, nil
}

// Registries returns the names of every registry that requested a table.
func (b *InMemoryBackend) Registries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.tables))
	for name := range b.tables {
		out = append(out, name)
	}
	return out
}

// Close drops all tables. Further Table calls fail with core.ErrBackendClosed.
func (b *InMemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.tables = nil
	return nil
}

// InMemoryTable is a map-backed core.Table preserving insertion order.
type InMemoryTable struct {
	mu    sync.RWMutex
	rows  map[string]core.Record
	order []string
}

// NewInMemoryTable constructs an empty table.
func NewInMemoryTable() *InMemoryTable {
	return &InMemoryTable{rows: make(map[string]core.Record)}
}

// Get returns a clone of the record stored under id.
func (t *InMemoryTable) Get(_ context.Context, id string) (core.Record, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.rows[id]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

// Put stores a clone of rec under id, inserting or overwriting.
func (t *InMemoryTable) Put(_ context.Context, id string, rec core.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = rec.Clone()
	return nil
}

// Delete removes and returns the record stored under id.
func (t *InMemoryTable) Delete(_ context.Context, id string) (core.Record, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.rows[id]
	if !ok {
		return nil, false, nil
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return rec, true, nil
}

// Has reports whether id is stored.
func (t *InMemoryTable) Has(_ context.Context, id string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rows[id]
	return ok, nil
}

// Scan visits a snapshot of the table in insertion order.
func (t *InMemoryTable) Scan(ctx context.Context, fn func(id string, rec core.Record) bool) error {
	t.mu.RLock()
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	recs := make([]core.Record, len(ids))
	for i, id := range ids {
		recs[i] = t.rows[id].Clone()
	}
	t.mu.RUnlock()

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(id, recs[i]) {
			return nil
		}
	}
	return nil
}

// Len returns the number of stored records.
func (t *InMemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
