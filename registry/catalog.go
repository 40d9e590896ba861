package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/entitymesh/core"
)

// Catalog maps each declared entry type to the kind handling it. Every
// registry built from a catalog carries one category per declared type.
type Catalog struct {
	mu    sync.RWMutex
	types []core.EntryType
	kinds map[core.EntryType]core.Kind
}

// NewCatalog declares the given entry types, or every core entry type when none
// are given. Kinds are attached with Register.
func NewCatalog(types ...core.EntryType) *Catalog {
	if len(types) == 0 {
		types = core.EntryTypes()
	}
	declared := make([]core.EntryType, len(types))
	copy(declared, types)
	return &Catalog{types: declared, kinds: make(map[core.EntryType]core.Kind, len(types))}
}

// Register attaches kinds to their types, replacing earlier registrations. It
// returns the catalog for chaining.
func (c *Catalog) Register(kinds ...core.Kind) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range kinds {
		c.kinds[k.Type] = k
	}
	return c
}

// Kind returns the kind registered for t.
func (c *Catalog) Kind(t core.EntryType) (core.Kind, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.kinds[t]
	return k, ok
}

// Types returns the declared entry types in declaration order.
func (c *Catalog) Types() []core.EntryType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.EntryType, len(c.types))
	copy(out, c.types)
	return out
}

// Missing returns the declared types lacking a kind with a reviver.
func (c *Catalog) Missing() []core.EntryType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []core.EntryType
	for _, t := range c.types {
		if k, ok := c.kinds[t]; !ok || k.Revive == nil {
			out = append(out, t)
		}
	}
	return out
}

// Validate fails with core.ErrCategoryMissing for every declared type that has
// no usable kind, and with core.ErrUnknownEntryType for undeclared tags.
func (c *Catalog) Validate() error {
	var errs []error
	for _, t := range c.Types() {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("%w: %q", core.ErrUnknownEntryType, t))
		}
	}
	for _, t := range c.Missing() {
		errs = append(errs, fmt.Errorf("%w: %s", core.ErrCategoryMissing, t))
	}
	return errors.Join(errs...)
}
