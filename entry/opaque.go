package entry

import (
	"context"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/registry"
)

// Opaque is a live entry for types without a domain shape. It keeps the raw
// record as loaded and lets callers overlay individual fields.
type Opaque struct {
	Base
	fields core.Record
}

// Load is a no-op; the record is retained as OrigData.
func (o *Opaque) Load(context.Context, core.Record) error {
	o.fields = core.Record{}
	return nil
}

// Get returns a field, preferring values set since load.
func (o *Opaque) Get(key string) (any, bool) {
	if v, ok := o.fields[key]; ok {
		return v, true
	}
	v, ok := o.orig[key]
	return v, ok
}

// Set overlays a field written on the next Save.
func (o *Opaque) Set(key string, value any) { o.fields[key] = value }

// Save returns the original record with every Set field applied.
func (o *Opaque) Save() core.Record { return o.Overlay(o.fields) }

// OpaqueKind registers t with Opaque entries and no default template.
func OpaqueKind(t core.EntryType) core.Kind {
	return KindOf(t, func(b Base) *Opaque { return &Opaque{Base: b} }, nil)
}

// RegisterOpaque registers OpaqueKind for every declared type of c that has no
// kind yet.
func RegisterOpaque(c *registry.Catalog) {
	for _, t := range c.Missing() {
		c.Register(OpaqueKind(t))
	}
}
