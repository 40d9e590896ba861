package testutil

import "github.com/hupe1980/entitymesh/core"

// RecordBuilder provides a fluent helper for constructing raw records in tests.
// Example:
//
//	rec := NewRecordBuilder().LID("mw_sword").Name("Sword").Field("damage", 3).Build()
type RecordBuilder struct {
	rec core.Record
}

// NewRecordBuilder creates a builder for an empty record.
func NewRecordBuilder() *RecordBuilder { return &RecordBuilder{rec: core.Record{}} }

// LID sets the fallback identifier (chainable).
func (b *RecordBuilder) LID(lid string) *RecordBuilder { b.rec[core.LIDField] = lid; return b }

// Name sets the name field (chainable).
func (b *RecordBuilder) Name(n string) *RecordBuilder { b.rec["name"] = n; return b }

// Field sets an arbitrary field (chainable).
func (b *RecordBuilder) Field(k string, v any) *RecordBuilder { b.rec[k] = v; return b }

// Ref stores a single reference under k (chainable).
func (b *RecordBuilder) Ref(k string, r core.Ref) *RecordBuilder { b.rec[k] = r; return b }

// Refs stores a reference list under k (chainable).
func (b *RecordBuilder) Refs(k string, refs ...core.Ref) *RecordBuilder {
	b.rec[k] = append([]core.Ref{}, refs...)
	return b
}

// Build returns a copy of the accumulated record.
func (b *RecordBuilder) Build() core.Record { return b.rec.Clone() }
