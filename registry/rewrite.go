package registry

import "github.com/hupe1980/entitymesh/core"

type refKey struct {
	reg string
	id  string
}

// refMapping translates references to migrated entries into references to
// their destination copies.
type refMapping struct {
	to map[refKey]core.Ref
}

func newRefMapping() *refMapping {
	return &refMapping{to: map[refKey]core.Ref{}}
}

func (m *refMapping) add(from, to core.Ref) {
	m.to[refKey{reg: from.RegName, id: from.ID}] = to
}

func (m *refMapping) lookup(ref core.Ref, localReg string) (core.Ref, bool) {
	reg := ref.RegName
	if reg == "" {
		reg = localReg
	}
	to, ok := m.to[refKey{reg: reg, id: ref.ID}]
	return to, ok
}

// rewriteRecord returns a copy of rec where every embedded reference to a
// migrated entry points at its destination copy. References without a
// registry name are interpreted relative to localReg.
func (m *refMapping) rewriteRecord(rec core.Record, localReg string) core.Record {
	out := make(core.Record, len(rec))
	for k, v := range rec {
		out[k] = m.rewrite(v, localReg)
	}
	return out
}

func (m *refMapping) rewrite(v any, localReg string) any {
	switch tv := v.(type) {
	case core.Ref:
		return m.rewriteRef(tv, localReg)
	case *core.Ref:
		if tv == nil {
			return tv
		}
		r := m.rewriteRef(*tv, localReg)
		return &r
	case []core.Ref:
		out := make([]core.Ref, len(tv))
		for i, r := range tv {
			out[i] = m.rewriteRef(r, localReg)
		}
		return out
	case core.Record:
		return m.rewriteMap(tv, localReg)
	case map[string]any:
		return map[string]any(m.rewriteMap(core.Record(tv), localReg))
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = m.rewrite(e, localReg)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(tv))
		for i, e := range tv {
			out[i] = map[string]any(m.rewriteMap(core.Record(e), localReg))
		}
		return out
	default:
		return v
	}
}

// rewriteRef maps r to its destination copy. An unmapped reference without a
// registry name is pinned to localReg, otherwise it would resolve against the
// destination registry. Lid-only references stay relative.
func (m *refMapping) rewriteRef(r core.Ref, localReg string) core.Ref {
	if r.ID == "" {
		return r
	}
	if to, ok := m.lookup(r, localReg); ok {
		return to
	}
	if r.RegName == "" {
		r.RegName = localReg
	}
	return r
}

// rewriteMap handles both nested records and the JSON shape of a Ref.
func (m *refMapping) rewriteMap(rec core.Record, localReg string) core.Record {
	if ref, ok := core.RefFrom(rec); ok {
		if to, hit := m.lookup(ref, localReg); hit && ref.ID != "" {
			out := rec.Clone()
			out["id"] = to.ID
			out["reg_name"] = to.RegName
			out["fallback_lid"] = to.FallbackLID
			if to.Type != "" {
				out["type"] = string(to.Type)
			}
			return out
		}
		out := rec.Clone()
		if ref.ID != "" && ref.RegName == "" {
			out["reg_name"] = localReg
		}
		return out
	}
	return m.rewriteRecord(rec, localReg)
}
