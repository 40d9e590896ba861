package core

import (
	"fmt"
	"reflect"
)

// Ref is a serializable pointer to an entity. ID takes precedence; when it is
// empty or fails to resolve, FallbackLID is tried. An empty Type means the kind
// is unknown and lookups scan every category. An empty RegName means the
// registry doing the resolving.
type Ref struct {
	ID          string    `json:"id"`
	FallbackLID string    `json:"fallback_lid"`
	Type        EntryType `json:"type,omitempty"`
	RegName     string    `json:"reg_name"`
}

// LocalRef builds a fallback-only reference, typically used by content that
// only knows an entity's stable identifier.
func LocalRef(regName string, t EntryType, lid string) Ref {
	return Ref{FallbackLID: lid, Type: t, RegName: regName}
}

// Equivalent reports whether r and o address the same record: same id within the
// same registry.
func (r Ref) Equivalent(o Ref) bool {
	return r.ID == o.ID && r.RegName == o.RegName
}

// IsZero reports whether r carries nothing to resolve.
func (r Ref) IsZero() bool {
	return r.ID == "" && r.FallbackLID == ""
}

func (r Ref) String() string {
	t := string(r.Type)
	if t == "" {
		t = "*"
	}
	if r.ID == "" {
		return fmt.Sprintf("%s:%s/~%s", r.RegName, t, r.FallbackLID)
	}
	return fmt.Sprintf("%s:%s/%s", r.RegName, t, r.ID)
}

// RefsOf returns the references of the given entries in order.
func RefsOf[E Entry](entries []E) []Ref {
	out := make([]Ref, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.AsRef())
	}
	return out
}

// RefFrom extracts a reference from a record value. It accepts Ref, *Ref and the
// map shape produced when a record holding a Ref goes through JSON.
func RefFrom(v any) (Ref, bool) {
	switch tv := v.(type) {
	case Ref:
		return tv, true
	case *Ref:
		if tv == nil {
			return Ref{}, false
		}
		return *tv, true
	case Record:
		return refFromMap(tv)
	case map[string]any:
		return refFromMap(tv)
	default:
		return Ref{}, false
	}
}

func refFromMap(m map[string]any) (Ref, bool) {
	id, idOK := m["id"].(string)
	reg, regOK := m["reg_name"].(string)
	if !idOK || !regOK {
		return Ref{}, false
	}
	lid, _ := m["fallback_lid"].(string)
	t, _ := m["type"].(string)
	return Ref{ID: id, FallbackLID: lid, Type: EntryType(t), RegName: reg}, true
}

// RefsFrom extracts references from a record value holding []Ref or a JSON
// decoded list. Elements that are not references are skipped.
func RefsFrom(v any) []Ref {
	switch tv := v.(type) {
	case []Ref:
		out := make([]Ref, len(tv))
		copy(out, tv)
		return out
	case []any:
		out := make([]Ref, 0, len(tv))
		for _, e := range tv {
			if r, ok := RefFrom(e); ok {
				out = append(out, r)
			}
		}
		return out
	case []map[string]any:
		out := make([]Ref, 0, len(tv))
		for _, e := range tv {
			if r, ok := refFromMap(e); ok {
				out = append(out, r)
			}
		}
		return out
	default:
		return nil
	}
}

var refType = reflect.TypeOf(Ref{})

// refDecodeHook lets Record.Decode fill Ref fields from the JSON map shape.
func refDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != refType {
		return data, nil
	}
	if r, ok := RefFrom(data); ok {
		return r, nil
	}
	return data, nil
}
