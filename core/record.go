package core

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// LIDField is the record field carrying an entity's human readable, stable
// identifier. References fall back to it when an id does not resolve.
const LIDField = "lid"

// Record is the raw, serializable data behind one entity. It carries no live
// identity and is owned by exactly one category table.
type Record map[string]any

// Clone returns a deep copy of r. Nested maps, slices and references are copied
// so the result can diverge freely from r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case Record:
		return tv.Clone()
	case map[string]any:
		return map[string]any(Record(tv).Clone())
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	case []Ref:
		out := make([]Ref, len(tv))
		copy(out, tv)
		return out
	case *Ref:
		if tv == nil {
			return tv
		}
		cp := *tv
		return &cp
	case []string:
		out := make([]string, len(tv))
		copy(out, tv)
		return out
	default:
		return v
	}
}

// Overlay returns a copy of r with fields laid over it. Keys of r that fields
// does not mention are preserved, so partially understood records survive a
// load/save round trip.
func (r Record) Overlay(fields Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(fields))
	}
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the string stored at key, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// LID returns the record's fallback identifier.
func (r Record) LID() string { return r.String(LIDField) }

// Decode maps r onto out, a pointer to a struct tagged with json tags.
func (r Record) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       refDecodeHook,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(r)); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// EncodeRecord converts a json tagged struct into a Record.
func EncodeRecord(in any) (Record, error) {
	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return Record(out), nil
}
