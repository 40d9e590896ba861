// Package entry provides the embeddable building blocks for live entries.
//
// Domain types embed Base (or Inventoried for entries owning an inventory),
// implement Load and Save, and register a core.Kind whose ReviveFunc is built
// with Reviver. Base supplies identity, reference construction, writeback,
// destruction, refresh and insinuation on top of those two methods:
//
//	type Mod struct {
//		entry.Base
//		Name string
//	}
//
//	func (m *Mod) Load(_ context.Context, raw core.Record) error {
//		m.Name = raw.String("name")
//		return nil
//	}
//
//	func (m *Mod) Save() core.Record { return m.Overlay(core.Record{"name": m.Name}) }
//
//	kind := entry.KindOf(core.WeaponMod, func(b entry.Base) *Mod {
//		return &Mod{Base: b}
//	}, nil)
package entry
