package testutil

import (
	"context"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/entry"
)

// Mod is a weapon mod, usually stored in a weapon's inventory.
type Mod struct {
	entry.Base
	LID  string
	Name string
}

func (m *Mod) FallbackLID() string { return m.LID }

func (m *Mod) Load(_ context.Context, raw core.Record) error {
	m.LID = raw.LID()
	m.Name = raw.String("name")
	return nil
}

func (m *Mod) Save() core.Record {
	return m.Overlay(core.Record{"lid": m.LID, "name": m.Name})
}

// Weapon owns an inventory of mods and depends on its deployables.
type Weapon struct {
	entry.Inventoried
	LID         string
	Name        string
	Damage      int
	Deployables []*Deployable
}

func (w *Weapon) FallbackLID() string { return w.LID }

func (w *Weapon) Load(ctx context.Context, raw core.Record) error {
	var data struct {
		LID         string     `json:"lid"`
		Name        string     `json:"name"`
		Damage      int        `json:"damage"`
		Deployables []core.Ref `json:"deployables"`
	}
	if err := raw.Decode(&data); err != nil {
		return err
	}
	w.LID, w.Name, w.Damage = data.LID, data.Name, data.Damage
	w.Deployables = entry.ResolveAllAs[*Deployable](ctx, w, data.Deployables)
	return nil
}

func (w *Weapon) Save() core.Record {
	return w.Overlay(core.Record{
		"lid":         w.LID,
		"name":        w.Name,
		"damage":      w.Damage,
		"deployables": core.RefsOf(w.Deployables),
	})
}

func (w *Weapon) AssocEntries(context.Context) ([]core.Entry, error) {
	return entry.Entries(w.Deployables), nil
}

// Mods lists the mods stored in the weapon's inventory.
func (w *Weapon) Mods(ctx context.Context) ([]*Mod, error) {
	items, err := w.OwnedItems(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Mod
	for _, it := range items {
		if m, ok := it.(*Mod); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Deployable refers back to the weapon deploying it, closing a cycle.
type Deployable struct {
	entry.Base
	LID   string
	Name  string
	Owner *Weapon
}

func (d *Deployable) FallbackLID() string { return d.LID }

func (d *Deployable) Load(ctx context.Context, raw core.Record) error {
	d.LID = raw.LID()
	d.Name = raw.String("name")
	if ref, ok := core.RefFrom(raw["owner"]); ok {
		d.Owner, _ = entry.ResolveAs[*Weapon](ctx, d, ref)
	}
	return nil
}

func (d *Deployable) Save() core.Record {
	fields := core.Record{"lid": d.LID, "name": d.Name, "owner": nil}
	if d.Owner != nil {
		fields["owner"] = d.Owner.AsRef()
	}
	return d.Overlay(fields)
}

func (d *Deployable) AssocEntries(context.Context) ([]core.Entry, error) {
	if d.Owner == nil {
		return nil, nil
	}
	return []core.Entry{d.Owner}, nil
}

// Frame carries integrated weapons.
type Frame struct {
	entry.Base
	LID        string
	Name       string
	Integrated []*Weapon
}

func (f *Frame) FallbackLID() string { return f.LID }

func (f *Frame) Load(ctx context.Context, raw core.Record) error {
	f.LID = raw.LID()
	f.Name = raw.String("name")
	f.Integrated = entry.ResolveAllAs[*Weapon](ctx, f, core.RefsFrom(raw["integrated"]))
	return nil
}

func (f *Frame) Save() core.Record {
	return f.Overlay(core.Record{"lid": f.LID, "name": f.Name, "integrated": core.RefsOf(f.Integrated)})
}

func (f *Frame) AssocEntries(context.Context) ([]core.Entry, error) {
	return entry.Entries(f.Integrated), nil
}

// Mech depends on its frame and loadout and points at its pilot.
type Mech struct {
	entry.Base
	Name    string
	Frame   *Frame
	Loadout []*Weapon
	Pilot   *Pilot
}

func (m *Mech) Load(ctx context.Context, raw core.Record) error {
	m.Name = raw.String("name")
	if ref, ok := core.RefFrom(raw["frame"]); ok {
		m.Frame, _ = entry.ResolveAs[*Frame](ctx, m, ref)
	}
	if ref, ok := core.RefFrom(raw["pilot"]); ok {
		m.Pilot, _ = entry.ResolveAs[*Pilot](ctx, m, ref)
	}
	m.Loadout = entry.ResolveAllAs[*Weapon](ctx, m, core.RefsFrom(raw["loadout"]))
	return nil
}

func (m *Mech) Save() core.Record {
	fields := core.Record{"name": m.Name, "loadout": core.RefsOf(m.Loadout), "frame": nil, "pilot": nil}
	if m.Frame != nil {
		fields["frame"] = m.Frame.AsRef()
	}
	if m.Pilot != nil {
		fields["pilot"] = m.Pilot.AsRef()
	}
	return m.Overlay(fields)
}

func (m *Mech) AssocEntries(context.Context) ([]core.Entry, error) {
	var out []core.Entry
	if m.Frame != nil {
		out = append(out, m.Frame)
	}
	return append(out, entry.Entries(m.Loadout)...), nil
}

// Pilot keeps mechs and gear in its inventory.
type Pilot struct {
	entry.Inventoried
	LID      string
	Name     string
	Licenses []*License
}

func (p *Pilot) FallbackLID() string { return p.LID }

func (p *Pilot) Load(ctx context.Context, raw core.Record) error {
	p.LID = raw.LID()
	p.Name = raw.String("name")
	p.Licenses = entry.ResolveAllAs[*License](ctx, p, core.RefsFrom(raw["licenses"]))
	return nil
}

func (p *Pilot) Save() core.Record {
	return p.Overlay(core.Record{"lid": p.LID, "name": p.Name, "licenses": core.RefsOf(p.Licenses)})
}

func (p *Pilot) AssocEntries(context.Context) ([]core.Entry, error) {
	return entry.Entries(p.Licenses), nil
}

// License is a plain leaf entry, typically found by lid.
type License struct {
	entry.Base
	LID  string
	Name string
	Rank int
}

func (l *License) FallbackLID() string { return l.LID }

func (l *License) Load(_ context.Context, raw core.Record) error {
	var data struct {
		LID  string `json:"lid"`
		Name string `json:"name"`
		Rank int    `json:"rank"`
	}
	if err := raw.Decode(&data); err != nil {
		return err
	}
	l.LID, l.Name, l.Rank = data.LID, data.Name, data.Rank
	return nil
}

func (l *License) Save() core.Record {
	return l.Overlay(core.Record{"lid": l.LID, "name": l.Name, "rank": l.Rank})
}
