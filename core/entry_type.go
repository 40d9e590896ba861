package core

import "fmt"

// EntryType names a kind of storable entity. The set is closed; every registry
// carries exactly one category per declared type.
type EntryType string

const (
	CoreBonus    EntryType = "core_bonus"
	Deployable   EntryType = "deployable"
	Environment  EntryType = "environment"
	Faction      EntryType = "faction"
	Frame        EntryType = "frame"
	Mech         EntryType = "mech"
	License      EntryType = "license"
	Manufacturer EntryType = "manufacturer"
	Npc          EntryType = "npc"
	NpcClass     EntryType = "npc_class"
	NpcTemplate  EntryType = "npc_template"
	NpcFeature   EntryType = "npc_feature"
	WeaponMod    EntryType = "weapon_mod"
	MechSystem   EntryType = "mech_system"
	MechWeapon   EntryType = "mech_weapon"
	Organization EntryType = "organization"
	PilotArmor   EntryType = "pilot_armor"
	PilotGear    EntryType = "pilot_gear"
	PilotWeapon  EntryType = "pilot_weapon"
	Pilot        EntryType = "pilot"
	Reserve      EntryType = "reserve"
	Sitrep       EntryType = "sitrep"
	Skill        EntryType = "skill"
	Status       EntryType = "status"
	Tag          EntryType = "tag"
	Talent       EntryType = "talent"
	Quirk        EntryType = "quirk"
)

var entryTypes = []EntryType{
	CoreBonus, Deployable, Environment, Faction, Frame, Mech, License, Manufacturer,
	Npc, NpcClass, NpcTemplate, NpcFeature, WeaponMod, MechSystem, MechWeapon,
	Organization, PilotArmor, PilotGear, PilotWeapon, Pilot, Reserve, Sitrep,
	Skill, Status, Tag, Talent, Quirk,
}

// EntryTypes returns every declared entry type in declaration order.
func EntryTypes() []EntryType {
	out := make([]EntryType, len(entryTypes))
	copy(out, entryTypes)
	return out
}

// Valid reports whether t is one of the declared entry types.
func (t EntryType) Valid() bool {
	for _, et := range entryTypes {
		if et == t {
			return true
		}
	}
	return false
}

func (t EntryType) String() string { return string(t) }

// ParseEntryType converts s into a declared EntryType.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntryType, s)
	}
	return t, nil
}
