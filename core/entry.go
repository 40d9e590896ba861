package core

import "context"

// State tracks where a live entry is in its construction.
type State int

const (
	// StateConstructing is set while the entry struct is being built.
	StateConstructing State = iota
	// StateLoading is set while the entry hydrates from its raw record.
	StateLoading
	// StateReady is set once hydration succeeded.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Entry is the live, hydrated projection of one raw record. It is bound to one
// (registry, id) pair and one OpCtx for its whole life.
type Entry interface {
	EntryType() EntryType
	RegistryID() string
	Registry() Registry
	OpCtx() *OpCtx
	// OrigData is the record the entry was loaded from. Save overlays onto it.
	OrigData() Record
	State() State
	// Flags holds ephemeral, never persisted data attached to this instance.
	Flags() map[string]any
	// FallbackLID is the human readable identifier placed in AsRef.
	FallbackLID() string
	AsRef() Ref

	// Load hydrates managed fields from raw. Referenced entries should be
	// resolved through Registry().Resolve with OpCtx().
	Load(ctx context.Context, raw Record) error
	// Save returns OrigData overlaid with the currently managed fields.
	Save() Record

	// AssocEntries returns the entries that must accompany this one whenever it
	// is migrated. It is a dependency edge set, distinct from inventory contents.
	AssocEntries(ctx context.Context) ([]Entry, error)
	Writeback(ctx context.Context) error
	DestroyEntry(ctx context.Context) error
	// Refreshed re-resolves this entry into op, or a new OpCtx when op is nil.
	Refreshed(ctx context.Context, op *OpCtx) (Entry, bool)
}

// InventoriedEntry is an entry owning a nested registry, its inventory.
type InventoriedEntry interface {
	Entry
	Inventory(ctx context.Context) (Registry, error)
	// OwnedItems lists the entries contained in the inventory that travel with
	// the owner during migration.
	OwnedItems(ctx context.Context) ([]Entry, error)
}

// LoadOptions carries per-revival settings.
type LoadOptions struct {
	// Flags seeds Entry.Flags of a freshly constructed entry.
	Flags map[string]any
}

// ReviveFunc turns a raw record into a live entry. Implementations must return
// the entry already cached in op for (reg, id) before constructing a new one.
type ReviveFunc func(ctx context.Context, reg Registry, op *OpCtx, id string, raw Record, opts LoadOptions) (Entry, error)

// Kind binds an entry type to its reviver and an optional default template used
// by Category.CreateDefault.
type Kind struct {
	Type    EntryType
	Revive  ReviveFunc
	Default func() Record
}
