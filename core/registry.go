package core

import "context"

// Predicate selects raw records during lookups.
type Predicate func(id string, rec Record) bool

// Category manages the raw table and live revival for one entry type within one
// registry. Misses are reported through the boolean result, never as errors;
// errors indicate backend failures.
type Category interface {
	Type() EntryType
	Registry() Registry

	LookupRaw(ctx context.Context, pred Predicate) (string, Record, bool, error)
	FilterRaw(ctx context.Context, pred Predicate) (map[string]Record, error)
	LookupLive(ctx context.Context, op *OpCtx, pred Predicate) (Entry, bool, error)
	LookupLID(ctx context.Context, op *OpCtx, lid string) (Entry, bool, error)

	GetRaw(ctx context.Context, id string) (Record, bool, error)
	RawMap(ctx context.Context) (map[string]Record, error)
	GetLive(ctx context.Context, op *OpCtx, id string) (Entry, bool, error)
	ListLive(ctx context.Context, op *OpCtx) ([]Entry, error)

	CreateManyLive(ctx context.Context, op *OpCtx, raws ...Record) ([]Entry, error)
	CreateLive(ctx context.Context, op *OpCtx, raw Record) (Entry, error)
	CreateManyRaw(ctx context.Context, raws ...Record) ([]Ref, error)
	CreateRaw(ctx context.Context, raw Record) (Ref, error)
	CreateDefault(ctx context.Context, op *OpCtx) (Entry, error)

	// Update writes back each entry's Save. Entries whose id is gone are
	// skipped with a warning.
	Update(ctx context.Context, entries ...Entry) error
	// WriteRaw overwrites an existing record. It reports false, with a warning,
	// when id is absent.
	WriteRaw(ctx context.Context, id string, rec Record) (bool, error)
	DeleteID(ctx context.Context, id string) (Record, bool, error)
}

// Registry owns one category per entry type and routes resolution, including to
// other registries addressed by name.
type Registry interface {
	Name() string
	Category(t EntryType) (Category, bool)
	Categories() []Category
	Hooks() RegistryHooks

	// Resolve never fails: unresolvable references and internal errors yield
	// (nil, false).
	Resolve(ctx context.Context, op *OpCtx, ref Ref) (Entry, bool)
	ResolveMany(ctx context.Context, op *OpCtx, refs []Ref) []Entry

	// SwitchReg locates, or lazily creates, the registry with the given name.
	SwitchReg(ctx context.Context, name string) (Registry, bool)
	// SwitchRegInv locates or creates the inventory owned by owner. The
	// result is reachable through SwitchReg under a name derived from owner.
	SwitchRegInv(ctx context.Context, owner Ref) (Registry, error)
	// InventoryFor reports the owner when this registry is an inventory.
	InventoryFor() (Ref, bool)

	CreateLive(ctx context.Context, op *OpCtx, t EntryType, raw Record) (Entry, error)
	CreateDefault(ctx context.Context, op *OpCtx, t EntryType) (Entry, error)
	GetLive(ctx context.Context, op *OpCtx, t EntryType, id string) (Entry, bool, error)
	GetRaw(ctx context.Context, t EntryType, id string) (Record, bool, error)
	Delete(ctx context.Context, t EntryType, id string) (Record, bool, error)
}
