package core

import "context"

// MidInsinuation describes one migrated entry right before its final write.
// Pending is the record about to be written; pre-write hooks may edit it.
type MidInsinuation struct {
	Type    EntryType
	From    Ref
	To      Ref
	Source  Entry
	Pending Record
}

// InsinuationRecord describes one migrated entry after all writes completed.
type InsinuationRecord struct {
	Type    EntryType
	From    Ref
	NewItem Entry
}

// Relinker may substitute an existing destination entry for src. Returning
// (nil, nil) lets insinuation create a fresh copy.
type Relinker func(ctx context.Context, src Entry, dest Registry, destCat Category) (Entry, error)

// PreFinalWriteHook runs before a migrated record is written.
type PreFinalWriteHook func(ctx context.Context, rec *MidInsinuation, dest Registry, destCat Category) error

// PostFinalWriteHook runs after the migrated entry was re-resolved.
type PostFinalWriteHook func(ctx context.Context, rec InsinuationRecord, dest Registry, destCat Category) error

// InsinuateHooks are supplied per call. They run before registry hooks.
type InsinuateHooks struct {
	Relinker Relinker
	// IncludeRelinkedInventories walks the inventory of relinked entries too.
	IncludeRelinkedInventories bool
	PreFinalWrite              PreFinalWriteHook
	PostFinalWrite             PostFinalWriteHook
}

// RegistryHooks are installed on a registry and run after call-site hooks.
type RegistryHooks struct {
	PreFinalWrite  PreFinalWriteHook
	PostFinalWrite PostFinalWriteHook
}
