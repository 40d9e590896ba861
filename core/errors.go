package core

import "errors"

var (
	// ErrCategoryMissing indicates a registry was built without a category for a declared type.
	ErrCategoryMissing = errors.New("category not set")

	// ErrUnknownEntryType indicates a tag outside the declared entry types.
	ErrUnknownEntryType = errors.New("unknown entry type")

	// ErrDeletedEntry indicates an insinuation root vanished before it could be migrated.
	ErrDeletedEntry = errors.New("cannot insinuate a deleted entry")

	// ErrInsinuationIncomplete indicates the migrated root could not be resolved in its destination.
	ErrInsinuationIncomplete = errors.New("insinuation did not produce a resolvable root")

	// ErrTypeMismatch indicates a relinker returned an entry of a different type.
	ErrTypeMismatch = errors.New("entry type mismatch")

	// ErrBackendClosed indicates use of a backend after Close.
	ErrBackendClosed = errors.New("backend closed")
)
