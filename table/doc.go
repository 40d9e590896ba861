// Package table provides the default in-memory Backend. Records live in
// process-local maps guarded by a RWMutex and are cloned on every read and
// write so callers never share state with the store. Scans visit records in
// insertion order.
//
// Persistent alternatives live in the redis and sqlite subpackages.
package table
