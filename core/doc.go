// Package core provides the foundational types and contracts of entitymesh.
// It defines the core abstractions for:
//
//   - EntryType tags naming each kind of storable entity
//   - Record, the mergeable raw data behind every entity
//   - Ref, a serializable pointer to an entity in some registry
//   - OpCtx, the per-operation cache of revived live entries
//   - Entry / InventoriedEntry, the live projection of a record
//   - Category / Registry, the per-type CRUD and routing contracts
//   - Table / Backend, the raw storage seam implemented by the table packages
//
// The package keeps implementation concerns (routing, insinuation, storage)
// out of scope, exposing small interfaces so backends and domain entities can
// be plugged in independently.
package core
