// Package logging provides a minimal logging interface and adapters for entitymesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that registries and tables use. Soft misses such as an unresolvable
// reference or an update targeting a deleted record surface only as warnings
// on this channel. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MeshLogger with registry/operation context and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh, err := entitymesh.New(catalog, func(o *entitymesh.Options) { o.Logger = logger })
package logging
