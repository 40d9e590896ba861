// Package entitymesh provides a high-level facade over the registry
// environment. Most applications interact with this package by:
//  1. Building a registry.Catalog of entry kinds
//  2. Creating a Mesh via New() or NewFromConfig() (optionally overriding the
//     default in-memory backend)
//  3. Opening named registries and moving entity graphs between them with
//     Insinuate
package entitymesh

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/entitymesh/config"
	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/logging"
	"github.com/hupe1980/entitymesh/registry"
)

// Options configures the Mesh instance.
type Options struct {
	// Backend stores raw records (defaults to the in-memory backend)
	Backend core.Backend

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// TracerProvider for resolve and insinuate spans (defaults to noop)
	TracerProvider trace.TracerProvider

	// Hooks installed on every registry
	Hooks core.RegistryHooks

	// Flagger seeds the flags of newly created entries
	Flagger func() map[string]any
}

// Mesh is the high-level facade aggregating the environment and its registries.
type Mesh struct {
	env *registry.Env
}

// New creates a Mesh over catalog. Unset options fall back to in-memory and
// no-op implementations.
func New(catalog *registry.Catalog, optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	env, err := registry.NewEnv(catalog, func(o *registry.Options) {
		if opts.Backend != nil {
			o.Backend = opts.Backend
		}
		if opts.Logger != nil {
			o.Logger = opts.Logger
		}
		if opts.TracerProvider != nil {
			o.TracerProvider = opts.TracerProvider
		}
		o.Hooks = opts.Hooks
		o.Flagger = opts.Flagger
	})
	if err != nil {
		return nil, err
	}
	return &Mesh{env: env}, nil
}

// NewFromConfig opens the backend and logger described by cfg. Logs go to
// logOut (stderr when nil). optFns run after the config is applied.
func NewFromConfig(ctx context.Context, catalog *registry.Catalog, cfg *config.Config, logOut io.Writer, optFns ...func(o *Options)) (*Mesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := cfg.OpenBackend(ctx)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	logger := cfg.Logger(logOut).WithComponent("entitymesh")

	m, err := New(catalog, append([]func(o *Options){func(o *Options) {
		o.Backend = backend
		o.Logger = logger
	}}, optFns...)...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return m, nil
}

// Env exposes the underlying environment.
func (m *Mesh) Env() *registry.Env { return m.env }

// Registry returns the registry called name, creating it on first use.
func (m *Mesh) Registry(ctx context.Context, name string) (*registry.Registry, error) {
	return m.env.Registry(ctx, name)
}

// NewRegistry creates a registry with a unique generated name.
func (m *Mesh) NewRegistry(ctx context.Context) (*registry.Registry, error) {
	return m.env.NewRegistry(ctx)
}

// Insinuate copies src and everything reachable from it into dest. A nil op
// starts a fresh operation context.
func (m *Mesh) Insinuate(ctx context.Context, src core.Entry, dest core.Registry, op *core.OpCtx, hooks *core.InsinuateHooks) (core.Entry, error) {
	return registry.Insinuate(ctx, src, dest, op, hooks)
}

// Close releases the backend.
func (m *Mesh) Close() error { return m.env.Close() }
