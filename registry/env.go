package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/logging"
	"github.com/hupe1980/entitymesh/table"
)

const tracerName = "github.com/hupe1980/entitymesh/registry"

// Options configures an Env using the functional options pattern. Every field
// has a default suited for tests and local development.
type Options struct {
	// Backend stores the raw records of every registry.
	// Defaults to table.NewInMemoryBackend().
	Backend core.Backend

	// Logger receives soft misses (unresolvable references, updates of
	// deleted records) as warnings. Defaults to logging.NoOpLogger.
	Logger logging.Logger

	// TracerProvider supplies the tracer used for resolution and insinuation
	// spans. Defaults to a noop provider.
	TracerProvider trace.TracerProvider

	// Hooks are installed on every registry created by the Env. They run
	// after the hooks supplied to an individual Insinuate call.
	Hooks core.RegistryHooks

	// Flagger seeds Entry.Flags for entries created through a category.
	Flagger func() map[string]any
}

// Env is the explicit environment shared by a family of registries. It owns
// the backend, the catalog, every registry by name, and the reverse lookup
// from inventory registries to their owning entries. Env is safe for
// concurrent use.
type Env struct {
	catalog *Catalog
	backend core.Backend
	tracer  trace.Tracer
	hooks   core.RegistryHooks
	flagger func() map[string]any
	*loggerAdapter

	mu         sync.Mutex
	registries map[string]*Registry
	owners     map[string]core.Ref
}

// NewEnv validates catalog and builds an environment around it.
func NewEnv(catalog *Catalog, optFns ...func(o *Options)) (*Env, error) {
	if catalog == nil {
		return nil, fmt.Errorf("registry: nil catalog")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	opts := Options{
		Backend:        table.NewInMemoryBackend(),
		Logger:         logging.NoOpLogger{},
		TracerProvider: noop.NewTracerProvider(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = noop.NewTracerProvider()
	}
	if opts.Backend == nil {
		opts.Backend = table.NewInMemoryBackend()
	}

	return &Env{
		catalog:       catalog,
		backend:       opts.Backend,
		tracer:        opts.TracerProvider.Tracer(tracerName),
		hooks:         opts.Hooks,
		flagger:       opts.Flagger,
		loggerAdapter: newLoggerAdapter(opts.Logger),
		registries:    make(map[string]*Registry),
		owners:        make(map[string]core.Ref),
	}, nil
}

// Catalog returns the catalog registries are built from.
func (e *Env) Catalog() *Catalog { return e.catalog }

// Backend returns the shared backend.
func (e *Env) Backend() core.Backend { return e.backend }

// Registry returns the registry called name, creating it on first use.
// Creation fails with core.ErrCategoryMissing if the catalog lost a kind.
func (e *Env) Registry(ctx context.Context, name string) (*Registry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.registries[name]; ok {
		return r, nil
	}
	r, err := newRegistry(ctx, e, name)
	if err != nil {
		return nil, err
	}
	e.registries[name] = r
	return r, nil
}

// NewRegistry creates a registry with a fresh unique name.
func (e *Env) NewRegistry(ctx context.Context) (*Registry, error) {
	return e.Registry(ctx, uuid.NewString())
}

// Lookup returns an existing registry without creating one.
func (e *Env) Lookup(name string) (*Registry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.registries[name]
	return r, ok
}

// Names returns the names of all registries created so far.
func (e *Env) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.registries))
	for name := range e.registries {
		out = append(out, name)
	}
	return out
}

// InventoryOwner reports which entry owns the inventory registry called name.
func (e *Env) InventoryOwner(name string) (core.Ref, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, ok := e.owners[name]
	return ref, ok
}

func (e *Env) recordOwner(name string, owner core.Ref) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owners[name] = owner
}

func (e *Env) flags() map[string]any {
	if e.flagger == nil {
		return nil
	}
	return e.flagger()
}

// Close releases the backend.
func (e *Env) Close() error {
	return e.backend.Close()
}

// InventoryName derives the registry name of the inventory owned by owner.
func InventoryName(owner core.Ref) string {
	return owner.RegName + "/" + owner.ID
}
