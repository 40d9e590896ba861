// Package registry implements the store side of entitymesh: the Catalog of
// entry kinds, the Env that owns every registry and its backend, the Registry
// routing resolution across registries, the Category CRUD and revival
// machinery, and Insinuate, which migrates an entry graph between registries.
//
// A typical setup:
//
//	catalog := registry.NewCatalog().Register(weaponKind, modKind)
//	env, err := registry.NewEnv(catalog, func(o *registry.Options) {
//	    o.Logger = logger
//	})
//	reg, err := env.Registry(ctx, "compendium")
//
// All registries of one Env share its backend and the reverse lookup from
// inventory registries to their owners. Separate Envs are fully isolated.
package registry
