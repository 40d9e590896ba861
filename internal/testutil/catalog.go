package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/entry"
	"github.com/hupe1980/entitymesh/registry"
)

// Kinds returns the kinds of the sample domain types.
func Kinds() []core.Kind {
	return []core.Kind{
		entry.KindOf(core.WeaponMod, func(b entry.Base) *Mod { return &Mod{Base: b} }, nil),
		entry.KindOf(core.MechWeapon, func(b entry.Base) *Weapon {
			return &Weapon{Inventoried: entry.Inventoried{Base: b}}
		}, func() core.Record { return core.Record{"name": "New Weapon", "damage": 1} }),
		entry.KindOf(core.Deployable, func(b entry.Base) *Deployable { return &Deployable{Base: b} }, nil),
		entry.KindOf(core.Frame, func(b entry.Base) *Frame { return &Frame{Base: b} }, nil),
		entry.KindOf(core.Mech, func(b entry.Base) *Mech { return &Mech{Base: b} }, nil),
		entry.KindOf(core.Pilot, func(b entry.Base) *Pilot {
			return &Pilot{Inventoried: entry.Inventoried{Base: b}}
		}, func() core.Record { return core.Record{"name": "New Pilot"} }),
		entry.KindOf(core.License, func(b entry.Base) *License { return &License{Base: b} }, nil),
	}
}

// NewCatalog declares every entry type, registers the sample kinds and fills
// the remaining types with opaque entries.
func NewCatalog() *registry.Catalog {
	c := registry.NewCatalog().Register(Kinds()...)
	entry.RegisterOpaque(c)
	return c
}

// NewEnv builds an in-memory environment over NewCatalog.
func NewEnv(t testing.TB, optFns ...func(o *registry.Options)) *registry.Env {
	t.Helper()
	env, err := registry.NewEnv(NewCatalog(), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

// MustRegistry returns the named registry of env.
func MustRegistry(t testing.TB, env *registry.Env, name string) *registry.Registry {
	t.Helper()
	r, err := env.Registry(context.Background(), name)
	require.NoError(t, err)
	return r
}

// MustCreate creates a live entry of type T in reg.
func MustCreate[T core.Entry](t testing.TB, reg core.Registry, op *core.OpCtx, et core.EntryType, raw core.Record) T {
	t.Helper()
	e, err := reg.CreateLive(context.Background(), op, et, raw)
	require.NoError(t, err)
	typed, ok := e.(T)
	require.True(t, ok, "unexpected entry type %T", e)
	return typed
}
