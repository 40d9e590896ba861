package registry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/entry"
	"github.com/hupe1980/entitymesh/internal/testutil"
	"github.com/hupe1980/entitymesh/registry"
)

func count(t *testing.T, reg core.Registry, et core.EntryType) int {
	t.Helper()
	cat, ok := reg.Category(et)
	require.True(t, ok)
	all, err := cat.RawMap(context.Background())
	require.NoError(t, err)
	return len(all)
}

// seedWeapon creates a weapon holding one mod in its inventory.
func seedWeapon(t *testing.T, reg core.Registry, op *core.OpCtx) (*testutil.Weapon, *testutil.Mod) {
	t.Helper()
	ctx := context.Background()
	w := testutil.MustCreate[*testutil.Weapon](t, reg, op, core.MechWeapon,
		testutil.NewRecordBuilder().LID("mw_sword").Name("Sword").Field("damage", 3).Build())
	inv, err := w.Inventory(ctx)
	require.NoError(t, err)
	m := testutil.MustCreate[*testutil.Mod](t, inv, op, core.WeaponMod,
		testutil.NewRecordBuilder().LID("wm_sharp").Name("Sharpened").Field("homebrew", true).Build())
	return w, m
}

func TestInsinuate_WeaponWithInventoryMod(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	a, b := seedWeapon(t, r1, core.NewOpCtx())

	got, err := registry.Insinuate(ctx, a, r2, nil, nil)
	require.NoError(t, err)

	a2 := got.(*testutil.Weapon)
	assert.Equal(t, "r2", a2.Registry().Name())
	assert.NotEqual(t, a.RegistryID(), a2.RegistryID())
	assert.Equal(t, a.Save(), a2.Save())

	mods, err := a2.Mods(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	b2 := mods[0]
	assert.NotEqual(t, b.RegistryID(), b2.RegistryID())
	assert.Equal(t, b.Save(), b2.Save())
	assert.Equal(t, true, b2.Save()["homebrew"])

	owner, ok := b2.Registry().InventoryFor()
	require.True(t, ok)
	assert.True(t, owner.Equivalent(a2.AsRef()))

	// the source graph is untouched
	assert.Equal(t, 1, count(t, r1, core.MechWeapon))
	srcMods, err := a.Mods(ctx)
	require.NoError(t, err)
	require.Len(t, srcMods, 1)
	assert.Equal(t, b.RegistryID(), srcMods[0].RegistryID())
}

func TestInsinuate_CycleCopiesEachNodeOnce(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	op := core.NewOpCtx()

	w := testutil.MustCreate[*testutil.Weapon](t, r1, op, core.MechWeapon, testutil.NewRecordBuilder().LID("mw_drone").Build())
	d := testutil.MustCreate[*testutil.Deployable](t, r1, op, core.Deployable,
		testutil.NewRecordBuilder().LID("dep_drone").Ref("owner", w.AsRef()).Build())
	require.Same(t, w, d.Owner)
	w.Deployables = append(w.Deployables, d)
	require.NoError(t, w.Writeback(ctx))

	got, err := d.Insinuate(ctx, r2, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, r2, core.MechWeapon))
	assert.Equal(t, 1, count(t, r2, core.Deployable))

	d2 := got.(*testutil.Deployable)
	require.NotNil(t, d2.Owner)
	assert.Equal(t, "r2", d2.Owner.Registry().Name())
	require.Len(t, d2.Owner.Deployables, 1)
	assert.Same(t, d2, d2.Owner.Deployables[0])
}

func TestInsinuate_DiamondSharesOneCopy(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	op := core.NewOpCtx()

	w := testutil.MustCreate[*testutil.Weapon](t, r1, op, core.MechWeapon, testutil.NewRecordBuilder().LID("mw_integrated").Build())
	f := testutil.MustCreate[*testutil.Frame](t, r1, op, core.Frame,
		testutil.NewRecordBuilder().LID("mf_std").Refs("integrated", w.AsRef()).Build())
	m := testutil.MustCreate[*testutil.Mech](t, r1, op, core.Mech,
		testutil.NewRecordBuilder().Name("Everest").Ref("frame", f.AsRef()).Refs("loadout", w.AsRef()).Build())

	got, err := registry.Insinuate(ctx, m, r2, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, r2, core.MechWeapon))
	assert.Equal(t, 1, count(t, r2, core.Frame))
	assert.Equal(t, 1, count(t, r2, core.Mech))

	m2 := got.(*testutil.Mech)
	require.NotNil(t, m2.Frame)
	require.Len(t, m2.Loadout, 1)
	require.Len(t, m2.Frame.Integrated, 1)
	assert.Same(t, m2.Loadout[0], m2.Frame.Integrated[0])
	assert.Equal(t, "r2", m2.Loadout[0].Registry().Name())
}

func TestInsinuate_InventoryBackReferenceIsRewritten(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	op := core.NewOpCtx()

	p := testutil.MustCreate[*testutil.Pilot](t, r1, op, core.Pilot, testutil.NewRecordBuilder().LID("p1").Name("Ace").Build())
	inv, err := p.Inventory(ctx)
	require.NoError(t, err)
	testutil.MustCreate[*testutil.Mech](t, inv, op, core.Mech,
		testutil.NewRecordBuilder().Name("Lancaster").Ref("pilot", p.AsRef()).Build())

	got, err := p.Insinuate(ctx, r2, nil, nil)
	require.NoError(t, err)
	p2 := got.(*testutil.Pilot)

	items, err := p2.OwnedItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	m2 := items[0].(*testutil.Mech)
	assert.Same(t, p2, m2.Pilot)

	pending, ok, err := m2.Registry().GetRaw(ctx, core.Mech, m2.RegistryID())
	require.NoError(t, err)
	require.True(t, ok)
	ref, ok := core.RefFrom(pending["pilot"])
	require.True(t, ok)
	assert.Equal(t, "r2", ref.RegName)
	assert.Equal(t, p2.RegistryID(), ref.ID)
}

func TestInsinuate_RelinkerReusesExistingEntries(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	op := core.NewOpCtx()

	existing := testutil.MustCreate[*testutil.License](t, r2, core.NewOpCtx(), core.License,
		testutil.NewRecordBuilder().LID("lic_shared").Field("rank", 3).Build())
	lic := testutil.MustCreate[*testutil.License](t, r1, op, core.License,
		testutil.NewRecordBuilder().LID("lic_shared").Field("rank", 1).Build())
	p := testutil.MustCreate[*testutil.Pilot](t, r1, op, core.Pilot,
		testutil.NewRecordBuilder().LID("p1").Refs("licenses", lic.AsRef()).Build())

	hooks := &core.InsinuateHooks{
		Relinker: func(ctx context.Context, src core.Entry, _ core.Registry, destCat core.Category) (core.Entry, error) {
			if src.EntryType() != core.License {
				return nil, nil
			}
			e, _, err := destCat.LookupLID(ctx, core.NewOpCtx(), src.FallbackLID())
			return e, err
		},
	}
	got, err := p.Insinuate(ctx, r2, nil, hooks)
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, r2, core.License))
	p2 := got.(*testutil.Pilot)
	require.Len(t, p2.Licenses, 1)
	assert.Equal(t, existing.RegistryID(), p2.Licenses[0].RegistryID())
	assert.Equal(t, 3, p2.Licenses[0].Rank, "relinked entries are not overwritten")
}

func TestInsinuate_RelinkedInventoriesSkippedByDefault(t *testing.T) {
	for _, include := range []bool{false, true} {
		t.Run(fmt.Sprintf("include=%v", include), func(t *testing.T) {
			ctx := context.Background()
			env := testutil.NewEnv(t)
			r1 := testutil.MustRegistry(t, env, "r1")
			r2 := testutil.MustRegistry(t, env, "r2")

			target := testutil.MustCreate[*testutil.Weapon](t, r2, core.NewOpCtx(), core.MechWeapon,
				testutil.NewRecordBuilder().LID("mw_sword").Build())
			src, _ := seedWeapon(t, r1, core.NewOpCtx())

			hooks := &core.InsinuateHooks{
				IncludeRelinkedInventories: include,
				Relinker: func(ctx context.Context, e core.Entry, _ core.Registry, destCat core.Category) (core.Entry, error) {
					if e.EntryType() != core.MechWeapon {
						return nil, nil
					}
					got, _, err := destCat.LookupLID(ctx, core.NewOpCtx(), e.FallbackLID())
					return got, err
				},
			}
			got, err := registry.Insinuate(ctx, src, r2, nil, hooks)
			require.NoError(t, err)
			assert.Equal(t, target.RegistryID(), got.RegistryID())
			assert.Equal(t, 1, count(t, r2, core.MechWeapon))

			mods, err := got.(*testutil.Weapon).Mods(ctx)
			require.NoError(t, err)
			if include {
				assert.Len(t, mods, 1)
			} else {
				assert.Empty(t, mods)
			}
		})
	}
}

func TestInsinuate_RelinkerTypeMismatch(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	other := testutil.MustCreate[*testutil.License](t, r2, core.NewOpCtx(), core.License, core.Record{})
	w, _ := seedWeapon(t, r1, core.NewOpCtx())

	_, err := registry.Insinuate(ctx, w, r2, nil, &core.InsinuateHooks{
		Relinker: func(context.Context, core.Entry, core.Registry, core.Category) (core.Entry, error) {
			return other, nil
		},
	})
	assert.ErrorIs(t, err, core.ErrTypeMismatch)
}

func TestInsinuate_HookOrderAndEdits(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	w, _ := seedWeapon(t, r1, core.NewOpCtx())

	var calls []string
	r2.SetHooks(core.RegistryHooks{
		PreFinalWrite: func(_ context.Context, rec *core.MidInsinuation, _ core.Registry, _ core.Category) error {
			calls = append(calls, "registry-pre:"+rec.Pending.LID())
			return nil
		},
		PostFinalWrite: func(_ context.Context, rec core.InsinuationRecord, _ core.Registry, _ core.Category) error {
			calls = append(calls, "registry-post:"+rec.NewItem.FallbackLID())
			return nil
		},
	})

	var records []core.InsinuationRecord
	hooks := &core.InsinuateHooks{
		PreFinalWrite: func(_ context.Context, rec *core.MidInsinuation, dest core.Registry, destCat core.Category) error {
			calls = append(calls, "call-pre:"+rec.Pending.LID())
			assert.Equal(t, rec.Type, destCat.Type())
			assert.Equal(t, rec.To.RegName, dest.Name())
			if rec.Type == core.MechWeapon {
				rec.Pending["name"] = "Edited"
			}
			return nil
		},
		PostFinalWrite: func(_ context.Context, rec core.InsinuationRecord, _ core.Registry, _ core.Category) error {
			calls = append(calls, "call-post:"+rec.NewItem.FallbackLID())
			records = append(records, rec)
			return errors.New("post hook errors are only logged")
		},
	}

	got, err := registry.Insinuate(ctx, w, r2, nil, hooks)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.(*testutil.Weapon).Name)

	// only r2 itself carries registry hooks, the mod lives in an inventory registry
	assert.Equal(t, []string{
		"call-pre:mw_sword", "registry-pre:mw_sword",
		"call-pre:wm_sharp",
		"call-post:mw_sword", "registry-post:mw_sword",
		"call-post:wm_sharp",
	}, calls)

	require.Len(t, records, 2)
	assert.True(t, records[0].From.Equivalent(w.AsRef()))
	assert.Same(t, got, records[0].NewItem)
}

func TestInsinuate_PreHookErrorAborts(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	w, _ := seedWeapon(t, r1, core.NewOpCtx())
	boom := errors.New("boom")

	_, err := registry.Insinuate(ctx, w, r2, nil, &core.InsinuateHooks{
		PreFinalWrite: func(context.Context, *core.MidInsinuation, core.Registry, core.Category) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
	// records created before the failure stay behind
	assert.Equal(t, 1, count(t, r2, core.MechWeapon))
}

func TestInsinuate_DeletedRootFails(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	w, _ := seedWeapon(t, r1, core.NewOpCtx())
	require.NoError(t, w.DestroyEntry(ctx))

	_, err := registry.Insinuate(ctx, w, r2, nil, nil)
	assert.ErrorIs(t, err, core.ErrDeletedEntry)
	assert.Equal(t, 0, count(t, r2, core.MechWeapon))
}

func TestInsinuate_UsesCallerOpCtx(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	w, _ := seedWeapon(t, r1, core.NewOpCtx())

	op := core.NewOpCtx()
	got, err := registry.Insinuate(ctx, w, r2, op, nil)
	require.NoError(t, err)
	cached, ok := op.Get("r2", got.RegistryID())
	require.True(t, ok)
	assert.Same(t, got, cached)
}

func TestInsinuate_EmitsSpans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	env := testutil.NewEnv(t, func(o *registry.Options) { o.TracerProvider = tp })
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	w, _ := seedWeapon(t, r1, core.NewOpCtx())

	_, err := registry.Insinuate(ctx, w, r2, nil, nil)
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range recorder.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["registry.Insinuate"])
	assert.Positive(t, names["registry.Resolve"])
}

func TestInsinuate_LocalRefsToUnmigratedEntriesStayInSource(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	op := core.NewOpCtx()

	lic := testutil.MustCreate[*testutil.License](t, r1, op, core.License,
		testutil.NewRecordBuilder().LID("lic_x").Field("rank", 1).Build())
	namesake := testutil.MustCreate[*testutil.License](t, r2, op, core.License,
		testutil.NewRecordBuilder().LID("lic_x").Field("rank", 9).Build())

	q := testutil.MustCreate[*entry.Opaque](t, r1, op, core.Quirk, testutil.NewRecordBuilder().
		LID("qk_1").
		Ref("link", core.Ref{ID: lic.RegistryID(), FallbackLID: "lic_x", Type: core.License}).
		Field("link_json", map[string]any{
			"id": lic.RegistryID(), "fallback_lid": "lic_x", "type": "license", "reg_name": "",
		}).
		Build())

	got, err := registry.Insinuate(ctx, q, r2, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, r2, core.License), "unreferenced licenses are not copied")

	raw, ok, err := r2.GetRaw(ctx, core.Quirk, got.RegistryID())
	require.NoError(t, err)
	require.True(t, ok)

	for _, field := range []string{"link", "link_json"} {
		ref, ok := core.RefFrom(raw[field])
		require.True(t, ok, field)
		assert.Equal(t, "r1", ref.RegName, field)

		e, ok := r2.Resolve(ctx, core.NewOpCtx(), ref)
		require.True(t, ok, field)
		resolved := e.(*testutil.License)
		assert.Equal(t, lic.RegistryID(), resolved.RegistryID(), field)
		assert.NotEqual(t, namesake.RegistryID(), resolved.RegistryID(), field)
		assert.Equal(t, 1, resolved.Rank, field)
	}
}

func TestInsinuate_OwnedAndAssociatedEntryStaysInInventory(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	r1 := testutil.MustRegistry(t, env, "r1")
	r2 := testutil.MustRegistry(t, env, "r2")
	op := core.NewOpCtx()

	p := testutil.MustCreate[*testutil.Pilot](t, r1, op, core.Pilot, testutil.NewRecordBuilder().LID("p1").Name("Ace").Build())
	inv, err := p.Inventory(ctx)
	require.NoError(t, err)
	lic := testutil.MustCreate[*testutil.License](t, inv, op, core.License,
		testutil.NewRecordBuilder().LID("lic_owned").Field("rank", 2).Build())
	p.Licenses = []*testutil.License{lic}
	require.NoError(t, p.Writeback(ctx))

	got, err := p.Insinuate(ctx, r2, nil, nil)
	require.NoError(t, err)
	p2 := got.(*testutil.Pilot)

	assert.Equal(t, 0, count(t, r2, core.License))

	items, err := p2.OwnedItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	l2 := items[0].(*testutil.License)
	assert.Equal(t, "lic_owned", l2.LID)
	assert.NotEqual(t, lic.RegistryID(), l2.RegistryID())

	require.Len(t, p2.Licenses, 1)
	assert.Same(t, l2, p2.Licenses[0])
}
