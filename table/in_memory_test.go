package table

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entitymesh/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.Backend = (*InMemoryBackend)(nil)
	_ core.Table   = (*InMemoryTable)(nil)
)

func TestInMemoryTable_CRUD(t *testing.T) {
	ctx := context.Background()
	tbl := NewInMemoryTable()

	_, ok, err := tbl.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tbl.Put(ctx, "a", core.Record{"name": "Alpha", "lid": "a_lid"}))
	rec, ok, err := tbl.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alpha", rec.String("name"))

	// returned records are copies
	rec["name"] = "changed"
	again, _, _ := tbl.Get(ctx, "a")
	assert.Equal(t, "Alpha", again.String("name"))

	has, err := tbl.Has(ctx, "a")
	require.NoError(t, err)
	assert.True(t, has)

	old, ok, err := tbl.Delete(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a_lid", old.LID())

	_, ok, err = tbl.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestInMemoryTable_ScanOrderAndStop(t *testing.T) {
	ctx := context.Background()
	tbl := NewInMemoryTable()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, tbl.Put(ctx, id, core.Record{"id": id}))
	}
	// overwriting keeps the original position
	require.NoError(t, tbl.Put(ctx, "c", core.Record{"id": "c2"}))

	var seen []string
	require.NoError(t, tbl.Scan(ctx, func(id string, _ core.Record) bool {
		seen = append(seen, id)
		return true
	}))
	assert.Equal(t, []string{"c", "a", "b"}, seen)

	seen = nil
	require.NoError(t, tbl.Scan(ctx, func(id string, _ core.Record) bool {
		seen = append(seen, id)
		return len(seen) < 2
	}))
	assert.Len(t, seen, 2)
}

func TestInMemoryBackend_TablesAreScoped(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBackend()

	t1, err := b.Table(ctx, "r1", core.MechWeapon)
	require.NoError(t, err)
	t2, err := b.Table(ctx, "r2", core.MechWeapon)
	require.NoError(t, err)
	same, err := b.Table(ctx, "r1", core.MechWeapon)
	require.NoError(t, err)

	require.NoError(t, t1.Put(ctx, "x", core.Record{"v": 1}))
	has, _ := t2.Has(ctx, "x")
	assert.False(t, has)
	has, _ = same.Has(ctx, "x")
	assert.True(t, has)
	assert.ElementsMatch(t, []string{"r1", "r2"}, b.Registries())

	require.NoError(t, b.Close())
	_, err = b.Table(ctx, "r1", core.MechWeapon)
	assert.ErrorIs(t, err, core.ErrBackendClosed)
}

func TestInMemoryTable_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	tbl := NewInMemoryTable()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('A' + i%26))
			_ = tbl.Put(ctx, id, core.Record{"i": i})
			_, _, _ = tbl.Get(ctx, id)
			_ = tbl.Scan(ctx, func(string, core.Record) bool { return true })
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, tbl.Len())
}
