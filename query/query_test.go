package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entitymesh/core"
	"github.com/hupe1980/entitymesh/entry"
	"github.com/hupe1980/entitymesh/registry"
)

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(`r.lid ==`)
	assert.Error(t, err)

	_, err = Compile(`"not a bool"`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(`)(`) })
}

func TestFilter_Match(t *testing.T) {
	rec := core.Record{
		"lid":    "mw_sword",
		"damage": 3,
		"tags":   []any{"melee", "heavy"},
		"owner":  core.Ref{ID: "p1", RegName: "r1", Type: core.Pilot},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`r.lid == "mw_sword"`, true},
		{`r.damage > 2`, true},
		{`r.damage > 5`, false},
		{`"heavy" in r.tags`, true},
		{`r.owner.type == "pilot"`, true},
		{`id.startsWith("abc")`, true},
		{`r.missing == 1`, false},
		{`has(r.lid) && !has(r.name)`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match("abc-1", rec))
		})
	}
}

func TestFind_RevivesMatches(t *testing.T) {
	ctx := context.Background()
	catalog := registry.NewCatalog()
	entry.RegisterOpaque(catalog)
	env, err := registry.NewEnv(catalog)
	require.NoError(t, err)
	reg, err := env.Registry(ctx, "r1")
	require.NoError(t, err)
	cat, _ := reg.Category(core.Skill)

	_, err = cat.CreateManyRaw(ctx,
		core.Record{"lid": "sk_a", "rank": 1},
		core.Record{"lid": "sk_b", "rank": 2},
		core.Record{"lid": "sk_c", "rank": 3},
	)
	require.NoError(t, err)

	op := core.NewOpCtx()
	found, err := Find(ctx, cat, op, `r.rank >= 2`)
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, 2, op.Len())

	f := MustCompile(`r.lid == "sk_a"`)
	_, rec, ok, err := cat.LookupRaw(ctx, f.Predicate())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk_a", rec.LID())

	_, err = Find(ctx, cat, op, `r.rank >=`)
	assert.Error(t, err)
}

func TestFind_KeepsScanOrder(t *testing.T) {
	ctx := context.Background()
	catalog := registry.NewCatalog()
	entry.RegisterOpaque(catalog)
	env, err := registry.NewEnv(catalog)
	require.NoError(t, err)
	reg, err := env.Registry(ctx, "r1")
	require.NoError(t, err)
	cat, _ := reg.Category(core.Skill)

	lids := []string{"sk_k", "sk_c", "sk_x", "sk_a", "sk_q", "sk_m", "sk_b", "sk_z"}
	for _, lid := range lids {
		_, err := cat.CreateRaw(ctx, core.Record{"lid": lid, "rank": 5})
		require.NoError(t, err)
	}

	for i := 0; i < 5; i++ {
		found, err := Find(ctx, cat, core.NewOpCtx(), `r.rank == 5`)
		require.NoError(t, err)
		got := make([]string, 0, len(found))
		for _, e := range found {
			got = append(got, e.FallbackLID())
		}
		assert.Equal(t, lids, got)
	}
}
