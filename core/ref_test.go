package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_Equivalent(t *testing.T) {
	a := Ref{ID: "1", RegName: "r", Type: Mech, FallbackLID: "x"}
	b := Ref{ID: "1", RegName: "r"}
	c := Ref{ID: "1", RegName: "other"}

	assert.True(t, a.Equivalent(b))
	assert.False(t, a.Equivalent(c))
	assert.True(t, Ref{}.IsZero())
	assert.False(t, LocalRef("r", License, "lic").IsZero())
}

func TestRefFrom_JSONRoundTrip(t *testing.T) {
	ref := Ref{ID: "1", FallbackLID: "mf_x", Type: Frame, RegName: "r"}
	raw, err := json.Marshal(Record{"frame": ref, "list": []Ref{ref, ref}})
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(raw, &back))

	got, ok := RefFrom(back["frame"])
	require.True(t, ok)
	assert.Equal(t, ref, got)
	assert.Equal(t, []Ref{ref, ref}, RefsFrom(back["list"]))
}

func TestRefFrom_RejectsNonRefs(t *testing.T) {
	_, ok := RefFrom("nope")
	assert.False(t, ok)
	_, ok = RefFrom(map[string]any{"id": "1"})
	assert.False(t, ok)
	var nilRef *Ref
	_, ok = RefFrom(nilRef)
	assert.False(t, ok)
	assert.Empty(t, RefsFrom([]any{"x", 1}))
}

func TestRef_UntypedOmitsType(t *testing.T) {
	raw, err := json.Marshal(Ref{ID: "1", RegName: "r"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"type"`)
	assert.Equal(t, "r:*/1", Ref{ID: "1", RegName: "r"}.String())
}

func TestParseEntryType(t *testing.T) {
	et, err := ParseEntryType("mech_weapon")
	require.NoError(t, err)
	assert.Equal(t, MechWeapon, et)

	_, err = ParseEntryType("spaceship")
	assert.ErrorIs(t, err, ErrUnknownEntryType)
	assert.Len(t, EntryTypes(), 27)
}
