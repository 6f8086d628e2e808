package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type editBody struct {
	Name    Maybe[string]  `json:"name"`
	Comment Maybe[*string] `json:"comment"`
}

func TestMaybe_DistinguishesAbsentFromEmpty(t *testing.T) {
	var body editBody
	require.NoError(t, json.Unmarshal([]byte(`{"name": ""}`), &body))

	assert.True(t, body.Name.IsSet(), "explicit empty string is set")
	assert.Equal(t, "", body.Name.Or("fallback"))
	assert.False(t, body.Comment.IsSet(), "absent key stays unset")
}

func TestMaybe_ExplicitNull(t *testing.T) {
	var body editBody
	require.NoError(t, json.Unmarshal([]byte(`{"comment": null}`), &body))

	v, ok := body.Comment.Get()
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestMaybe_Or(t *testing.T) {
	assert.Equal(t, "old", Unset[string]().Or("old"))
	assert.Equal(t, "new", Set("new").Or("old"))
}

func TestMarshalCanonical_SortsKeysAndRejectsFloats(t *testing.T) {
	out, err := CanonicalizeJSON([]byte(`{"b": 1, "a": [true, null, "x<y"]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":[true,null,"x<y"],"b":1}`, string(out))

	_, err = CanonicalizeJSON([]byte(`{"ratio": 1.5}`))
	assert.Error(t, err)
}

func TestMarshalCanonical_NFCNormalizes(t *testing.T) {
	decomposed, err := CanonicalizeJSON([]byte("\"e\u0301\""))
	require.NoError(t, err)
	composed, err := CanonicalizeJSON([]byte("\"\u00e9\""))
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_LineSeparatorLiteral(t *testing.T) {
	out, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(out))

	out, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(out))
}

func TestLicensing_EqualIgnoresKeyOrder(t *testing.T) {
	a := Licensing(`{"license": "CC-BY-SA", "version": 3}`)
	b := Licensing(`{"version":3,"license":"CC-BY-SA"}`)

	eq, err := a.Equal(b)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = a.Equal(MustLicensing(`{"license":"CC0"}`))
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestLicensing_EmptyIsEmptyObject(t *testing.T) {
	eq, err := Licensing(nil).Equal(MustLicensing(`{}`))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestNormalizeHidden(t *testing.T) {
	got, err := NormalizeHidden([]string{"user", "name", "user", "blob"})
	require.NoError(t, err)
	assert.Equal(t, []HiddenField{HiddenName, HiddenBlob, HiddenUser}, got)

	got, err = NormalizeHidden(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NormalizeHidden([]string{"page"})
	assert.Error(t, err)
}

func TestParseFetchDirection(t *testing.T) {
	d, err := ParseFetchDirection("Before")
	require.NoError(t, err)
	assert.Equal(t, FetchBefore, d)

	_, err = ParseFetchDirection("sideways")
	assert.Error(t, err)
}

func TestAllChanges_IsACopy(t *testing.T) {
	all := AllChanges()
	all[0] = "mutated"
	assert.Equal(t, ChangePage, ChangeOrder[0])
}

func TestNewRevisionCount(t *testing.T) {
	c := NewRevisionCount(4)
	assert.Equal(t, RevisionCount{RevisionCount: 4, FirstRevision: 0, LastRevision: 3}, c)
}
