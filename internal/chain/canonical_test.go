package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Empty(t *testing.T) {
	data, err := MarshalCanonical(New())
	require.NoError(t, err)
	assert.Equal(t,
		`{"filter":{"and":[],"nor":[],"or":[]},"sort":{"and":[],"nor":[],"or":[]}}`,
		string(data))
}

func TestMarshalCanonical_NilChainsMatchEmpty(t *testing.T) {
	a, err := MarshalCanonical(New())
	require.NoError(t, err)
	b, err := MarshalCanonical(Chains{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonical_Links(t *testing.T) {
	c := New()
	c.Filter.Set(And, []FilterLink{{Field: "status", Operator: OpEqual, Value: "a<b&c"}})
	c.Sort.Set(Nor, []SortLink{{Field: "createdAt", Direction: Ascending}})

	data, err := MarshalCanonical(c)
	require.NoError(t, err)
	assert.Equal(t,
		`{"filter":{"and":[["status","equal to","a<b&c"]],"nor":[],"or":[]},"sort":{"and":[],"nor":[["createdAt","ascending"]],"or":[]}}`,
		string(data))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	composed := New()
	composed.Filter.Set(And, []FilterLink{{Field: "name", Operator: OpEqual, Value: "caf\u00e9"}})
	decomposed := New()
	decomposed.Filter.Set(And, []FilterLink{{Field: "name", Operator: OpEqual, Value: "cafe\u0301"}})

	a, err := MarshalCanonical(composed)
	require.NoError(t, err)
	b, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonical_LineSeparatorsStayLiteral(t *testing.T) {
	c := New()
	c.Filter.Set(And, []FilterLink{{Field: "note", Operator: OpEqual, Value: "a\u2028b"}})

	data, err := MarshalCanonical(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a\u2028b")
	assert.NotContains(t, string(data), `\u2028`)
}

func TestUnescapeLineSeparators_KeepsEscapedBackslash(t *testing.T) {
	in := []byte(`"\\u2028"`)
	assert.Equal(t, in, unescapeLineSeparators(in))
}

func TestHash_StableAndSensitive(t *testing.T) {
	c := sampleChains()
	h1, err := Hash(c)
	require.NoError(t, err)
	h2 := MustHash(c.Clone())
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	other := c.Clone()
	other.Sort.Or[0].Direction = Ascending
	assert.NotEqual(t, h1, MustHash(other))
}

func TestHash_OrderMatters(t *testing.T) {
	a := New()
	a.Filter.Set(And, []FilterLink{
		{Field: "x", Operator: OpEqual, Value: "1"},
		{Field: "y", Operator: OpEqual, Value: "2"},
	})
	b := New()
	b.Filter.Set(And, []FilterLink{
		{Field: "y", Operator: OpEqual, Value: "2"},
		{Field: "x", Operator: OpEqual, Value: "1"},
	})
	assert.NotEqual(t, MustHash(a), MustHash(b))
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, -1, compareKeysRFC8785("and", "nor"))
	assert.Equal(t, 1, compareKeysRFC8785("or", "nor"))
	assert.Equal(t, 0, compareKeysRFC8785("sort", "sort"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "ab"))
	// U+FF61 sorts after U+1F600 in UTF-8 but before it in UTF-16.
	assert.Equal(t, 1, compareKeysRFC8785("\uff61", "\U0001F600"))
}
