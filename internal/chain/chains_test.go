package chain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChains() Chains {
	c := New()
	c.Filter.Set(And, []FilterLink{
		{Field: "status", Operator: OpEqual, Value: "active"},
		{Field: "age", Operator: OpGreaterThan, Value: "30"},
	})
	c.Filter.Set(Nor, []FilterLink{{Field: "role", Operator: OpEqual, Value: "guest"}})
	c.Sort.Set(Or, []SortLink{{Field: "createdAt", Direction: Descending}})
	return c
}

func TestNew_AllChainsPresentAndEmpty(t *testing.T) {
	c := New()
	for _, kind := range Kinds() {
		for _, op := range LogicalOperators() {
			assert.Equal(t, 0, c.ChainLen(kind, op), "%s.%s", kind, op)
		}
	}
	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Filter.And)
	assert.NotNil(t, c.Sort.Nor)
}

func TestClone_DoesNotAlias(t *testing.T) {
	orig := sampleChains()
	cp := orig.Clone()
	require.True(t, orig.Equal(cp))

	cp.Filter.And[0].Value = "inactive"
	cp.Sort.Or[0].Direction = Ascending
	cp.Filter.Set(Or, append(cp.Filter.Get(Or), FilterLink{Field: "x", Operator: OpIn, Value: "y"}))

	assert.Equal(t, "active", orig.Filter.And[0].Value)
	assert.Equal(t, Descending, orig.Sort.Or[0].Direction)
	assert.Empty(t, orig.Filter.Or)
	assert.False(t, orig.Equal(cp))
}

func TestClone_AppendAfterCloneDoesNotShareCapacity(t *testing.T) {
	orig := New()
	links := make([]FilterLink, 1, 8)
	links[0] = FilterLink{Field: "a", Operator: OpEqual, Value: "1"}
	orig.Filter.Set(And, links)

	cp := orig.Clone()
	cp.Filter.Set(And, append(cp.Filter.And, FilterLink{Field: "b", Operator: OpEqual, Value: "2"}))

	grown := append(orig.Filter.And, FilterLink{Field: "c", Operator: OpEqual, Value: "3"})
	assert.Equal(t, "b", cp.Filter.And[1].Field)
	assert.Equal(t, "c", grown[1].Field)
}

func TestLen(t *testing.T) {
	c := sampleChains()
	assert.Equal(t, 3, c.Len(KindFilter))
	assert.Equal(t, 1, c.Len(KindSort))
	assert.Equal(t, 0, c.Len(Kind("bogus")))
	assert.Equal(t, 2, c.ChainLen(KindFilter, And))
	assert.Equal(t, 1, c.ChainLen(KindSort, Or))
}

func TestGroups_UnknownOperator(t *testing.T) {
	g := Groups[FilterLink]{}
	g.Set(LogicalOperator("xor"), []FilterLink{{Field: "a"}})
	assert.Equal(t, 0, g.Len())
	assert.Nil(t, g.Get(LogicalOperator("xor")))
}

func TestEqual_NilAndEmptyChainsAreEqual(t *testing.T) {
	assert.True(t, New().Equal(Chains{}))
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"ascending", Ascending, true},
		{"ASC", Ascending, true},
		{" desc ", Descending, true},
		{"Descending", Descending, true},
		{"up", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDirection(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidity(t *testing.T) {
	assert.True(t, KindFilter.Valid())
	assert.False(t, Kind("group").Valid())
	assert.True(t, Nor.Valid())
	assert.False(t, LogicalOperator("xor").Valid())
	assert.True(t, OpGreaterThanOrEqual.Known())
	assert.False(t, Operator("like").Known())
}

func TestChainsJSON(t *testing.T) {
	c := sampleChains()
	data, err := json.Marshal(c)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"filter": {
			"and": [["status","equal to","active"],["age","greater than","30"]],
			"or": [],
			"nor": [["role","equal to","guest"]]
		},
		"sort": {
			"and": [],
			"or": [["createdAt","descending"]],
			"nor": []
		}
	}`, string(data))

	var back Chains
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, c.Equal(back))
}

func TestChainsJSON_Rejects(t *testing.T) {
	var c Chains
	assert.Error(t, json.Unmarshal([]byte(`{"filter":{"xor":[]}}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"filter":{"and":[["a","b"]]}}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"sort":{"and":[["a","sideways"]]}}`), &c))
}

func TestQueryLinkJSON(t *testing.T) {
	var l QueryLink
	require.NoError(t, json.Unmarshal([]byte(`["age","equal to","30"]`), &l))
	assert.Equal(t, L("age", "equal to", "30"), l)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, `["age","equal to","30"]`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`["age"]`), &l))
	assert.Error(t, json.Unmarshal([]byte(`{"field":"age"}`), &l))
}
