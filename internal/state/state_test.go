package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/querychain/internal/chain"
)

func TestNew(t *testing.T) {
	s := New()
	assert.True(t, s.Chains.IsEmpty())
	assert.Equal(t, chain.And, s.Filter.LogicalOperator)
	assert.Equal(t, chain.Ascending, s.Sort.Direction)
	assert.Equal(t, CaseInsensitive, s.Search.Case)
	assert.True(t, s.Search.IsEmpty())
	assert.Empty(t, s.LimitPerPage)
	assert.False(t, s.IsError)
}

func TestClone(t *testing.T) {
	s := New()
	s.Projection = []string{"password"}
	s.Chains.Filter.And = append(s.Chains.Filter.And, chain.FilterLink{Field: "a", Operator: chain.OpEqual, Value: "1"})

	cp := s.Clone()
	cp.Projection[0] = "email"
	cp.Chains.Filter.And[0].Value = "2"
	cp.Search.Inclusion = "john"

	assert.Equal(t, "password", s.Projection[0])
	assert.Equal(t, "1", s.Chains.Filter.And[0].Value)
	assert.Empty(t, s.Search.Inclusion)
}

func TestSearchCase(t *testing.T) {
	assert.True(t, CaseSensitive.Valid())
	assert.True(t, CaseInsensitive.Valid())
	assert.False(t, SearchCase("ignore").Valid())

	assert.False(t, Search{Exclusion: "x"}.IsEmpty())
}
