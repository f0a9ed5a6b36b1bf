package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/state"
)

func TestCompile_Empty(t *testing.T) {
	assert.Equal(t, "?&limit=10", Compile(state.New()))
}

func TestCompile_FilterSortProjectionLimit(t *testing.T) {
	s := state.New()
	s.Chains.Filter.And = []chain.FilterLink{{Field: "status", Operator: chain.OpEqual, Value: "active"}}
	s.Chains.Sort.And = []chain.SortLink{{Field: "createdAt", Direction: chain.Descending}}
	s.Projection = []string{"password"}
	s.LimitPerPage = "25"

	assert.Equal(t,
		"?&and[status][$eq]=active&sort[createdAt]=-1&projection=password&limit=25",
		Compile(s))
}

func TestCompile_Search(t *testing.T) {
	s := state.New()
	s.Search = state.Search{Inclusion: "John Doe", Exclusion: "Jane", Case: state.CaseInsensitive}

	got := Compile(s)
	assert.Contains(t, got, "&$text[$search]=John Doe-Jane&$text[$caseSensitive]=false")
	assert.Equal(t, "?&$text[$search]=John Doe-Jane&$text[$caseSensitive]=false&limit=10", got)
}

func TestCompile_SearchVariants(t *testing.T) {
	tests := []struct {
		name   string
		search state.Search
		want   string
	}{
		{"inclusion only", state.Search{Inclusion: "john", Case: state.CaseSensitive},
			"?&$text[$search]=john&$text[$caseSensitive]=true&limit=10"},
		{"exclusion only", state.Search{Exclusion: "jane", Case: state.CaseInsensitive},
			"?&$text[$search]=-jane&$text[$caseSensitive]=false&limit=10"},
		{"neither", state.Search{Case: state.CaseSensitive}, "?&limit=10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state.New()
			s.Search = tt.search
			assert.Equal(t, tt.want, Compile(s))
		})
	}
}

func TestCompile_UnknownOperatorEncodesAsIn(t *testing.T) {
	s := state.New()
	s.Chains.Filter.Or = []chain.FilterLink{{Field: "age", Operator: "between", Value: "3"}}
	assert.Equal(t, "?&or[age][$in]=3&limit=10", Compile(s))
}

func TestCompile_GroupAndKindOrder(t *testing.T) {
	s := state.New()
	s.Chains.Filter.Nor = []chain.FilterLink{{Field: "role", Operator: chain.OpEqual, Value: "guest"}}
	s.Chains.Filter.Or = []chain.FilterLink{{Field: "age", Operator: chain.OpGreaterThan, Value: "30"}}
	s.Chains.Filter.And = []chain.FilterLink{
		{Field: "status", Operator: chain.OpEqual, Value: "active"},
		{Field: "status", Operator: chain.OpNotEqual, Value: "banned"},
	}
	s.Chains.Sort.Nor = []chain.SortLink{{Field: "username", Direction: chain.Ascending}}
	s.Chains.Sort.And = []chain.SortLink{{Field: "createdAt", Direction: chain.Descending}}
	s.Projection = []string{"password", "email"}

	assert.Equal(t,
		"?&and[status][$eq]=active&and[status][$ne]=banned&or[age][$gt]=30&nor[role][$eq]=guest"+
			"&sort[createdAt]=-1&sort[username]=1&projection=password,email&limit=10",
		Compile(s))
}

func TestCompile_ValuesAreNotEncoded(t *testing.T) {
	s := state.New()
	s.Chains.Filter.And = []chain.FilterLink{{Field: "name", Operator: chain.OpEqual, Value: "a&b=c d"}}
	assert.Equal(t, "?&and[name][$eq]=a&b=c d&limit=10", Compile(s))
}

func TestCompile_IsDeterministic(t *testing.T) {
	s := state.New()
	s.Chains.Filter.And = []chain.FilterLink{{Field: "x", Operator: chain.OpLessThan, Value: "1"}}
	s.Projection = []string{"a", "b"}
	first := Compile(s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compile(s))
	}
}

func TestEncodeOperator(t *testing.T) {
	tests := map[chain.Operator]string{
		chain.OpEqual:              "$eq",
		chain.OpGreaterThan:        "$gt",
		chain.OpGreaterThanOrEqual: "$gte",
		chain.OpLessThan:           "$lt",
		chain.OpLessThanOrEqual:    "$lte",
		chain.OpNotEqual:           "$ne",
		chain.OpIn:                 "$in",
		"":                         "$in",
		"like":                     "$in",
	}
	for op, want := range tests {
		assert.Equal(t, want, EncodeOperator(op), "operator %q", op)
	}
}

func TestLimit(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "10"},
		{"25", "25"},
		{"  25", "25"},
		{"25 per page", "25"},
		{"12.9", "12"},
		{"007", "7"},
		{"0", "0"},
		{"+5", "5"},
		{"-5", "-5"},
		{"-0", "0"},
		{"abc", "10"},
		{"-", "10"},
		{"x25", "10"},
		{"99999999999999999999999", "99999999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := state.New()
			s.LimitPerPage = tt.in
			assert.Equal(t, "?&limit="+tt.want, Compile(s))
		})
	}
}

func TestWithDefaultLimit(t *testing.T) {
	c := NewQueryCompiler(WithDefaultLimit(50))
	assert.Equal(t, "?&limit=50", c.Compile(state.New()))

	s := state.New()
	s.LimitPerPage = "5"
	assert.Equal(t, "?&limit=5", c.Compile(s))
}
