// Package state holds QueryState, the complete input of the query compiler.
package state

import (
	"slices"

	"github.com/roach88/querychain/internal/chain"
)

// SearchCase selects case handling for free-text search.
type SearchCase string

const (
	CaseSensitive   SearchCase = "case-sensitive"
	CaseInsensitive SearchCase = "case-insensitive"
)

// Valid reports whether c is a known search case.
func (c SearchCase) Valid() bool {
	return c == CaseSensitive || c == CaseInsensitive
}

// Search is a committed free-text search.
type Search struct {
	Inclusion string     `json:"inclusion" yaml:"inclusion"`
	Exclusion string     `json:"exclusion" yaml:"exclusion"`
	Case      SearchCase `json:"case" yaml:"case"`
}

// IsEmpty reports whether neither search term is set.
func (s Search) IsEmpty() bool {
	return s.Inclusion == "" && s.Exclusion == ""
}

// FilterDraft is the filter link being edited before insertion.
type FilterDraft struct {
	Field           string                `json:"field"`
	Operator        chain.Operator        `json:"operator"`
	LogicalOperator chain.LogicalOperator `json:"logicalOperator"`
	Value           string                `json:"value"`
}

// SortDraft is the sort link being edited before insertion.
type SortDraft struct {
	Field     string          `json:"field"`
	Direction chain.Direction `json:"direction"`
}

// State is the query state owned by one builder session.
type State struct {
	Chains       chain.Chains `json:"chains"`
	Filter       FilterDraft  `json:"filterDraft"`
	Sort         SortDraft    `json:"sortDraft"`
	Search       Search       `json:"search"`
	Projection   []string     `json:"projection"`
	LimitPerPage string       `json:"limitPerPage"`
	IsError      bool         `json:"isError"`
}

// New returns the initial state: empty chains, an "and" filter draft, an
// ascending sort draft, case-insensitive search and no limit.
func New() State {
	return State{
		Chains: chain.New(),
		Filter: FilterDraft{
			Operator:        chain.OpEqual,
			LogicalOperator: chain.And,
		},
		Sort:       SortDraft{Direction: chain.Ascending},
		Search:     Search{Case: CaseInsensitive},
		Projection: []string{},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Chains = s.Chains.Clone()
	out.Projection = slices.Clone(s.Projection)
	return out
}
