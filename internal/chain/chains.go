package chain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Groups holds one chain per logical operator.
type Groups[L comparable] struct {
	And []L
	Or  []L
	Nor []L
}

// Get returns the chain for op. Unknown operators yield nil.
func (g Groups[L]) Get(op LogicalOperator) []L {
	switch op {
	case And:
		return g.And
	case Or:
		return g.Or
	case Nor:
		return g.Nor
	default:
		return nil
	}
}

// Set replaces the chain for op. Unknown operators are ignored.
func (g *Groups[L]) Set(op LogicalOperator, links []L) {
	switch op {
	case And:
		g.And = links
	case Or:
		g.Or = links
	case Nor:
		g.Nor = links
	}
}

// Len returns the number of links across all logical operators.
func (g Groups[L]) Len() int {
	return len(g.And) + len(g.Or) + len(g.Nor)
}

// Clone returns a deep copy.
func (g Groups[L]) Clone() Groups[L] {
	return Groups[L]{
		And: slices.Clone(g.And),
		Or:  slices.Clone(g.Or),
		Nor: slices.Clone(g.Nor),
	}
}

// Equal compares two group sets link by link. Nil and empty chains are equal.
func (g Groups[L]) Equal(other Groups[L]) bool {
	for _, op := range LogicalOperators() {
		if !slices.Equal(g.Get(op), other.Get(op)) {
			return false
		}
	}
	return true
}

func (g Groups[L]) MarshalJSON() ([]byte, error) {
	out := make(map[string][]L, 3)
	for _, op := range LogicalOperators() {
		links := g.Get(op)
		if links == nil {
			links = []L{}
		}
		out[string(op)] = links
	}
	return json.Marshal(out)
}

func (g *Groups[L]) UnmarshalJSON(data []byte) error {
	var raw map[string][]L
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, links := range raw {
		op := LogicalOperator(key)
		if !op.Valid() {
			return fmt.Errorf("unknown logical operator %q", key)
		}
		g.Set(op, links)
	}
	return nil
}

// Chains is the central mutable state of a query builder: one group set for
// filter links and one for sort links.
type Chains struct {
	Filter Groups[FilterLink] `json:"filter"`
	Sort   Groups[SortLink]   `json:"sort"`
}

// New returns empty chains with non-nil chains for every logical operator.
func New() Chains {
	return Chains{
		Filter: Groups[FilterLink]{And: []FilterLink{}, Or: []FilterLink{}, Nor: []FilterLink{}},
		Sort:   Groups[SortLink]{And: []SortLink{}, Or: []SortLink{}, Nor: []SortLink{}},
	}
}

// Clone returns a deep copy sharing no backing arrays with c.
func (c Chains) Clone() Chains {
	return Chains{
		Filter: c.Filter.Clone(),
		Sort:   c.Sort.Clone(),
	}
}

// Len returns the number of links of the given kind across all groups.
func (c Chains) Len(kind Kind) int {
	switch kind {
	case KindFilter:
		return c.Filter.Len()
	case KindSort:
		return c.Sort.Len()
	default:
		return 0
	}
}

// ChainLen returns the length of one chain.
func (c Chains) ChainLen(kind Kind, op LogicalOperator) int {
	switch kind {
	case KindFilter:
		return len(c.Filter.Get(op))
	case KindSort:
		return len(c.Sort.Get(op))
	default:
		return 0
	}
}

// Equal reports whether both values hold the same links in the same order.
func (c Chains) Equal(other Chains) bool {
	return c.Filter.Equal(other.Filter) && c.Sort.Equal(other.Sort)
}

// IsEmpty reports whether no link of any kind is present.
func (c Chains) IsEmpty() bool {
	return c.Filter.Len() == 0 && c.Sort.Len() == 0
}
