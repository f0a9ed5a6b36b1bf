package chain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind selects which group set a link belongs to.
type Kind string

const (
	KindFilter Kind = "filter"
	KindSort   Kind = "sort"
)

// Kinds returns the chain-kinds in iteration order.
func Kinds() []Kind {
	return []Kind{KindFilter, KindSort}
}

// Valid reports whether k is a known chain-kind.
func (k Kind) Valid() bool {
	return k == KindFilter || k == KindSort
}

// LogicalOperator groups links of the same chain-kind.
type LogicalOperator string

const (
	And LogicalOperator = "and"
	Or  LogicalOperator = "or"
	Nor LogicalOperator = "nor"
)

// LogicalOperators returns the logical operators in iteration order.
func LogicalOperators() []LogicalOperator {
	return []LogicalOperator{And, Or, Nor}
}

// Valid reports whether op is a known logical operator.
func (op LogicalOperator) Valid() bool {
	return op == And || op == Or || op == Nor
}

// Operator is a human-readable comparison operator as shown to users.
type Operator string

const (
	OpEqual              Operator = "equal to"
	OpNotEqual           Operator = "not equal to"
	OpGreaterThan        Operator = "greater than"
	OpGreaterThanOrEqual Operator = "greater than or equal to"
	OpLessThan           Operator = "less than"
	OpLessThanOrEqual    Operator = "less than or equal to"
	OpIn                 Operator = "in"
)

// Operators returns every known comparison operator.
func Operators() []Operator {
	return []Operator{
		OpEqual,
		OpNotEqual,
		OpGreaterThan,
		OpGreaterThanOrEqual,
		OpLessThan,
		OpLessThanOrEqual,
		OpIn,
	}
}

// Known reports whether op is one of the operators returned by Operators.
func (op Operator) Known() bool {
	for _, o := range Operators() {
		if o == op {
			return true
		}
	}
	return false
}

// Direction is the order of a sort key.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// ParseDirection accepts "ascending"/"asc" and "descending"/"desc" in any case.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ascending", "asc":
		return Ascending, true
	case "descending", "desc":
		return Descending, true
	default:
		return "", false
	}
}

// QueryLink is the untyped [field, operator, value] triple used on the wire.
// For sort links the value carries the direction and the operator is ignored.
type QueryLink struct {
	Field    string
	Operator string
	Value    string
}

// L builds a QueryLink.
func L(field, operator, value string) QueryLink {
	return QueryLink{Field: field, Operator: operator, Value: value}
}

// MarshalJSON encodes the link as a 3-element array.
func (l QueryLink) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{l.Field, l.Operator, l.Value})
}

// UnmarshalJSON decodes a 3-element array of strings.
func (l *QueryLink) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("query link: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("query link: expected 3 elements, got %d", len(parts))
	}
	l.Field, l.Operator, l.Value = parts[0], parts[1], parts[2]
	return nil
}

// FilterLink is one atomic filter condition.
type FilterLink struct {
	Field    string
	Operator Operator
	Value    string
}

// MarshalJSON encodes the link as [field, operator, value].
func (l FilterLink) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{l.Field, string(l.Operator), l.Value})
}

// UnmarshalJSON decodes [field, operator, value].
func (l *FilterLink) UnmarshalJSON(data []byte) error {
	var q QueryLink
	if err := q.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("filter link: %w", err)
	}
	*l = FilterLink{Field: q.Field, Operator: Operator(q.Operator), Value: q.Value}
	return nil
}

// SortLink is one sort key. Later links break ties of earlier ones.
type SortLink struct {
	Field     string
	Direction Direction
}

// MarshalJSON encodes the link as [field, direction].
func (l SortLink) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{l.Field, string(l.Direction)})
}

// UnmarshalJSON decodes [field, direction].
func (l *SortLink) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("sort link: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("sort link: expected 2 elements, got %d", len(parts))
	}
	dir, ok := ParseDirection(parts[1])
	if !ok {
		return fmt.Errorf("sort link: unknown direction %q", parts[1])
	}
	*l = SortLink{Field: parts[0], Direction: dir}
	return nil
}
