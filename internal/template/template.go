// Package template describes the fields a user may query on a collection.
//
// A FieldTemplate names a field, its value kind and the comparison operators
// that are legal for it. Templates are loaded once per collection (from CUE or
// YAML) and are immutable afterwards. The chain mutation engine consults them
// to reject links that name unknown fields or illegal operators.
package template

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/querychain/internal/chain"
)

// Kind is the value kind of a field.
type Kind string

const (
	KindDate   Kind = "date"
	KindNumber Kind = "number"
	KindText   Kind = "text"
	KindSelect Kind = "select"
)

// Kinds returns every known field kind.
func Kinds() []Kind {
	return []Kind{KindDate, KindNumber, KindText, KindSelect}
}

// Valid reports whether k is a known field kind.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds(), k)
}

// DefaultOperators returns the operators legal for a kind when a template
// does not list its own.
func DefaultOperators(k Kind) []chain.Operator {
	switch k {
	case KindNumber, KindDate:
		return []chain.Operator{
			chain.OpEqual,
			chain.OpNotEqual,
			chain.OpGreaterThan,
			chain.OpGreaterThanOrEqual,
			chain.OpLessThan,
			chain.OpLessThanOrEqual,
		}
	case KindText:
		return []chain.Operator{chain.OpEqual, chain.OpNotEqual}
	case KindSelect:
		return []chain.Operator{chain.OpEqual, chain.OpNotEqual, chain.OpIn}
	default:
		return nil
	}
}

// dateLayouts are tried in order by CheckValue for date fields.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// FieldTemplate describes one queryable field.
type FieldTemplate struct {
	Name      string           `json:"name"`
	Kind      Kind             `json:"kind"`
	Operators []chain.Operator `json:"operators"`
	Options   []string         `json:"options,omitempty"`
}

// Allows reports whether op may be used to filter this field.
func (f FieldTemplate) Allows(op chain.Operator) bool {
	return slices.Contains(f.Operators, op)
}

// CheckValue validates a filter value against the field kind.
func (f FieldTemplate) CheckValue(value string) error {
	switch f.Kind {
	case KindNumber:
		if _, err := decimal.NewFromString(value); err != nil {
			return fmt.Errorf("field %q: %q is not a number", f.Name, value)
		}
	case KindDate:
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, value); err == nil {
				return nil
			}
		}
		return fmt.Errorf("field %q: %q is not a date (want RFC 3339 or YYYY-MM-DD)", f.Name, value)
	case KindSelect:
		if len(f.Options) > 0 && !slices.Contains(f.Options, value) {
			return fmt.Errorf("field %q: %q is not one of %v", f.Name, value, f.Options)
		}
	}
	return nil
}

// Validate checks the template for internal consistency. It fills in the
// kind's default operators when none are listed.
func (f *FieldTemplate) Validate() error {
	if f.Name == "" {
		return &CompileError{Field: "name", Message: "field name is required"}
	}
	if !f.Kind.Valid() {
		return &CompileError{
			Field:   f.Name + ".kind",
			Message: fmt.Sprintf("unknown kind %q (want one of %v)", f.Kind, Kinds()),
		}
	}
	if len(f.Operators) == 0 {
		f.Operators = DefaultOperators(f.Kind)
	}
	for _, op := range f.Operators {
		if !op.Known() {
			return &CompileError{
				Field:   f.Name + ".operators",
				Message: fmt.Sprintf("unknown operator %q", op),
			}
		}
	}
	if len(f.Options) > 0 && f.Kind != KindSelect {
		return &CompileError{
			Field:   f.Name + ".options",
			Message: fmt.Sprintf("options are only allowed on %s fields", KindSelect),
		}
	}
	return nil
}
