// Package compiler turns a query state into the query string sent to the
// REST backend.
//
// Output layout, in order:
//
//	?
//	&<and|or|nor>[<field>][<$op>]=<value>     one per filter link
//	&sort[<field>]=<1|-1>                      one per sort link
//	&projection=<f1,f2,...>                    when the projection is not empty
//	&$text[$search]=<incl>[-<excl>]&$text[$caseSensitive]=<bool>
//	&limit=<n>
//
// Chains are walked filter before sort, and within each kind in the order
// and, or, nor. Values are written as typed; no URL encoding is applied.
package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/state"
)

// DefaultLimit is used when LimitPerPage holds no leading integer.
const DefaultLimit = 10

// operatorCodes maps display operators to backend operators.
var operatorCodes = map[chain.Operator]string{
	chain.OpEqual:              "$eq",
	chain.OpGreaterThan:        "$gt",
	chain.OpGreaterThanOrEqual: "$gte",
	chain.OpLessThan:           "$lt",
	chain.OpLessThanOrEqual:    "$lte",
	chain.OpNotEqual:           "$ne",
	chain.OpIn:                 "$in",
}

// EncodeOperator returns the backend operator for op. Unknown operators
// encode as $in.
func EncodeOperator(op chain.Operator) string {
	if code, ok := operatorCodes[op]; ok {
		return code
	}
	return "$in"
}

// QueryCompiler compiles query states. It holds configuration only.
type QueryCompiler struct {
	defaultLimit int
}

// Option configures a QueryCompiler.
type Option func(*QueryCompiler)

// WithDefaultLimit sets the limit used when the state has none.
func WithDefaultLimit(n int) Option {
	return func(c *QueryCompiler) {
		c.defaultLimit = n
	}
}

// NewQueryCompiler creates a QueryCompiler.
func NewQueryCompiler(opts ...Option) *QueryCompiler {
	c := &QueryCompiler{defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles s with DefaultLimit.
func Compile(s state.State) string {
	return NewQueryCompiler().Compile(s)
}

// Compile returns the query string for s. It never fails.
func (c *QueryCompiler) Compile(s state.State) string {
	var b strings.Builder
	b.WriteByte('?')

	for _, op := range chain.LogicalOperators() {
		for _, l := range s.Chains.Filter.Get(op) {
			b.WriteString("&")
			b.WriteString(string(op))
			b.WriteString("[")
			b.WriteString(l.Field)
			b.WriteString("][")
			b.WriteString(EncodeOperator(l.Operator))
			b.WriteString("]=")
			b.WriteString(l.Value)
		}
	}
	for _, op := range chain.LogicalOperators() {
		for _, l := range s.Chains.Sort.Get(op) {
			b.WriteString("&sort[")
			b.WriteString(l.Field)
			b.WriteString("]=")
			b.WriteString(encodeDirection(l.Direction))
		}
	}

	if len(s.Projection) > 0 {
		b.WriteString("&projection=")
		b.WriteString(strings.Join(s.Projection, ","))
	}

	if !s.Search.IsEmpty() {
		b.WriteString("&$text[$search]=")
		b.WriteString(s.Search.Inclusion)
		if s.Search.Exclusion != "" {
			b.WriteString("-")
			b.WriteString(s.Search.Exclusion)
		}
		b.WriteString("&$text[$caseSensitive]=")
		b.WriteString(strconv.FormatBool(s.Search.Case == state.CaseSensitive))
	}

	b.WriteString("&limit=")
	if n, ok := LeadingInteger(s.LimitPerPage); ok {
		b.WriteString(n)
	} else {
		b.WriteString(strconv.Itoa(c.defaultLimit))
	}
	return b.String()
}

func encodeDirection(d chain.Direction) string {
	if d == chain.Descending {
		return "-1"
	}
	return "1"
}

// LeadingInteger extracts the integer prefix of s: optional leading
// whitespace, an optional sign, then decimal digits. Anything after the
// digits is ignored ("25 per page" yields "25"). The result has no leading
// zeros. ok is false when s has no digits in that position.
func LeadingInteger(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", false
	}

	digits := strings.TrimLeft(s[:end], "0")
	if digits == "" {
		return "0", true
	}
	if neg {
		return "-" + digits, true
	}
	return digits, true
}
