// Package sentence renders chains as short English sentences, one per link.
package sentence

import (
	"fmt"

	"github.com/roach88/querychain/internal/chain"
)

var verbs = map[chain.Operator]string{
	chain.OpEqual:              "equals",
	chain.OpNotEqual:           "does not equal",
	chain.OpGreaterThan:        "is greater than",
	chain.OpGreaterThanOrEqual: "is at least",
	chain.OpLessThan:           "is less than",
	chain.OpLessThanOrEqual:    "is at most",
	chain.OpIn:                 "is in",
}

var prefixes = map[chain.LogicalOperator]string{
	chain.And: "",
	chain.Or:  "Or ",
	chain.Nor: "Not ",
}

// Verb returns the phrase used for op. Unknown operators read as "is in",
// matching how they are compiled.
func Verb(op chain.Operator) string {
	if v, ok := verbs[op]; ok {
		return v
	}
	return verbs[chain.OpIn]
}

// Filter renders one filter link of the given group.
func Filter(op chain.LogicalOperator, l chain.FilterLink) string {
	return fmt.Sprintf("%s`%s` %s `%s`.", prefixes[op], l.Field, Verb(l.Operator), l.Value)
}

// Describe returns one sentence per link, filters first, in chain order.
func Describe(c chain.Chains) []string {
	var out []string
	for _, op := range chain.LogicalOperators() {
		for _, l := range c.Filter.Get(op) {
			out = append(out, Filter(op, l))
		}
	}

	first := true
	for _, op := range chain.LogicalOperators() {
		for _, l := range c.Sort.Get(op) {
			lead := "Then by"
			if first {
				lead = "Sort by"
				first = false
			}
			out = append(out, fmt.Sprintf("%s `%s`, %s.", lead, l.Field, l.Direction))
		}
	}
	return out
}
