package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/engine"
	"github.com/roach88/querychain/internal/search"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    []string // Run trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, line := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against a finished result and
// returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertQuery:
		return assertQuery(result, a)
	case AssertChainLen:
		return assertChainLen(result, a)
	case AssertReasonCount:
		return assertReasonCount(result, a)
	case AssertSentences:
		return assertSentences(result, a)
	case AssertProjection:
		return assertProjection(result, a)
	case AssertSearchMatch:
		return assertSearchMatch(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertQuery(result *Result, a Assertion) error {
	if result.Query == a.Equals {
		return nil
	}
	return &AssertionError{
		Type:     AssertQuery,
		Expected: a.Equals,
		Actual:   result.Query,
		Trace:    result.Trace,
	}
}

// assertChainLen counts one chain, or every chain of a kind when no logical
// operator is given.
func assertChainLen(result *Result, a Assertion) error {
	c := result.Chains()
	kind := chain.Kind(a.Kind)

	var got int
	target := a.Kind
	if a.Logical == "" {
		got = c.Len(kind)
	} else {
		got = c.ChainLen(kind, chain.LogicalOperator(a.Logical))
		target += "." + a.Logical
	}

	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertChainLen,
		Expected: fmt.Sprintf("%d links in %s", a.Count, target),
		Actual:   fmt.Sprintf("%d links", got),
		Trace:    result.Trace,
	}
}

func assertReasonCount(result *Result, a Assertion) error {
	got := ReasonCounts(result.Outcomes)[engine.Reason(a.Reason)]
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertReasonCount,
		Expected: fmt.Sprintf("%d outcomes with reason %s", a.Count, a.Reason),
		Actual:   fmt.Sprintf("%d outcomes", got),
		Trace:    result.Trace,
	}
}

func assertSentences(result *Result, a Assertion) error {
	want := a.Lines
	if want == nil {
		want = []string{}
	}
	if slices.Equal(result.Sentences, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSentences,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", result.Sentences),
	}
}

func assertProjection(result *Result, a Assertion) error {
	want := a.Fields
	if want == nil {
		want = []string{}
	}
	if slices.Equal(result.State.Projection, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertProjection,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", result.State.Projection),
	}
}

// assertSearchMatch runs the committed search over a document.
func assertSearchMatch(result *Result, a Assertion) error {
	got := search.Match(a.Document, result.State.Search)
	if got == *a.Match {
		return nil
	}
	return &AssertionError{
		Type:     AssertSearchMatch,
		Expected: fmt.Sprintf("match=%t for %q", *a.Match, a.Document),
		Actual:   fmt.Sprintf("match=%t", got),
	}
}
