package harness

import (
	"strings"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/engine"
	"github.com/roach88/querychain/internal/session"
	"github.com/roach88/querychain/internal/state"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	SessionID string `json:"session_id"`

	// Trace is the textual record of the run, one line per entry.
	Trace []string `json:"trace"`

	// Errors contains failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	Query     string         `json:"query"`
	Sentences []string       `json:"sentences"`
	State     state.State    `json:"-"`
	History   []session.Step `json:"-"`

	// Outcomes holds the outcome of every inserting or deleting step,
	// including draft rejections that never reach the history.
	Outcomes []engine.Outcome `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []string{},
		Errors:    []string{},
		Sentences: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends one trace line.
func (r *Result) AddTrace(line string) {
	r.Trace = append(r.Trace, line)
}

// Chains returns the final chains.
func (r *Result) Chains() chain.Chains {
	return r.State.Chains
}

// TraceText joins the trace into newline-terminated text.
func (r *Result) TraceText() string {
	if len(r.Trace) == 0 {
		return ""
	}
	return strings.Join(r.Trace, "\n") + "\n"
}
