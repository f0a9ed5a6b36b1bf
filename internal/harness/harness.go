package harness

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/compiler"
	"github.com/roach88/querychain/internal/engine"
	"github.com/roach88/querychain/internal/journal"
	"github.com/roach88/querychain/internal/session"
	"github.com/roach88/querychain/internal/state"
	"github.com/roach88/querychain/internal/template"
)

// RunOption configures a scenario run.
type RunOption func(*runConfig)

type runConfig struct {
	maxLinks     int
	defaultLimit int
	journal      *journal.Journal
	log          logrus.FieldLogger
	goldenDir    string
	updateGolden bool
}

// WithDefaults sets the engine settings used when a scenario does not
// override them.
func WithDefaults(maxLinks, defaultLimit int) RunOption {
	return func(c *runConfig) {
		if maxLinks > 0 {
			c.maxLinks = maxLinks
		}
		if defaultLimit > 0 {
			c.defaultLimit = defaultLimit
		}
	}
}

// WithJournal records the session, its steps and its compiled queries.
func WithJournal(j *journal.Journal) RunOption {
	return func(c *runConfig) {
		c.journal = j
	}
}

// WithGolden compares each trace against {dir}/{scenario name}.golden when
// that file exists. With update set the file is rewritten instead.
func WithGolden(dir string, update bool) RunOption {
	return func(c *runConfig) {
		c.goldenDir = dir
		c.updateGolden = update
	}
}

// WithLogger sets the logger handed to the engine and the session.
func WithLogger(l logrus.FieldLogger) RunOption {
	return func(c *runConfig) {
		c.log = l
	}
}

// Harness executes one scenario.
type Harness struct {
	builder  *session.Builder
	log      logrus.FieldLogger
	compiles []compileRecord
}

type compileRecord struct {
	afterSeq int64
	query    string
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Load the field templates, if any
// 2. Build the engine, compiler and session
// 3. Apply the steps, checking step expectations
// 4. Evaluate assertions against the final state
// 5. Record the session in the journal, if any
//
// A failed expectation or assertion marks the result as failed; an error is
// returned only when the scenario cannot be run.
func Run(ctx context.Context, scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		maxLinks:     engine.DefaultMaxLinks,
		defaultLimit: compiler.DefaultLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		cfg.log = discard
	}
	if scenario.Config.MaxLinks > 0 {
		cfg.maxLinks = scenario.Config.MaxLinks
	}
	if scenario.Config.DefaultLimit > 0 {
		cfg.defaultLimit = scenario.Config.DefaultLimit
	}

	engineOpts := []engine.Option{
		engine.WithMaxLinks(cfg.maxLinks),
		engine.WithLogger(cfg.log),
	}
	if scenario.Templates != "" {
		reg, err := template.Load(scenario.Templates)
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
		if reg.Templates(scenario.Collection) == nil {
			return nil, fmt.Errorf("collection %q not found in %s", scenario.Collection, scenario.Templates)
		}
		engineOpts = append(engineOpts, engine.WithRegistry(reg, scenario.Collection))
	}

	// Unnamed sessions keep a stable id for traces, but get a fresh one when
	// journaled so separate runs never land on the same record.
	var ids session.IDGenerator = session.NewFixedGenerator(scenario.Session)
	if scenario.Session == "" {
		ids = session.NewFixedGenerator(DefaultSessionID)
		if cfg.journal != nil {
			ids = session.UUIDv7Generator{}
		}
	}

	b := session.New(
		session.WithEngine(engine.New(engineOpts...)),
		session.WithCompiler(compiler.NewQueryCompiler(compiler.WithDefaultLimit(cfg.defaultLimit))),
		session.WithIDGenerator(ids),
		session.WithLogger(cfg.log),
	)
	h := &Harness{
		builder: b,
		log:     cfg.log.WithField("scenario", scenario.Name),
	}

	result := NewResult()
	result.SessionID = b.ID()
	result.AddTrace("scenario: " + scenario.Name)
	result.AddTrace("session: " + b.ID())
	if scenario.Collection != "" {
		result.AddTrace("collection: " + scenario.Collection)
	}

	for i, st := range scenario.Steps {
		h.executeStep(i, st, result)
	}

	h.finish(result)

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	if cfg.goldenDir != "" {
		if err := checkGolden(cfg.goldenDir, cfg.updateGolden, scenario.Name, result); err != nil {
			return nil, err
		}
	}

	if cfg.journal != nil {
		if err := h.record(ctx, cfg.journal, scenario.Collection, cfg.maxLinks); err != nil {
			return nil, fmt.Errorf("failed to record session: %w", err)
		}
	}

	h.log.WithFields(logrus.Fields{
		"steps": len(scenario.Steps),
		"pass":  result.Pass,
	}).Info("scenario completed")
	return result, nil
}

// executeStep applies one step and appends its trace line.
func (h *Harness) executeStep(i int, st Step, result *Result) {
	b := h.builder
	prefix := fmt.Sprintf("step %d: ", i+1)

	var (
		line string
		out  engine.Outcome
	)
	switch st.Op {
	case OpInsert:
		link := chain.L(st.Link[0], st.Link[1], st.Link[2])
		out = b.Dispatch(engine.Insert{
			Kind:    chain.Kind(st.Kind),
			Logical: chain.LogicalOperator(st.Logical),
			Link:    link,
		})
		line = fmt.Sprintf("insert %s.%s [%q %q %q] -> %s",
			st.Kind, st.Logical, link.Field, link.Operator, link.Value, out.Reason)

	case OpDelete:
		out = b.Dispatch(engine.Delete{
			Kind:    chain.Kind(st.Kind),
			Logical: chain.LogicalOperator(st.Logical),
			Index:   *st.Index,
		})
		line = fmt.Sprintf("delete %s.%s [%d] -> %s", st.Kind, st.Logical, *st.Index, out.Reason)

	case OpFilterDraft:
		if st.Field != "" {
			b.SetFilterField(st.Field)
		}
		if st.Operator != "" {
			b.SetFilterOperator(chain.Operator(st.Operator))
		}
		if st.Logical != "" {
			b.SetFilterLogicalOperator(chain.LogicalOperator(st.Logical))
		}
		if st.Value != nil {
			b.SetFilterValue(*st.Value)
		}
		d := b.State().Filter
		line = fmt.Sprintf("filter_draft field=%q operator=%q logical=%s value=%q",
			d.Field, d.Operator, d.LogicalOperator, d.Value)

	case OpInsertFilter:
		out = b.InsertFilterFromDraft()
		line = "insert_filter -> " + string(out.Reason)

	case OpSortDraft:
		if st.Field != "" {
			b.SetSortField(st.Field)
		}
		if st.Direction != "" {
			b.SetSortDirection(chain.Direction(st.Direction))
		}
		d := b.State().Sort
		line = fmt.Sprintf("sort_draft field=%q direction=%s", d.Field, d.Direction)

	case OpInsertSort:
		out = b.InsertSortFromDraft()
		line = "insert_sort -> " + string(out.Reason)

	case OpSearch:
		if st.Inclusion != nil {
			b.SetSearchInclusion(*st.Inclusion)
		}
		if st.Exclusion != nil {
			b.SetSearchExclusion(*st.Exclusion)
		}
		if st.Case != "" {
			b.SetSearchCase(state.SearchCase(st.Case))
		}
		d := b.SearchDraft()
		line = fmt.Sprintf("search inclusion=%q exclusion=%q case=%s", d.Inclusion, d.Exclusion, d.Case)

	case OpCommitSearch:
		b.CommitSearch()
		line = "commit_search"

	case OpResetSearch:
		b.ResetSearch()
		line = "reset_search"

	case OpProjection:
		b.SetProjection(st.Fields)
		line = fmt.Sprintf("projection %v", b.State().Projection)

	case OpToggleProjection:
		b.ToggleProjection(st.Field)
		line = fmt.Sprintf("toggle_projection %q -> %v", st.Field, b.State().Projection)

	case OpLimit:
		b.SetLimitPerPage(*st.Value)
		line = fmt.Sprintf("limit %q", *st.Value)

	case OpSetError:
		b.SetError(*st.Error)
		line = fmt.Sprintf("set_error %t", *st.Error)

	case OpCompile:
		query := b.Compile()
		h.compiles = append(h.compiles, compileRecord{afterSeq: b.Seq(), query: query})
		line = "compile -> " + query
		if st.Query != nil && *st.Query != query {
			result.AddError(fmt.Sprintf("step %d: expected query %q, got %q", i+1, *st.Query, query))
		}
	}

	if dispatching(st.Op) {
		result.Outcomes = append(result.Outcomes, out)
	}
	if st.Expect != "" && string(out.Reason) != st.Expect {
		msg := fmt.Sprintf("step %d: expected %s, got %s", i+1, st.Expect, out.Reason)
		if out.Message != "" {
			msg += ": " + out.Message
		}
		result.AddError(msg)
	}

	result.AddTrace(prefix + line)
	h.log.WithFields(logrus.Fields{
		"step":   i + 1,
		"op":     st.Op,
		"reason": out.Reason,
	}).Debug("step executed")
}

// finish captures the final state and appends the summary to the trace.
func (h *Harness) finish(result *Result) {
	b := h.builder
	result.State = b.State()
	result.History = b.History()
	result.Query = b.Compile()
	if s := b.Describe(); s != nil {
		result.Sentences = s
	}

	result.AddTrace("chains:")
	lines := chainLines(result.State.Chains)
	if len(lines) == 0 {
		result.AddTrace("  (empty)")
	}
	for _, l := range lines {
		result.AddTrace("  " + l)
	}
	result.AddTrace("query: " + result.Query)
	result.AddTrace("sentences:")
	for _, s := range result.Sentences {
		result.AddTrace("  " + s)
	}
}

// chainLines renders every link as "kind.logical[i]: ..." in chain order.
func chainLines(c chain.Chains) []string {
	var out []string
	for _, op := range chain.LogicalOperators() {
		for i, l := range c.Filter.Get(op) {
			out = append(out, fmt.Sprintf("filter.%s[%d]: %s %s %q", op, i, l.Field, l.Operator, l.Value))
		}
	}
	for _, op := range chain.LogicalOperators() {
		for i, l := range c.Sort.Get(op) {
			out = append(out, fmt.Sprintf("sort.%s[%d]: %s %s", op, i, l.Field, l.Direction))
		}
	}
	return out
}

func (h *Harness) record(ctx context.Context, j *journal.Journal, collection string, maxLinks int) error {
	b := h.builder
	if err := j.RecordBuilder(ctx, b, collection, maxLinks); err != nil {
		return err
	}
	for _, c := range h.compiles {
		if err := j.RecordCompile(ctx, b.ID(), c.afterSeq, c.query); err != nil {
			return err
		}
	}
	return nil
}

// ReasonCounts tallies outcome reasons.
func ReasonCounts(outcomes []engine.Outcome) map[engine.Reason]int {
	counts := make(map[engine.Reason]int)
	for _, out := range outcomes {
		counts[out.Reason]++
	}
	return counts
}

// FormatErrors joins result errors for display.
func FormatErrors(r *Result) string {
	return strings.Join(r.Errors, "\n")
}
