// Package session owns one query state and the edits applied to it.
//
// A Builder is what a query-building UI talks to: it keeps the filter and
// sort drafts, the free-text search draft, the projection and the page
// limit, routes chain mutations through the engine and compiles the result.
//
// A Builder is not safe for concurrent use. Snapshots returned by State are
// deep copies and may be kept.
package session

import (
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/compiler"
	"github.com/roach88/querychain/internal/engine"
	"github.com/roach88/querychain/internal/sentence"
	"github.com/roach88/querychain/internal/state"
)

// ReasonDraftError rejects a draft insertion while the draft is flagged as
// invalid.
const ReasonDraftError engine.Reason = "draft_error"

// Step is one action applied by a Builder.
type Step struct {
	Seq        int64
	Action     engine.Action
	Outcome    engine.Outcome
	ChainsHash string
}

// Builder is a single query-building session.
type Builder struct {
	id       string
	engine   *engine.Engine
	compiler *compiler.QueryCompiler
	clock    *Clock
	log      logrus.FieldLogger

	state       state.State
	searchDraft state.Search
	history     []Step
}

// Option configures a Builder.
type Option func(*builderConfig)

type builderConfig struct {
	engine   *engine.Engine
	compiler *compiler.QueryCompiler
	ids      IDGenerator
	log      logrus.FieldLogger
}

// WithEngine sets the engine used for chain mutations.
func WithEngine(e *engine.Engine) Option {
	return func(c *builderConfig) {
		c.engine = e
	}
}

// WithCompiler sets the query compiler.
func WithCompiler(qc *compiler.QueryCompiler) Option {
	return func(c *builderConfig) {
		c.compiler = qc
	}
}

// WithIDGenerator sets the session id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *builderConfig) {
		c.ids = g
	}
}

// WithLogger sets the logger. Entries carry the session id.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *builderConfig) {
		c.log = l
	}
}

// New starts a session with the initial query state.
func New(opts ...Option) *Builder {
	cfg := builderConfig{ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		cfg.engine = engine.New()
	}
	if cfg.compiler == nil {
		cfg.compiler = compiler.NewQueryCompiler()
	}
	if cfg.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		cfg.log = discard
	}

	id := cfg.ids.Generate()
	st := state.New()
	return &Builder{
		id:          id,
		engine:      cfg.engine,
		compiler:    cfg.compiler,
		clock:       NewClock(),
		log:         cfg.log.WithField("session", id),
		state:       st,
		searchDraft: st.Search,
	}
}

// ID returns the session id.
func (b *Builder) ID() string {
	return b.id
}

// State returns a deep copy of the current state.
func (b *Builder) State() state.State {
	return b.state.Clone()
}

// Chains returns a deep copy of the current chains.
func (b *Builder) Chains() chain.Chains {
	return b.state.Chains.Clone()
}

// Seq returns the sequence number of the last dispatched action, 0 if none.
func (b *Builder) Seq() int64 {
	return b.clock.Current()
}

// History returns the steps applied so far, oldest first.
func (b *Builder) History() []Step {
	return slices.Clone(b.history)
}

// Dispatch applies a chain mutation and records it as a step.
func (b *Builder) Dispatch(a engine.Action) engine.Outcome {
	next, out := b.engine.Try(b.state.Chains, a)
	b.state.Chains = next

	step := Step{
		Seq:        b.clock.Next(),
		Action:     a,
		Outcome:    out,
		ChainsHash: chain.MustHash(next),
	}
	b.history = append(b.history, step)

	b.log.WithFields(logrus.Fields{
		"seq":    step.Seq,
		"reason": out.Reason,
		"field":  out.Field,
	}).Debug("action dispatched")
	return out
}

// SetFilterField sets the draft filter field.
func (b *Builder) SetFilterField(field string) {
	b.state.Filter.Field = field
}

// SetFilterOperator sets the draft comparison operator.
func (b *Builder) SetFilterOperator(op chain.Operator) {
	b.state.Filter.Operator = op
}

// SetFilterLogicalOperator sets the group the draft filter is inserted into.
func (b *Builder) SetFilterLogicalOperator(op chain.LogicalOperator) {
	b.state.Filter.LogicalOperator = op
}

// SetFilterValue sets the draft filter value.
func (b *Builder) SetFilterValue(value string) {
	b.state.Filter.Value = value
}

// SetSortField sets the draft sort field.
func (b *Builder) SetSortField(field string) {
	b.state.Sort.Field = field
}

// SetSortDirection sets the draft sort direction.
func (b *Builder) SetSortDirection(dir chain.Direction) {
	b.state.Sort.Direction = dir
}

// SetError flags the drafts as invalid (true) or valid (false). While set,
// draft insertions are rejected.
func (b *Builder) SetError(isError bool) {
	b.state.IsError = isError
}

// InsertFilterFromDraft inserts the filter draft into its logical group.
func (b *Builder) InsertFilterFromDraft() engine.Outcome {
	if b.state.IsError {
		return b.draftRejected(b.state.Filter.Field)
	}
	d := b.state.Filter
	return b.Dispatch(engine.Insert{
		Kind:    chain.KindFilter,
		Logical: d.LogicalOperator,
		Link:    chain.L(d.Field, string(d.Operator), d.Value),
	})
}

// InsertSortFromDraft inserts the sort draft into the "and" sort group.
// A field that is already sorted on has its direction overwritten.
func (b *Builder) InsertSortFromDraft() engine.Outcome {
	if b.state.IsError {
		return b.draftRejected(b.state.Sort.Field)
	}
	d := b.state.Sort
	return b.Dispatch(engine.Insert{
		Kind:    chain.KindSort,
		Logical: chain.And,
		Link:    chain.L(d.Field, "", string(d.Direction)),
	})
}

func (b *Builder) draftRejected(field string) engine.Outcome {
	out := engine.Outcome{
		Reason:  ReasonDraftError,
		Field:   field,
		Message: "draft is flagged as invalid",
	}
	b.log.WithField("field", field).Debug("draft insertion rejected")
	return out
}

// SetSearchInclusion sets the draft inclusion terms.
func (b *Builder) SetSearchInclusion(s string) {
	b.searchDraft.Inclusion = s
}

// SetSearchExclusion sets the draft exclusion terms.
func (b *Builder) SetSearchExclusion(s string) {
	b.searchDraft.Exclusion = s
}

// SetSearchCase sets the draft case handling. Unknown values are ignored.
func (b *Builder) SetSearchCase(c state.SearchCase) {
	if c.Valid() {
		b.searchDraft.Case = c
	}
}

// SearchDraft returns the uncommitted search.
func (b *Builder) SearchDraft() state.Search {
	return b.searchDraft
}

// CommitSearch copies the whole search draft into the state at once.
func (b *Builder) CommitSearch() {
	b.state.Search = b.searchDraft
}

// ResetSearch clears both the draft and the committed search. The case
// setting returns to its initial value.
func (b *Builder) ResetSearch() {
	initial := state.New().Search
	b.searchDraft = initial
	b.state.Search = initial
}

// SetProjection replaces the excluded fields.
func (b *Builder) SetProjection(fields []string) {
	b.state.Projection = slices.Clone(fields)
	if b.state.Projection == nil {
		b.state.Projection = []string{}
	}
}

// ToggleProjection adds field to the projection, or removes it if present.
func (b *Builder) ToggleProjection(field string) {
	if i := slices.Index(b.state.Projection, field); i >= 0 {
		b.state.Projection = slices.Delete(slices.Clone(b.state.Projection), i, i+1)
		return
	}
	b.state.Projection = append(slices.Clone(b.state.Projection), field)
}

// SetLimitPerPage stores the page limit as typed.
func (b *Builder) SetLimitPerPage(limit string) {
	b.state.LimitPerPage = limit
}

// Compile returns the query string for the current state.
func (b *Builder) Compile() string {
	return b.compiler.Compile(b.state)
}

// Describe returns one sentence per chain link.
func (b *Builder) Describe() []string {
	return sentence.Describe(b.state.Chains)
}
