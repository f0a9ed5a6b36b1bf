package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querychain/internal/chain"
	"github.com/roach88/querychain/internal/compiler"
	"github.com/roach88/querychain/internal/engine"
	"github.com/roach88/querychain/internal/state"
	"github.com/roach88/querychain/internal/template"
)

func newTestBuilder(opts ...Option) *Builder {
	return New(append([]Option{WithIDGenerator(NewFixedGenerator("session-1"))}, opts...)...)
}

func TestNew_InitialState(t *testing.T) {
	b := newTestBuilder()
	assert.Equal(t, "session-1", b.ID())
	assert.Equal(t, state.New(), b.State())
	assert.Equal(t, "?&limit=10", b.Compile())
	assert.Empty(t, b.History())
}

func TestBuilder_DraftWorkflow(t *testing.T) {
	b := newTestBuilder()

	b.SetFilterField("status")
	b.SetFilterOperator(chain.OpEqual)
	b.SetFilterValue("active")
	out := b.InsertFilterFromDraft()
	require.Equal(t, engine.ReasonInserted, out.Reason)

	b.SetSortField("createdAt")
	b.SetSortDirection(chain.Descending)
	require.Equal(t, engine.ReasonInserted, b.InsertSortFromDraft().Reason)

	b.SetProjection([]string{"password"})
	b.SetLimitPerPage("25")

	assert.Equal(t,
		"?&and[status][$eq]=active&sort[createdAt]=-1&projection=password&limit=25",
		b.Compile())
	assert.Equal(t, []string{
		"`status` equals `active`.",
		"Sort by `createdAt`, descending.",
	}, b.Describe())
}

func TestBuilder_FilterDraftLogicalOperator(t *testing.T) {
	b := newTestBuilder()
	b.SetFilterField("age")
	b.SetFilterOperator(chain.OpGreaterThan)
	b.SetFilterValue("30")
	b.SetFilterLogicalOperator(chain.Nor)
	b.InsertFilterFromDraft()

	assert.Len(t, b.Chains().Filter.Nor, 1)
	assert.Empty(t, b.Chains().Filter.And)
}

func TestBuilder_ErrorFlagBlocksDraftInsertion(t *testing.T) {
	b := newTestBuilder()
	b.SetFilterField("age")
	b.SetFilterValue("30")
	b.SetSortField("age")
	b.SetError(true)

	assert.Equal(t, ReasonDraftError, b.InsertFilterFromDraft().Reason)
	assert.Equal(t, ReasonDraftError, b.InsertSortFromDraft().Reason)
	assert.True(t, b.Chains().IsEmpty())
	assert.Empty(t, b.History())

	b.SetError(false)
	assert.Equal(t, engine.ReasonInserted, b.InsertFilterFromDraft().Reason)
}

func TestBuilder_SearchCommitIsAtomic(t *testing.T) {
	b := newTestBuilder()
	b.SetSearchInclusion("John Doe")
	b.SetSearchExclusion("Jane")
	b.SetSearchCase(state.CaseSensitive)

	assert.True(t, b.State().Search.IsEmpty(), "draft must not leak before commit")
	assert.Equal(t, "?&limit=10", b.Compile())

	b.CommitSearch()
	assert.Equal(t, state.Search{Inclusion: "John Doe", Exclusion: "Jane", Case: state.CaseSensitive}, b.State().Search)
	assert.Equal(t, "?&$text[$search]=John Doe-Jane&$text[$caseSensitive]=true&limit=10", b.Compile())

	b.SetSearchInclusion("changed")
	assert.Equal(t, "John Doe", b.State().Search.Inclusion)
}

func TestBuilder_ResetSearch(t *testing.T) {
	b := newTestBuilder()
	b.SetSearchInclusion("John")
	b.SetSearchCase(state.CaseSensitive)
	b.CommitSearch()

	b.ResetSearch()
	assert.Equal(t, state.New().Search, b.State().Search)
	assert.Equal(t, state.New().Search, b.SearchDraft())
}

func TestBuilder_SetSearchCaseIgnoresUnknown(t *testing.T) {
	b := newTestBuilder()
	b.SetSearchCase("shouting")
	assert.Equal(t, state.CaseInsensitive, b.SearchDraft().Case)
}

func TestBuilder_StateIsSnapshot(t *testing.T) {
	b := newTestBuilder()
	b.SetProjection([]string{"password"})
	b.Dispatch(engine.Insert{Kind: chain.KindFilter, Logical: chain.And, Link: chain.L("a", "equal to", "1")})

	snap := b.State()
	snap.Projection[0] = "email"
	snap.Chains.Filter.And[0].Value = "2"

	assert.Equal(t, []string{"password"}, b.State().Projection)
	assert.Equal(t, "1", b.Chains().Filter.And[0].Value)
}

func TestBuilder_ToggleProjection(t *testing.T) {
	b := newTestBuilder()
	b.ToggleProjection("password")
	b.ToggleProjection("email")
	assert.Equal(t, []string{"password", "email"}, b.State().Projection)

	b.ToggleProjection("password")
	assert.Equal(t, []string{"email"}, b.State().Projection)

	b.SetProjection(nil)
	assert.Equal(t, []string{}, b.State().Projection)
}

func TestBuilder_HistoryRecordsEveryDispatch(t *testing.T) {
	b := newTestBuilder()
	ins := engine.Insert{Kind: chain.KindFilter, Logical: chain.And, Link: chain.L("a", "equal to", "1")}

	b.Dispatch(ins)
	b.Dispatch(ins)
	b.Dispatch(engine.Delete{Kind: chain.KindFilter, Logical: chain.And, Index: 0})

	h := b.History()
	require.Len(t, h, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{h[0].Seq, h[1].Seq, h[2].Seq})
	assert.Equal(t, engine.ReasonInserted, h[0].Outcome.Reason)
	assert.Equal(t, engine.ReasonDuplicate, h[1].Outcome.Reason)
	assert.Equal(t, engine.ReasonDeleted, h[2].Outcome.Reason)
	assert.Equal(t, h[0].ChainsHash, h[1].ChainsHash)
	assert.Equal(t, chain.MustHash(chain.New()), h[2].ChainsHash)
}

func TestBuilder_WithEngineAndCompiler(t *testing.T) {
	reg := template.NewRegistry()
	require.NoError(t, reg.Add("users", []template.FieldTemplate{{Name: "age", Kind: template.KindNumber}}))

	b := newTestBuilder(
		WithEngine(engine.New(engine.WithRegistry(reg, "users"), engine.WithMaxLinks(1))),
		WithCompiler(compiler.NewQueryCompiler(compiler.WithDefaultLimit(50))),
	)

	b.SetFilterField("name")
	b.SetFilterValue("x")
	assert.Equal(t, engine.ReasonUnknownField, b.InsertFilterFromDraft().Reason)

	b.SetFilterField("age")
	b.SetFilterValue("30")
	assert.Equal(t, engine.ReasonInserted, b.InsertFilterFromDraft().Reason)
	b.SetFilterValue("31")
	assert.Equal(t, engine.ReasonCapacity, b.InsertFilterFromDraft().Reason)

	assert.Equal(t, "?&and[age][$eq]=30&limit=50", b.Compile())
}

func TestBuilders_DoNotShareState(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	b1 := New(WithIDGenerator(gen))
	b2 := New(WithIDGenerator(gen))

	b1.SetProjection([]string{"password"})
	b1.Dispatch(engine.Insert{Kind: chain.KindSort, Logical: chain.And, Link: chain.L("x", "", "asc")})

	assert.Empty(t, b2.State().Projection)
	assert.True(t, b2.Chains().IsEmpty())
	assert.NotEqual(t, b1.ID(), b2.ID())
}
