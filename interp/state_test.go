package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typetrace-dev/typetrace/abstract"
	"github.com/typetrace-dev/typetrace/code"
	"github.com/typetrace-dev/typetrace/typegraph"
)

func testContext() *Context {
	p := typegraph.New()
	return NewContext(p, p.NewNode(1, nil))
}

func newVar(ctx *Context, payload any) *typegraph.Variable {
	v := ctx.Program.NewVariable()
	v.AddBinding(&abstract.Constant{Type: "builtins.int", Payload: payload})
	return v
}

func TestPushPopRoundTrip(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	v := newVar(ctx, 1)

	after, got, err := s.Push(v).Pop()
	require.NoError(t, err)
	assert.Same(t, v, got)
	assert.Empty(t, after.DataStack())
	assert.Same(t, s.Node(), after.Node())
	assert.Equal(t, s.Why(), after.Why())
}

func TestPopUnderflow(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	_, _, err := s.Pop()
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestPopnZeroIsNoop(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx).Push(newVar(ctx, 1))
	after, values, err := s.Popn(0)
	require.NoError(t, err)
	assert.Same(t, s, after)
	assert.Empty(t, values)
}

func TestPopnNeverTruncates(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx).Push(newVar(ctx, 1), newVar(ctx, 2))
	_, _, err := s.Popn(3)
	require.ErrorIs(t, err, ErrStackUnderflow)
	// The failed call must not have consumed anything.
	assert.Len(t, s.DataStack(), 2)
}

func TestPopnOrdering(t *testing.T) {
	ctx := testContext()
	a, b, c := newVar(ctx, 1), newVar(ctx, 2), newVar(ctx, 3)
	s := NewFrameState(ctx.RootNode, ctx).Push(a, b, c)
	after, values, err := s.Popn(2)
	require.NoError(t, err)
	assert.Equal(t, []*typegraph.Variable{b, c}, values)
	assert.Equal(t, []*typegraph.Variable{a}, after.DataStack())
}

func TestPopAndDiscard(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	assert.Same(t, s, s.PopAndDiscard())

	v := newVar(ctx, 1)
	assert.Empty(t, s.Push(v).PopAndDiscard().DataStack())
}

func TestPeekTopTopn(t *testing.T) {
	ctx := testContext()
	a, b, c := newVar(ctx, 1), newVar(ctx, 2), newVar(ctx, 3)
	s := NewFrameState(ctx.RootNode, ctx).Push(a, b, c)

	assert.Same(t, c, s.Top())
	assert.Same(t, c, s.Peek(1))
	assert.Same(t, a, s.Peek(3))
	assert.Equal(t, []*typegraph.Variable{b, c}, s.Topn(2))
	assert.Empty(t, s.Topn(0))
	assert.Empty(t, s.Topn(-1))
}

func TestSetTopSetSecond(t *testing.T) {
	ctx := testContext()
	a, b, r := newVar(ctx, 1), newVar(ctx, 2), newVar(ctx, 9)
	s := NewFrameState(ctx.RootNode, ctx).Push(a, b)

	assert.Equal(t, []*typegraph.Variable{a, r}, s.SetTop(r).DataStack())
	assert.Equal(t, []*typegraph.Variable{r, b}, s.SetSecond(r).DataStack())
	// The original is untouched.
	assert.Equal(t, []*typegraph.Variable{a, b}, s.DataStack())
}

func TestRotnOneIsIdentity(t *testing.T) {
	ctx := testContext()
	a, b := newVar(ctx, 1), newVar(ctx, 2)
	s := NewFrameState(ctx.RootNode, ctx).Push(a, b)
	after, err := s.Rotn(1)
	require.NoError(t, err)
	assert.Equal(t, s.DataStack(), after.DataStack())
}

func TestRotnScenario(t *testing.T) {
	ctx := testContext()
	v1, v2, v3 := newVar(ctx, 1), newVar(ctx, 2), newVar(ctx, 3)
	s := NewFrameState(ctx.RootNode, ctx).Push(v1, v2, v3)
	after, err := s.Rotn(3)
	require.NoError(t, err)
	assert.Equal(t, []*typegraph.Variable{v3, v1, v2}, after.Topn(3))
}

func TestRotnUnderflow(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx).Push(newVar(ctx, 1))
	_, err := s.Rotn(2)
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestBlockStack(t *testing.T) {
	ctx := testContext()
	handler := ctx.Program.NewNode(10, nil)
	s := NewFrameState(ctx.RootNode, ctx)

	block := Block{Kind: ExceptBlock, Handler: handler, Level: 0}
	pushed := s.PushBlock(block)
	assert.Empty(t, s.BlockStack())
	require.Len(t, pushed.BlockStack(), 1)

	after, got, err := pushed.PopBlock()
	require.NoError(t, err)
	assert.Equal(t, block, got)
	assert.Empty(t, after.BlockStack())

	_, _, err = s.PopBlock()
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestChangeCFGNode(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	assert.Same(t, s, s.ChangeCFGNode(ctx.RootNode))

	next := ctx.Program.NewNode(2, nil)
	moved := s.ChangeCFGNode(next)
	assert.Same(t, next, moved.Node())
	assert.False(t, ctx.RootNode.HasEdgeTo(next))
}

func TestConnectToCFGNode(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	next := ctx.Program.NewNode(2, nil)
	moved := s.ConnectToCFGNode(next)
	assert.Same(t, next, moved.Node())
	assert.True(t, ctx.RootNode.HasEdgeTo(next))
}

func TestForwardCFGNode(t *testing.T) {
	ctx := testContext()
	ctx.Frame = NewSimpleFrame(&code.Instruction{Offset: 0, Line: 17}, ctx.RootNode, nil)
	s := NewFrameState(ctx.RootNode, ctx)

	moved := s.ForwardCFGNode(nil)
	assert.NotSame(t, s.Node(), moved.Node())
	assert.True(t, ctx.RootNode.HasEdgeTo(moved.Node()))
	assert.Equal(t, 17, moved.Node().Line)
	assert.Nil(t, moved.Node().Condition)
}

func TestForwardCFGNodeWithCondition(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	v := ctx.Program.NewVariable()
	cond := v.AddBinding(&abstract.Constant{Type: "builtins.bool", Payload: true})

	moved := s.ForwardCFGNode(cond)
	assert.Same(t, cond, moved.Node().Condition)
	// No current frame: the node is tagged with line 0.
	assert.Equal(t, 0, moved.Node().Line)
}

func TestMergeIntoSelfSameNode(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx).Push(newVar(ctx, 1))
	assert.Same(t, s, s.MergeInto(s))
	assert.Same(t, s, s.MergeInto(nil))
}

func TestMergeIntoPastesAlternatives(t *testing.T) {
	ctx := testContext()
	a := newVar(ctx, 1)
	b := newVar(ctx, 2)
	nodeA := ctx.Program.NewNode(2, nil)
	nodeB := ctx.Program.NewNode(3, nil)
	a.Bindings()[0].AddOrigin(nodeA, nil)
	b.Bindings()[0].AddOrigin(nodeB, nil)

	s1 := NewFrameState(nodeA, ctx).Push(a)
	s2 := NewFrameState(nodeB, ctx).Push(b)

	merged := s1.MergeInto(s2)
	assert.Same(t, nodeB, merged.Node())
	assert.True(t, nodeA.HasEdgeTo(nodeB))

	// The surviving slot is s2's variable, now carrying both alternatives.
	slot := merged.Top()
	assert.Same(t, b, slot)
	require.Len(t, slot.Bindings(), 2)
	var data []any
	for _, bind := range slot.Bindings() {
		data = append(data, bind.Data)
	}
	assert.Contains(t, data, a.Bindings()[0].Data)
	assert.Contains(t, data, b.Bindings()[0].Data)

	// The pasted alternative keeps its provenance: the copy carries the
	// origin A's binding had at its node.
	for _, bind := range slot.Bindings() {
		if bind.Data == a.Bindings()[0].Data {
			require.Len(t, bind.Origins(), 1)
			assert.Same(t, nodeA, bind.Origins()[0].Where)
		}
	}
}

func TestMergeIntoShapeMismatchPanics(t *testing.T) {
	ctx := testContext()
	s1 := NewFrameState(ctx.RootNode, ctx).Push(newVar(ctx, 1))
	s2 := NewFrameState(ctx.RootNode, ctx)
	require.Panics(t, func() { s1.MergeInto(s2) })

	s3 := NewFrameState(ctx.RootNode, ctx).PushBlock(Block{Kind: LoopBlock})
	require.Panics(t, func() { s3.MergeInto(NewFrameState(ctx.RootNode, ctx)) })
}

func TestSetException(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	after := s.SetException()
	assert.True(t, after.Exception())
	assert.False(t, s.Exception())
	assert.NotSame(t, s.Node(), after.Node())
	assert.True(t, s.Node().HasEdgeTo(after.Node()))
}

func TestSetWhy(t *testing.T) {
	ctx := testContext()
	s := NewFrameState(ctx.RootNode, ctx)
	after := s.SetWhy(WhyReturn)
	assert.Equal(t, WhyReturn, after.Why())
	assert.Equal(t, WhyNone, s.Why())
}

func TestImmutabilityUnderSiblingPushes(t *testing.T) {
	ctx := testContext()
	base := NewFrameState(ctx.RootNode, ctx).Push(newVar(ctx, 1))
	left := base.Push(newVar(ctx, 2))
	right := base.Push(newVar(ctx, 3))

	// Divergent successors must not clobber each other through shared
	// backing arrays.
	require.Len(t, base.DataStack(), 1)
	assert.NotSame(t, left.Top(), right.Top())
}

func TestWhyAndBlockKindStrings(t *testing.T) {
	assert.Equal(t, "none", WhyNone.String())
	assert.Equal(t, "return", WhyReturn.String())
	assert.Equal(t, "yield", WhyYield.String())
	assert.Equal(t, "loop", LoopBlock.String())
	assert.Equal(t, "with", WithBlock.String())
}
