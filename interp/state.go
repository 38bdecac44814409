// Package interp holds the execution-state core of the analysis: immutable
// per-instruction frame states, mutable activation records, and the branch
// condition machinery. The instruction walker that drives it lives elsewhere.
package interp

import (
	"errors"
	"fmt"

	"github.com/typetrace-dev/typetrace/typegraph"
)

var (
	// ErrStackUnderflow: an operation asked for more operands than the
	// stack holds. Always a defect in instruction stack-effect accounting.
	ErrStackUnderflow = errors.New("operand stack underflow")
	// ErrUnresolvedName: a name lookup exhausted every scope and the cell
	// table. Indicates an inconsistent symbol table.
	ErrUnresolvedName = errors.New("name not resolvable in any scope")
	// ErrNoBuiltins: frame construction found no builtin scope on the
	// caller and none reachable through the globals.
	ErrNoBuiltins = errors.New("no builtin scope reachable")
)

// Why records the reason control is leaving a code region. The state machine
// stores and propagates it; unwinding behavior is the walker's business.
type Why int

const (
	WhyNone Why = iota
	WhyReturn
	WhyBreak
	WhyContinue
	WhyException
	WhyYield
)

func (w Why) String() string {
	switch w {
	case WhyNone:
		return "none"
	case WhyReturn:
		return "return"
	case WhyBreak:
		return "break"
	case WhyContinue:
		return "continue"
	case WhyException:
		return "exception"
	case WhyYield:
		return "yield"
	default:
		return fmt.Sprintf("Unknown(%d)", w)
	}
}

// BlockKind distinguishes the structured-control regions tracked on the
// block stack.
type BlockKind int

const (
	LoopBlock BlockKind = iota
	ExceptBlock
	FinallyBlock
	WithBlock
)

func (k BlockKind) String() string {
	switch k {
	case LoopBlock:
		return "loop"
	case ExceptBlock:
		return "except"
	case FinallyBlock:
		return "finally"
	case WithBlock:
		return "with"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Block is one structured-control marker: the region kind, the node where
// control resumes when the region unwinds, and the operand stack depth on
// entry.
type Block struct {
	Kind    BlockKind
	Handler *typegraph.Node
	Level   int
}

// FrameState is an immutable snapshot of one path's interpreter state,
// attached to the instruction that produced it. Every transform returns a
// new state; a FrameState never changes after construction. Unaffected
// sub-structure is shared between a state and its successors.
type FrameState struct {
	ctx        *Context
	dataStack  []*typegraph.Variable
	blockStack []Block
	node       *typegraph.Node
	exception  bool
	why        Why
}

// NewFrameState returns the empty state at node.
func NewFrameState(node *typegraph.Node, ctx *Context) *FrameState {
	return &FrameState{ctx: ctx, node: node}
}

// MakeFrameState builds a state from explicit parts. Used when restoring a
// parked state from a snapshot; the slices are copied.
func MakeFrameState(ctx *Context, data []*typegraph.Variable, blocks []Block, node *typegraph.Node, exception bool, why Why) *FrameState {
	return &FrameState{
		ctx:        ctx,
		dataStack:  append([]*typegraph.Variable(nil), data...),
		blockStack: append([]Block(nil), blocks...),
		node:       node,
		exception:  exception,
		why:        why,
	}
}

func (s *FrameState) Node() *typegraph.Node { return s.node }
func (s *FrameState) Exception() bool       { return s.exception }
func (s *FrameState) Why() Why              { return s.why }

// DataStack returns the operand stack, bottom to top. Callers must not
// modify the slice.
func (s *FrameState) DataStack() []*typegraph.Variable { return s.dataStack }

// BlockStack returns the block stack, outermost first. Callers must not
// modify the slice.
func (s *FrameState) BlockStack() []Block { return s.blockStack }

func (s *FrameState) derive() *FrameState {
	return &FrameState{
		ctx:        s.ctx,
		dataStack:  s.dataStack,
		blockStack: s.blockStack,
		node:       s.node,
		exception:  s.exception,
		why:        s.why,
	}
}

func (s *FrameState) setStack(stack []*typegraph.Variable) *FrameState {
	n := s.derive()
	n.dataStack = stack
	return n
}

// SetWhy returns a state with the exit reason replaced.
func (s *FrameState) SetWhy(why Why) *FrameState {
	n := s.derive()
	n.why = why
	return n
}

// Push appends values to the operand stack.
func (s *FrameState) Push(values ...*typegraph.Variable) *FrameState {
	stack := make([]*typegraph.Variable, 0, len(s.dataStack)+len(values))
	stack = append(stack, s.dataStack...)
	stack = append(stack, values...)
	return s.setStack(stack)
}

// Pop removes and returns the top of the operand stack.
func (s *FrameState) Pop() (*FrameState, *typegraph.Variable, error) {
	if len(s.dataStack) == 0 {
		return nil, nil, fmt.Errorf("pop from empty stack: %w", ErrStackUnderflow)
	}
	top := s.dataStack[len(s.dataStack)-1]
	return s.setStack(s.dataStack[:len(s.dataStack)-1]), top, nil
}

// PopAndDiscard removes the top of the operand stack, dropping the value.
// On an empty stack it is a no-op.
func (s *FrameState) PopAndDiscard() *FrameState {
	if len(s.dataStack) == 0 {
		return s
	}
	return s.setStack(s.dataStack[:len(s.dataStack)-1])
}

// Popn removes the top n values and returns them ordered oldest to newest.
// Popn(0) is a no-op, never an error.
func (s *FrameState) Popn(n int) (*FrameState, []*typegraph.Variable, error) {
	if n == 0 {
		return s, nil, nil
	}
	if len(s.dataStack) < n {
		return nil, nil, fmt.Errorf("pop %d values from stack of size %d: %w",
			n, len(s.dataStack), ErrStackUnderflow)
	}
	values := s.dataStack[len(s.dataStack)-n:]
	return s.setStack(s.dataStack[:len(s.dataStack)-n]), values, nil
}

// Peek reads the value n entries down from the top (Peek(1) is the top)
// without changing the stack. n must be within the stack depth.
func (s *FrameState) Peek(n int) *typegraph.Variable {
	return s.dataStack[len(s.dataStack)-n]
}

// Top reads the top of the operand stack.
func (s *FrameState) Top() *typegraph.Variable {
	return s.dataStack[len(s.dataStack)-1]
}

// Topn reads the top n values, ordered oldest to newest. For n <= 0 the
// result is empty.
func (s *FrameState) Topn(n int) []*typegraph.Variable {
	if n <= 0 {
		return nil
	}
	return s.dataStack[len(s.dataStack)-n:]
}

// SetTop replaces the top of the operand stack.
func (s *FrameState) SetTop(value *typegraph.Variable) *FrameState {
	stack := append([]*typegraph.Variable(nil), s.dataStack...)
	stack[len(stack)-1] = value
	return s.setStack(stack)
}

// SetSecond replaces the second value from the top.
func (s *FrameState) SetSecond(value *typegraph.Variable) *FrameState {
	stack := append([]*typegraph.Variable(nil), s.dataStack...)
	stack[len(stack)-2] = value
	return s.setStack(stack)
}

// Rotn rotates the top n values by one: the top moves under the other n-1.
func (s *FrameState) Rotn(n int) (*FrameState, error) {
	if len(s.dataStack) < n {
		return nil, fmt.Errorf("rotate %d values on stack of size %d: %w",
			n, len(s.dataStack), ErrStackUnderflow)
	}
	stack := make([]*typegraph.Variable, 0, len(s.dataStack))
	stack = append(stack, s.dataStack[:len(s.dataStack)-n]...)
	stack = append(stack, s.dataStack[len(s.dataStack)-1])
	stack = append(stack, s.dataStack[len(s.dataStack)-n:len(s.dataStack)-1]...)
	return s.setStack(stack), nil
}

// PushBlock pushes a structured-control marker.
func (s *FrameState) PushBlock(b Block) *FrameState {
	blocks := make([]Block, 0, len(s.blockStack)+1)
	blocks = append(blocks, s.blockStack...)
	blocks = append(blocks, b)
	n := s.derive()
	n.blockStack = blocks
	return n
}

// PopBlock removes and returns the innermost structured-control marker.
func (s *FrameState) PopBlock() (*FrameState, Block, error) {
	if len(s.blockStack) == 0 {
		return nil, Block{}, fmt.Errorf("pop from empty block stack: %w", ErrStackUnderflow)
	}
	b := s.blockStack[len(s.blockStack)-1]
	n := s.derive()
	n.blockStack = s.blockStack[:len(s.blockStack)-1]
	return n, b, nil
}

// ChangeCFGNode moves the state to node. Returns the state itself if it is
// already there.
func (s *FrameState) ChangeCFGNode(node *typegraph.Node) *FrameState {
	if s.node == node {
		return s
	}
	n := s.derive()
	n.node = node
	return n
}

// ConnectToCFGNode records an edge from the current node to node, then
// moves there.
func (s *FrameState) ConnectToCFGNode(node *typegraph.Node) *FrameState {
	s.node.ConnectTo(node)
	return s.ChangeCFGNode(node)
}

// ForwardCFGNode creates a new node reachable from the current one, tagged
// with the current source line and optionally gated by condition, and moves
// there.
func (s *FrameState) ForwardCFGNode(condition *typegraph.Binding) *FrameState {
	next := s.node.ConnectNew(s.ctx.currentLine(), condition)
	return s.ChangeCFGNode(next)
}

// MergeInto unifies this state with another arrived at the same program
// point. Differing stack slots have this state's value pasted into the
// other's variable as an additional alternative; nothing is discarded. The
// operand and block stacks must have equal shapes. The instruction block
// structurer guarantees that, so a mismatch is a defect and MergeInto panics
// rather than guess a repair.
func (s *FrameState) MergeInto(other *FrameState) *FrameState {
	if other == nil {
		return s
	}
	if len(s.dataStack) != len(other.dataStack) {
		panic(fmt.Sprintf("merging states with operand stacks of size %d and %d",
			len(s.dataStack), len(other.dataStack)))
	}
	if len(s.blockStack) != len(other.blockStack) {
		panic(fmt.Sprintf("merging states with block stacks of size %d and %d",
			len(s.blockStack), len(other.blockStack)))
	}
	for i, v := range s.dataStack {
		if o := other.dataStack[i]; v != o {
			o.PasteVariable(v, nil)
		}
	}
	if s.node != other.node {
		s.node.ConnectTo(other.node)
		n := s.derive()
		n.dataStack = other.dataStack
		n.node = other.node
		return n
	}
	return s
}

// SetException marks an exception as pending and advances to a fresh node at
// the current line.
func (s *FrameState) SetException() *FrameState {
	n := s.derive()
	n.node = s.node.ConnectNew(s.ctx.currentLine(), nil)
	n.exception = true
	return n
}
