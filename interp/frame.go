package interp

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/typetrace-dev/typetrace/abstract"
	"github.com/typetrace-dev/typetrace/code"
	"github.com/typetrace-dev/typetrace/typegraph"
)

// BuiltinsName is the well-known global through which a module reaches the
// builtin scope when no caller frame supplies one.
const BuiltinsName = "__builtins__"

// ClassClosureName is the reserved cell a class-builder body allocates for
// the implicit-superclass accessor. Class construction pastes the finished
// class object into it.
const ClassClosureName = "__class__"

// Activation is what the state machine needs from the frame currently being
// simulated, whether a full Frame or a SimpleFrame placeholder.
type Activation interface {
	// Instruction returns the instruction being simulated, nil between
	// instructions.
	Instruction() *code.Instruction
	// BuiltinScope returns the activation's builtin scope, nil if it has
	// none.
	BuiltinScope() *abstract.Scope
}

// Context carries the per-analysis collaborators the state machine reads:
// the graph program, the root node, and the activation the walker is
// currently simulating. The walker owns and updates Frame.
type Context struct {
	Program  *typegraph.Program
	RootNode *typegraph.Node
	Frame    Activation
}

func NewContext(program *typegraph.Program, root *typegraph.Node) *Context {
	return &Context{Program: program, RootNode: root}
}

func (c *Context) currentLine() int {
	if c.Frame == nil {
		return 0
	}
	inst := c.Frame.Instruction()
	if inst == nil {
		return 0
	}
	return inst.Line
}

// Frame is the activation record for one simulated call. It owns the scope
// chain, the closure cells, and the per-instruction state map that lets
// revisits (loops, generator reactivation) resume from recorded state
// instead of re-deriving it. A Frame is owned by exactly one simulation pass
// at a time.
type Frame struct {
	// ID correlates log events for one activation.
	ID string

	Node               *typegraph.Node
	Code               *code.Object
	CurrentInstruction *code.Instruction

	// States maps each instruction to the last state observed at it.
	States map[*code.Instruction]*FrameState

	Globals  *abstract.Scope
	Locals   *abstract.Scope
	Builtins *abstract.Scope

	// Back is the caller's activation. Non-owning; the walker manages its
	// lifetime.
	Back Activation

	FirstLine int
	// FirstArg is the first positional argument, kept around so a
	// zero-argument implicit-superclass access can recover the receiver.
	FirstArg *typegraph.Variable

	// AllowedReturns and CheckReturn hold return-annotation bookkeeping
	// filled in by the walker.
	AllowedReturns abstract.Value
	CheckReturn    bool

	ReturnVariable *typegraph.Variable
	YieldVariable  *typegraph.Variable

	// CurrentBlock and Targets track the instruction block being simulated
	// and the nodes added while inside it, so the walker can discard
	// targets of blocks that exit early.
	CurrentBlock *code.Instruction
	Targets      map[*code.Instruction][]*typegraph.Node

	// Overloads collects decorated alternative signatures per name until
	// the implementation picks them up.
	Overloads map[string][]*typegraph.Variable

	// Cells holds closure slots: Code.CellVars first, then Code.FreeVars.
	Cells []*typegraph.Variable

	// ClassClosureVar is the reserved-name cell of a class-builder body,
	// nil for ordinary frames.
	ClassClosureVar *typegraph.Variable

	// Func is the binding to the function object this frame executes, if
	// known.
	Func *typegraph.Binding

	// Substs are the type-parameter substitutions in scope for this frame.
	Substs []map[string]*typegraph.Variable

	SkipInTracebacks bool

	ctx *Context
}

// NewFrame builds the activation record for a call.
//
// Call arguments whose names are captured cells are pasted into the cell
// slot; the rest become local scope attributes at node. Closure supplies the
// variables for Code.FreeVars, in descriptor order.
func NewFrame(
	ctx *Context,
	node *typegraph.Node,
	co *code.Object,
	globals, locals *abstract.Scope,
	back Activation,
	callArgs map[string]*typegraph.Variable,
	closure []*typegraph.Variable,
	fn *typegraph.Binding,
	firstArg *typegraph.Variable,
	substs []map[string]*typegraph.Variable,
) (*Frame, error) {
	f := &Frame{
		ID:        uuid.NewString(),
		Node:      node,
		Code:      co,
		States:    make(map[*code.Instruction]*FrameState),
		Globals:   globals,
		Locals:    locals,
		Back:      back,
		FirstLine: co.FirstLine,
		FirstArg:  firstArg,
		Targets:   make(map[*code.Instruction][]*typegraph.Node),
		Overloads: make(map[string][]*typegraph.Variable),
		Func:      fn,
		Substs:    substs,
		ctx:       ctx,
	}

	if back != nil && back.BuiltinScope() != nil {
		f.Builtins = back.BuiltinScope()
	} else {
		builtins, err := builtinsFromGlobals(globals)
		if err != nil {
			return nil, err
		}
		f.Builtins = builtins
	}

	f.ReturnVariable = ctx.Program.NewVariable()
	f.YieldVariable = ctx.Program.NewVariable()

	if len(co.FreeVars) != len(closure) {
		return nil, fmt.Errorf("code %q expects %d free variables, closure has %d",
			co.Name, len(co.FreeVars), len(closure))
	}
	f.Cells = make([]*typegraph.Variable, 0, len(co.CellVars)+len(closure))
	for range co.CellVars {
		f.Cells = append(f.Cells, ctx.Program.NewVariable())
	}
	f.Cells = append(f.Cells, closure...)

	names := make([]string, 0, len(callArgs))
	for name := range callArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := callArgs[name]
		if i := co.CellVarIndex(name); i >= 0 {
			f.Cells[i].PasteVariable(value, node)
		} else {
			locals.Set(node, name, value)
		}
	}

	if fn != nil {
		if fv, ok := fn.Data.(*abstract.Function); ok && fv.IsClassBuilder {
			if i := co.CellVarIndex(ClassClosureName); i >= 0 {
				f.ClassClosureVar = f.Cells[i]
			}
		}
	}

	log.Trace().
		Str("frame", f.ID).
		Str("code", co.Name).
		Str("file", co.Filename).
		Int("line", f.FirstLine).
		Int("cells", len(f.Cells)).
		Msg("NewFrame: built activation")
	return f, nil
}

// builtinsFromGlobals resolves the builtin scope bound to the well-known
// global name. Exactly one binding is expected; its absence is a fatal
// construction error.
func builtinsFromGlobals(globals *abstract.Scope) (*abstract.Scope, error) {
	if globals == nil || !globals.Has(BuiltinsName) {
		return nil, ErrNoBuiltins
	}
	bindings := globals.Get(BuiltinsName).Bindings()
	if len(bindings) != 1 {
		return nil, fmt.Errorf("%q has %d bindings, want 1: %w",
			BuiltinsName, len(bindings), ErrNoBuiltins)
	}
	scope, ok := bindings[0].Data.(*abstract.Scope)
	if !ok {
		return nil, fmt.Errorf("%q is bound to %T, not a scope: %w",
			BuiltinsName, bindings[0].Data, ErrNoBuiltins)
	}
	return scope, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("<frame %s: %q @ %d>", f.ID[:8], f.Code.Filename, f.FirstLine)
}

func (f *Frame) Instruction() *code.Instruction { return f.CurrentInstruction }
func (f *Frame) BuiltinScope() *abstract.Scope  { return f.Builtins }

// LookupName resolves a name through locals, globals, and builtins, then
// through the cell table. Failure everywhere means the symbol table is
// inconsistent with the code being simulated.
func (f *Frame) LookupName(name string) (*typegraph.Variable, error) {
	for _, scope := range []*abstract.Scope{f.Locals, f.Globals, f.Builtins} {
		if scope != nil && scope.Has(name) {
			return scope.Get(name), nil
		}
	}
	if i := f.Code.CellIndex(name); i >= 0 {
		return f.Cells[i], nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnresolvedName)
}

// TypeParams returns the union of type-parameter names across all
// substitution maps in scope.
func (f *Frame) TypeParams() map[string]struct{} {
	params := make(map[string]struct{})
	for _, subst := range f.Substs {
		for name := range subst {
			params[name] = struct{}{}
		}
	}
	return params
}

// AddOverload records a decorated alternative signature for name.
func (f *Frame) AddOverload(name string, sig *typegraph.Variable) {
	f.Overloads[name] = append(f.Overloads[name], sig)
}

// StoreState memoizes the state observed at inst.
func (f *Frame) StoreState(inst *code.Instruction, state *FrameState) {
	f.States[inst] = state
}

// StateAt returns the last state observed at inst, nil if the instruction
// has not been visited.
func (f *Frame) StateAt(inst *code.Instruction) *FrameState {
	return f.States[inst]
}

// SimpleFrame is a placeholder activation for contexts that only need
// something stack-shaped: synthesizing an isolated call to analyze a
// function body, or attributing a diagnostic. It never appears in
// user-facing traces.
type SimpleFrame struct {
	ID                 string
	CurrentInstruction *code.Instruction
	Node               *typegraph.Node
	Globals            *abstract.Scope
	Substs             []map[string]*typegraph.Variable
	SkipInTracebacks   bool
}

func NewSimpleFrame(inst *code.Instruction, node *typegraph.Node, globals *abstract.Scope) *SimpleFrame {
	return &SimpleFrame{
		ID:                 uuid.NewString(),
		CurrentInstruction: inst,
		Node:               node,
		Globals:            globals,
	}
}

func (f *SimpleFrame) Instruction() *code.Instruction { return f.CurrentInstruction }
func (f *SimpleFrame) BuiltinScope() *abstract.Scope  { return nil }
