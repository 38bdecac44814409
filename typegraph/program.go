package typegraph

// Program owns every node and variable allocated during one analysis run.
// Nodes and variables carry small integer IDs, assigned in allocation order,
// so snapshots of interpreter state can refer to them without pointers.
//
// A Program is confined to a single analysis pass and is not safe for
// concurrent use.
type Program struct {
	nodes []*Node
	vars  []*Variable
}

func New() *Program {
	return &Program{}
}

// NewNode allocates a node with no predecessors. Line is the source line the
// node is tagged with; condition optionally gates reachability of the node.
func (p *Program) NewNode(line int, condition *Binding) *Node {
	n := &Node{
		id:        len(p.nodes),
		program:   p,
		Line:      line,
		Condition: condition,
	}
	p.nodes = append(p.nodes, n)
	return n
}

// NewVariable allocates an empty variable.
func (p *Program) NewVariable() *Variable {
	v := &Variable{
		id:      len(p.vars),
		program: p,
		byData:  make(map[any]*Binding),
	}
	p.vars = append(p.vars, v)
	return v
}

// Node returns the node with the given ID, or nil if the ID was never
// allocated.
func (p *Program) Node(id int) *Node {
	if id < 0 || id >= len(p.nodes) {
		return nil
	}
	return p.nodes[id]
}

// Variable returns the variable with the given ID, or nil if the ID was
// never allocated.
func (p *Program) Variable(id int) *Variable {
	if id < 0 || id >= len(p.vars) {
		return nil
	}
	return p.vars[id]
}

func (p *Program) NodeCount() int {
	return len(p.nodes)
}

func (p *Program) VariableCount() int {
	return len(p.vars)
}
