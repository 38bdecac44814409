package typegraph

// Node is one point in the explored reachability graph. Edges between nodes
// denote control-flow reachability. A node's line and gating condition are
// fixed at allocation; edges accumulate as paths are explored.
type Node struct {
	id      int
	program *Program

	// Line is the source line this node was created at, 0 if unknown.
	Line int
	// Condition, when non-nil, is a binding that must hold for this node to
	// be reachable.
	Condition *Binding

	outgoing []*Node
	incoming []*Node
}

func (n *Node) ID() int {
	return n.id
}

func (n *Node) Program() *Program {
	return n.program
}

// ConnectTo records a control-flow edge from n to other. Duplicate edges and
// self-edges are dropped.
func (n *Node) ConnectTo(other *Node) {
	if other == n {
		return
	}
	for _, o := range n.outgoing {
		if o == other {
			return
		}
	}
	n.outgoing = append(n.outgoing, other)
	other.incoming = append(other.incoming, n)
}

// ConnectNew allocates a new node tagged with line, optionally gated by
// condition, and connects n to it.
func (n *Node) ConnectNew(line int, condition *Binding) *Node {
	next := n.program.NewNode(line, condition)
	n.ConnectTo(next)
	return next
}

// Outgoing returns the successor nodes. Callers must not modify the slice.
func (n *Node) Outgoing() []*Node {
	return n.outgoing
}

// Incoming returns the predecessor nodes. Callers must not modify the slice.
func (n *Node) Incoming() []*Node {
	return n.incoming
}

// HasEdgeTo reports whether an edge n -> other has been recorded.
func (n *Node) HasEdgeTo(other *Node) bool {
	for _, o := range n.outgoing {
		if o == other {
			return true
		}
	}
	return false
}
