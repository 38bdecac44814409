// Package code holds the read-only descriptors the decoder produces for each
// compiled code body. The state machine reads them; it never builds or
// mutates them.
package code

// Object describes one code body: a module, function, or class suite.
//
// Closure bookkeeping follows the usual two-field scheme. CellVars are the
// names defined in this body that some inner body captures; FreeVars are the
// names this body captures from an enclosing one. Cell slot ordering is
// CellVars first, then FreeVars.
type Object struct {
	Name      string
	Filename  string
	FirstLine int
	CellVars  []string
	FreeVars  []string

	Instructions []*Instruction
}

// Instruction is one decoded bytecode instruction. Identity (the pointer) is
// what per-instruction state maps key on.
type Instruction struct {
	Offset int
	Line   int
}

// CellVarIndex returns the cell slot for a name in CellVars, or -1.
func (o *Object) CellVarIndex(name string) int {
	for i, n := range o.CellVars {
		if n == name {
			return i
		}
	}
	return -1
}

// CellIndex returns the cell slot for a name in CellVars followed by
// FreeVars, or -1 if the name is in neither.
func (o *Object) CellIndex(name string) int {
	if i := o.CellVarIndex(name); i >= 0 {
		return i
	}
	for i, n := range o.FreeVars {
		if n == name {
			return len(o.CellVars) + i
		}
	}
	return -1
}
