package abstract

import (
	"sort"

	"github.com/typetrace-dev/typetrace/typegraph"
)

// Scope is an attribute namespace: a module's globals, a function's locals,
// or the builtin module. Members map names to graph variables; every write
// is recorded at a specific graph node through the variables' origins.
//
// A Scope is itself a Value so that one scope can be bound inside another,
// which is how the builtin scope is reached from a module's globals.
type Scope struct {
	Name    string
	members map[string]*typegraph.Variable
}

func (*Scope) isValue() {}

func NewScope(name string) *Scope {
	return &Scope{
		Name:    name,
		members: make(map[string]*typegraph.Variable),
	}
}

// Has reports whether name is a member of the scope.
func (s *Scope) Has(name string) bool {
	_, ok := s.members[name]
	return ok
}

// Get returns the variable bound to name, or nil if absent.
func (s *Scope) Get(name string) *typegraph.Variable {
	return s.members[name]
}

// Set records value as an additional alternative for name, with the paste
// attributed to node. The member variable accumulates; earlier alternatives
// are never discarded.
func (s *Scope) Set(node *typegraph.Node, name string, value *typegraph.Variable) {
	m, ok := s.members[name]
	if !ok {
		m = value.Program().NewVariable()
		s.members[name] = m
	}
	m.PasteVariable(value, node)
}

// Names returns the member names in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.members))
	for name := range s.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scope) Len() int {
	return len(s.members)
}
