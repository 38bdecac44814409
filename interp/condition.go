package interp

import (
	"github.com/rs/zerolog/log"

	"github.com/typetrace-dev/typetrace/abstract"
	"github.com/typetrace-dev/typetrace/metrics"
	"github.com/typetrace-dev/typetrace/typegraph"
)

// Unsatisfiable is the distinguished SplitConditions result meaning no known
// binding can give the value the requested truthiness: the branch is
// statically unreachable. It is never confused with nil, which means the
// branch adds no information.
var Unsatisfiable = &Condition{}

// conditionMarker is the opaque payload a Condition's binding carries. The
// binding's origins, not its data, encode the constraint.
var conditionMarker = &struct{ name string }{"condition"}

// Condition is a branch predicate produced by if-splitting. It wraps a
// single-purpose variable with one binding whose origins are the DNF
// clauses: the condition holds at a node iff some clause's source bindings
// are all simultaneously valid there.
type Condition struct {
	node    *typegraph.Node
	binding *typegraph.Binding
}

// NewCondition builds a condition at node from a non-empty DNF.
func NewCondition(node *typegraph.Node, dnf [][]*typegraph.Binding) *Condition {
	v := node.Program().NewVariable()
	b := v.AddBinding(conditionMarker)
	for _, clause := range dnf {
		b.AddOrigin(node, clause)
	}
	return &Condition{node: node, binding: b}
}

func (c *Condition) Node() *typegraph.Node {
	return c.node
}

func (c *Condition) Binding() *typegraph.Binding {
	return c.binding
}

var restrictCounter = metrics.NewMapCounter("state_restrict")

// RestrictCounter exposes the splitting outcome counter so an analysis run
// can reset it at start and report it at end.
func RestrictCounter() *metrics.MapCounter {
	return restrictCounter
}

// SplitConditions returns the conditions for the value being true and being
// false at node. Each result is a Condition, nil (no information added), or
// the Unsatisfiable sentinel.
func SplitConditions(node *typegraph.Node, v *typegraph.Variable) (*Condition, *Condition) {
	return restrictCondition(node, v.Bindings(), true),
		restrictCondition(node, v.Bindings(), false)
}

// restrictCondition classifies every binding against logicalValue and folds
// the outcomes. A binding valid only under this truthiness contributes
// itself as a clause; an invalid binding contributes nothing and marks the
// outcome restricted; a conditionally valid binding extends the DNF and also
// marks it restricted.
func restrictCondition(node *typegraph.Node, bindings []*typegraph.Binding, logicalValue bool) *Condition {
	var dnf [][]*typegraph.Binding
	restricted := false
	for _, b := range bindings {
		match := abstract.CompatibleWith(b.Data, logicalValue)
		switch match.Kind {
		case abstract.CompatTrue:
			dnf = append(dnf, []*typegraph.Binding{b})
		case abstract.CompatFalse:
			restricted = true
		case abstract.CompatDNF:
			// The DNF could in principle be [[b]] itself, which would not
			// be a real restriction. Treating it as one is harmless.
			dnf = append(dnf, match.DNF...)
			restricted = true
		}
	}
	switch {
	case len(dnf) == 0:
		restrictCounter.Inc("unsatisfiable")
		log.Trace().Bool("truthiness", logicalValue).Int("bindings", len(bindings)).
			Msg("restrictCondition: unsatisfiable")
		return Unsatisfiable
	case restricted:
		restrictCounter.Inc("restricted")
		log.Trace().Bool("truthiness", logicalValue).Int("clauses", len(dnf)).
			Msg("restrictCondition: restricted")
		return NewCondition(node, dnf)
	default:
		restrictCounter.Inc("unrestricted")
		return nil
	}
}
