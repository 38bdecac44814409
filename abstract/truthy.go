package abstract

import "github.com/typetrace-dev/typetrace/typegraph"

// CompatKind classifies a value's compatibility with a requested truthiness.
type CompatKind int

const (
	// CompatTrue: the value can have the requested truthiness with no
	// further constraints.
	CompatTrue CompatKind = iota
	// CompatFalse: the value can never have the requested truthiness.
	CompatFalse
	// CompatDNF: the value has the requested truthiness only when some
	// clause of the attached DNF holds.
	CompatDNF
)

func (k CompatKind) String() string {
	switch k {
	case CompatTrue:
		return "true"
	case CompatFalse:
		return "false"
	case CompatDNF:
		return "dnf"
	default:
		return "unknown"
	}
}

// Compat is the result of a truthiness compatibility query. DNF is populated
// only when Kind is CompatDNF; each inner slice is a conjunction of bindings
// and the outer slice is their disjunction.
type Compat struct {
	Kind CompatKind
	DNF  [][]*typegraph.Binding
}

// CompatibleWith reports whether data can evaluate to the given truthiness.
// Data is a binding payload; payloads that are not modeled Values place no
// constraint on either branch.
func CompatibleWith(data any, truthiness bool) Compat {
	switch v := data.(type) {
	case *Constant:
		if constantTruthy(v) == truthiness {
			return Compat{Kind: CompatTrue}
		}
		return Compat{Kind: CompatFalse}
	case *Class:
		return alwaysTruthy(truthiness)
	case *Function:
		return alwaysTruthy(truthiness)
	case *TrackedContainer:
		return containerCompat(v, truthiness)
	case *Instance, *Scope, *Unknown:
		return Compat{Kind: CompatTrue}
	default:
		return Compat{Kind: CompatTrue}
	}
}

func alwaysTruthy(truthiness bool) Compat {
	if truthiness {
		return Compat{Kind: CompatTrue}
	}
	return Compat{Kind: CompatFalse}
}

func constantTruthy(c *Constant) bool {
	switch p := c.Payload.(type) {
	case nil:
		return false
	case bool:
		return p
	case int:
		return p != 0
	case int64:
		return p != 0
	case float64:
		return p != 0
	case string:
		return p != ""
	default:
		return true
	}
}

// containerCompat resolves a tracked container's truthiness through its
// contents: non-empty iff some contents binding holds.
func containerCompat(c *TrackedContainer, truthiness bool) Compat {
	var bindings []*typegraph.Binding
	if c.Contents != nil {
		bindings = c.Contents.Bindings()
	}
	if truthiness {
		if len(bindings) == 0 {
			return Compat{Kind: CompatFalse}
		}
		dnf := make([][]*typegraph.Binding, 0, len(bindings))
		for _, b := range bindings {
			dnf = append(dnf, []*typegraph.Binding{b})
		}
		return Compat{Kind: CompatDNF, DNF: dnf}
	}
	if len(bindings) == 0 {
		return Compat{Kind: CompatTrue}
	}
	return Compat{Kind: CompatFalse}
}
