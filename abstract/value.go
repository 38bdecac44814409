package abstract

import "github.com/typetrace-dev/typetrace/typegraph"

// Value is one abstract value the analysis can reason about. The concrete
// kinds form a closed set; consumers dispatch with an exhaustive type switch.
type Value interface {
	isValue()
}

// Constant is a modeled literal: a value whose payload is fully known, like
// an int, a string, a bool, or None (payload nil). Type is the qualified
// name of the represented type, e.g. "builtins.int". Payloads must be
// comparable with ==.
type Constant struct {
	Type    string
	Payload any
}

func (*Constant) isValue() {}

// Class is a modeled class object. Type objects are singletons: two Class
// values with the same FullName stand for the same runtime object.
type Class struct {
	FullName string
}

func (*Class) isValue() {}

// Instance is a modeled instance of a class with no further structure known.
type Instance struct {
	Cls *Class
}

func (*Instance) isValue() {}

// TrackedContainer is an instance whose emptiness is known through the
// bindings of a contents variable: the container is non-empty exactly when
// one of the contents' bindings holds.
type TrackedContainer struct {
	Cls      *Class
	Contents *typegraph.Variable
}

func (*TrackedContainer) isValue() {}

// Function is a modeled function object. IsClassBuilder marks the synthetic
// body that executes a class statement's suite.
type Function struct {
	Name           string
	IsClassBuilder bool
}

func (*Function) isValue() {}

// Unknown is a value the analysis knows nothing about.
type Unknown struct{}

func (*Unknown) isValue() {}
