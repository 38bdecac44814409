package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typetrace-dev/typetrace/abstract"
)

func TestIsCmpConstants(t *testing.T) {
	a := &abstract.Constant{Type: "builtins.int", Payload: 1}
	b := &abstract.Constant{Type: "builtins.int", Payload: 1}
	c := &abstract.Constant{Type: "builtins.int", Payload: 2}
	s := &abstract.Constant{Type: "builtins.str", Payload: "1"}

	assert.Equal(t, CmpTrue, IsCmp(a, b))
	assert.Equal(t, CmpFalse, IsCmp(a, c))
	// Same payload, different represented type.
	assert.Equal(t, CmpFalse, IsCmp(a, s))

	assert.Equal(t, CmpFalse, IsNotCmp(a, b))
	assert.Equal(t, CmpTrue, IsNotCmp(a, c))
	assert.Equal(t, CmpTrue, IsNotCmp(a, s))
}

func TestIsCmpInstances(t *testing.T) {
	clsA := &abstract.Class{FullName: "mod.A"}
	clsB := &abstract.Class{FullName: "mod.B"}

	assert.Equal(t, CmpFalse, IsCmp(&abstract.Instance{Cls: clsA}, &abstract.Instance{Cls: clsB}))
	assert.Equal(t, CmpTrue, IsNotCmp(&abstract.Instance{Cls: clsA}, &abstract.Instance{Cls: clsB}))

	// Same class: could be the same object, could not be. Undecidable.
	assert.Equal(t, CmpUnknown, IsCmp(&abstract.Instance{Cls: clsA}, &abstract.Instance{Cls: clsA}))
	assert.Equal(t, CmpUnknown, IsNotCmp(&abstract.Instance{Cls: clsA}, &abstract.Instance{Cls: clsA}))

	// Tracked containers compare as instances of their class.
	tc := &abstract.TrackedContainer{Cls: clsA}
	assert.Equal(t, CmpUnknown, IsCmp(tc, &abstract.Instance{Cls: clsA}))
	assert.Equal(t, CmpFalse, IsCmp(tc, &abstract.Instance{Cls: clsB}))
}

func TestIsCmpClasses(t *testing.T) {
	// Distinct handles for the same qualified name compare identical:
	// type objects are singletons.
	a1 := &abstract.Class{FullName: "mod.A"}
	a2 := &abstract.Class{FullName: "mod.A"}
	b := &abstract.Class{FullName: "mod.B"}

	assert.Equal(t, CmpTrue, IsCmp(a1, a2))
	assert.Equal(t, CmpFalse, IsCmp(a1, b))
	assert.Equal(t, CmpFalse, IsNotCmp(a1, a2))
	assert.Equal(t, CmpTrue, IsNotCmp(a1, b))
}

func TestIsCmpMixedKindsUndecidable(t *testing.T) {
	cls := &abstract.Class{FullName: "mod.A"}
	cases := [][2]abstract.Value{
		{&abstract.Constant{Type: "builtins.int", Payload: 1}, &abstract.Instance{Cls: cls}},
		{&abstract.Instance{Cls: cls}, cls},
		{cls, &abstract.Unknown{}},
		{&abstract.Unknown{}, &abstract.Unknown{}},
		{&abstract.Function{Name: "f"}, &abstract.Function{Name: "f"}},
	}
	for _, c := range cases {
		assert.Equal(t, CmpUnknown, IsCmp(c[0], c[1]))
		assert.Equal(t, CmpUnknown, IsNotCmp(c[0], c[1]))
	}
}

func TestCmpResultString(t *testing.T) {
	assert.Equal(t, "true", CmpTrue.String())
	assert.Equal(t, "false", CmpFalse.String())
	assert.Equal(t, "unknown", CmpUnknown.String())
}
