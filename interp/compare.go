package interp

import (
	"fmt"

	"github.com/typetrace-dev/typetrace/abstract"
)

// CmpResult is the identity oracle's answer. CmpUnknown means the analysis
// cannot decide, so both branches of the test stay live.
type CmpResult int

const (
	CmpUnknown CmpResult = iota
	CmpFalse
	CmpTrue
)

func (r CmpResult) String() string {
	switch r {
	case CmpUnknown:
		return "unknown"
	case CmpFalse:
		return "false"
	case CmpTrue:
		return "true"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// IsCmp decides "left is right" for two abstract values.
func IsCmp(left, right abstract.Value) CmpResult {
	return isOrIsNotCmp(left, right, false)
}

// IsNotCmp decides "left is not right".
func IsNotCmp(left, right abstract.Value) CmpResult {
	return isOrIsNotCmp(left, right, true)
}

func isOrIsNotCmp(left, right abstract.Value, isNot bool) CmpResult {
	if l, ok := left.(*abstract.Constant); ok {
		r, ok := right.(*abstract.Constant)
		if !ok {
			return CmpUnknown
		}
		if l.Type != r.Type {
			return fromBool(isNot)
		}
		return fromBool(isNot != (l.Payload == r.Payload))
	}
	if lc, ok := instanceClass(left); ok {
		rc, ok := instanceClass(right)
		if !ok {
			return CmpUnknown
		}
		if lc == nil || rc == nil {
			return CmpUnknown
		}
		if lc.FullName != rc.FullName {
			return fromBool(isNot)
		}
		// Same class: they could be the same object, but the types alone
		// can't tell.
		return CmpUnknown
	}
	if l, ok := left.(*abstract.Class); ok {
		r, ok := right.(*abstract.Class)
		if !ok {
			return CmpUnknown
		}
		// Types are singletons; comparing by qualified name makes distinct
		// handles for the same class compare identical.
		return fromBool(isNot != (l.FullName == r.FullName))
	}
	return CmpUnknown
}

// instanceClass extracts the class of an instance-shaped value.
func instanceClass(v abstract.Value) (*abstract.Class, bool) {
	switch i := v.(type) {
	case *abstract.Instance:
		return i.Cls, true
	case *abstract.TrackedContainer:
		return i.Cls, true
	default:
		return nil, false
	}
}

func fromBool(b bool) CmpResult {
	if b {
		return CmpTrue
	}
	return CmpFalse
}
