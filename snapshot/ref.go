// Package snapshot stores serialized frame states outside the live graph:
// content-hashed so revisits of identical states can be detected, and
// per-instruction so a parked frame (a suspended generator) can be resumed
// from recorded state. It supplies storage only; the walker decides when to
// park and when to resume.
package snapshot

import (
	"fmt"
	"io"

	"github.com/shamaton/msgpack/v2"

	"github.com/typetrace-dev/typetrace/interp"
	"github.com/typetrace-dev/typetrace/typegraph"
)

// Serde is anything that can round-trip itself through a byte stream.
type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

// FrameStateRef is the serializable form of a FrameState: graph pointers
// replaced by the IDs the program assigned them.
type FrameStateRef struct {
	// Stack holds operand variable IDs, bottom to top.
	Stack     []int
	Blocks    []BlockRef
	Node      int
	Exception bool
	Why       int
}

// BlockRef mirrors interp.Block. Handler is a node ID, -1 for none.
type BlockRef struct {
	Kind    int
	Handler int
	Level   int
}

func (r *FrameStateRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, r)
}

func (r *FrameStateRef) Deserialize(rd io.Reader) error {
	return msgpack.UnmarshalRead(rd, r)
}

// Capture builds the serializable reference for a frame state.
func Capture(s *interp.FrameState) *FrameStateRef {
	ref := &FrameStateRef{
		Node:      s.Node().ID(),
		Exception: s.Exception(),
		Why:       int(s.Why()),
	}
	for _, v := range s.DataStack() {
		ref.Stack = append(ref.Stack, v.ID())
	}
	for _, b := range s.BlockStack() {
		handler := -1
		if b.Handler != nil {
			handler = b.Handler.ID()
		}
		ref.Blocks = append(ref.Blocks, BlockRef{
			Kind:    int(b.Kind),
			Handler: handler,
			Level:   b.Level,
		})
	}
	return ref
}

// Restore rebuilds a live FrameState by resolving the reference's IDs
// against ctx's program. IDs the program never allocated are an error.
func (r *FrameStateRef) Restore(ctx *interp.Context) (*interp.FrameState, error) {
	node := ctx.Program.Node(r.Node)
	if node == nil {
		return nil, fmt.Errorf("restoring state: unknown node %d", r.Node)
	}
	stack := make([]*typegraph.Variable, 0, len(r.Stack))
	for _, id := range r.Stack {
		v := ctx.Program.Variable(id)
		if v == nil {
			return nil, fmt.Errorf("restoring state: unknown variable %d", id)
		}
		stack = append(stack, v)
	}
	blocks := make([]interp.Block, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		var handler *typegraph.Node
		if b.Handler >= 0 {
			handler = ctx.Program.Node(b.Handler)
			if handler == nil {
				return nil, fmt.Errorf("restoring state: unknown handler node %d", b.Handler)
			}
		}
		blocks = append(blocks, interp.Block{
			Kind:    interp.BlockKind(b.Kind),
			Handler: handler,
			Level:   b.Level,
		})
	}
	return interp.MakeFrameState(ctx, stack, blocks, node, r.Exception, interp.Why(r.Why)), nil
}

// FrameRef is a parked frame: the per-instruction state map reduced to
// hashes, plus enough identity to find the frame again.
type FrameRef struct {
	ID   string
	Code string
	File string
	Node int
	// States maps instruction offsets to stored state hashes.
	States map[int]Hash
}

func (r *FrameRef) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, r)
}

func (r *FrameRef) Deserialize(rd io.Reader) error {
	return msgpack.UnmarshalRead(rd, r)
}

// CaptureFrame parks a frame: every recorded per-instruction state is stored
// in s, and the returned FrameRef maps instruction offsets to the stored
// hashes.
func CaptureFrame(s Store, f *interp.Frame) (*FrameRef, error) {
	ref := &FrameRef{
		ID:     f.ID,
		Code:   f.Code.Name,
		File:   f.Code.Filename,
		Node:   f.Node.ID(),
		States: make(map[int]Hash, len(f.States)),
	}
	for inst, state := range f.States {
		h, err := s.Put(Capture(state))
		if err != nil {
			return nil, fmt.Errorf("parking state at offset %d: %w", inst.Offset, err)
		}
		ref.States[inst.Offset] = h
	}
	return ref, nil
}

// ResumeState retrieves and rebuilds the parked state recorded at the given
// instruction offset.
func (r *FrameRef) ResumeState(s Store, ctx *interp.Context, offset int) (*interp.FrameState, error) {
	h, ok := r.States[offset]
	if !ok {
		return nil, fmt.Errorf("no parked state at offset %d of %q", offset, r.Code)
	}
	ref, err := Retrieve[FrameStateRef](s, h)
	if err != nil {
		return nil, err
	}
	return ref.Restore(ctx)
}
