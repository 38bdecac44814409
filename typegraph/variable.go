package typegraph

// Variable is a placeholder for the set of possible abstract values a
// location may hold at an analysis point. Each possible value is one Binding.
type Variable struct {
	id       int
	program  *Program
	bindings []*Binding
	byData   map[any]*Binding
}

func (v *Variable) ID() int {
	return v.id
}

func (v *Variable) Program() *Program {
	return v.program
}

// Bindings returns the variable's bindings in insertion order. Callers must
// not modify the slice.
func (v *Variable) Bindings() []*Binding {
	return v.bindings
}

// AddBinding attaches data as one possible value of this variable. Adding
// the same data twice returns the existing binding. Data must be a
// comparable value; the abstract values bound here are pointers.
func (v *Variable) AddBinding(data any) *Binding {
	if b, ok := v.byData[data]; ok {
		return b
	}
	b := &Binding{
		Data:     data,
		variable: v,
	}
	v.byData[data] = b
	v.bindings = append(v.bindings, b)
	return b
}

// PasteBinding copies b into this variable as an additional alternative. If
// where is non-nil the copy gains an origin at that node whose source is b;
// otherwise b's own origins are copied.
func (v *Variable) PasteBinding(b *Binding, where *Node) {
	copied := v.AddBinding(b.Data)
	if where != nil {
		copied.AddOrigin(where, []*Binding{b})
		return
	}
	for _, o := range b.origins {
		copied.AddOrigin(o.Where, o.Sources)
	}
}

// PasteVariable copies every binding of other into this variable. Existing
// bindings are kept; the result is the accumulated union.
func (v *Variable) PasteVariable(other *Variable, where *Node) {
	for _, b := range other.bindings {
		v.PasteBinding(b, where)
	}
}

// Binding is one concrete abstract value attached to a variable, with
// provenance. Its origins form a disjunction: the binding is valid at a node
// if any one origin's source bindings are all simultaneously valid there.
type Binding struct {
	// Data is the abstract value. Opaque to the graph.
	Data any

	variable *Variable
	origins  []*Origin
}

func (b *Binding) Variable() *Variable {
	return b.variable
}

// Origins returns the binding's provenance records. Callers must not modify
// the slice.
func (b *Binding) Origins() []*Origin {
	return b.origins
}

// AddOrigin records that b is valid at where whenever all of sources hold.
func (b *Binding) AddOrigin(where *Node, sources []*Binding) {
	b.origins = append(b.origins, &Origin{
		Where:   where,
		Sources: append([]*Binding(nil), sources...),
	})
}

// Origin is one provenance record: a conjunction of source bindings required
// for the owning binding to be valid at Where.
type Origin struct {
	Where   *Node
	Sources []*Binding
}
