package scopedgc

// Traceable is implemented by every value that can be allocated in a Scope.
//
// Trace must call Trace on every handle held directly by the value. It does
// no cycle detection of its own; the collector never traces a record twice
// in one pass.
//
// Unroot must call Unroot on every handle held directly by the value. It is
// called when the value moves into the heap, after which its children are
// reachable through the graph rather than as roots. Mutate calls it again
// after every change.
//
// Values hold handles as *Handle[T], never as Handle[T]: a copied handle
// does not share its rooted state with the original.
type Traceable interface {
	Trace()
	Unroot()
}

// NoTrace is an embeddable no-op Traceable for payloads without handles.
type NoTrace struct{}

// Trace does nothing.
func (NoTrace) Trace() {}

// Unroot does nothing.
func (NoTrace) Unroot() {}

// Leaf wraps a plain value so it can be allocated in a Scope.
type Leaf[T any] struct {
	NoTrace
	Value T
}

// NewLeaf returns a Leaf holding v.
func NewLeaf[T any](v T) Leaf[T] {
	return Leaf[T]{Value: v}
}

// TraceAll traces each of ts. Nil handles are skipped.
func TraceAll(ts ...Traceable) {
	for _, t := range ts {
		if t != nil {
			t.Trace()
		}
	}
}

// UnrootAll unroots each of ts. Nil handles are skipped.
func UnrootAll(ts ...Traceable) {
	for _, t := range ts {
		if t != nil {
			t.Unroot()
		}
	}
}

// TraceSlice traces every element of ts.
func TraceSlice[T Traceable](ts []T) {
	for _, t := range ts {
		t.Trace()
	}
}

// UnrootSlice unroots every element of ts.
func UnrootSlice[T Traceable](ts []T) {
	for _, t := range ts {
		t.Unroot()
	}
}
