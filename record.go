package scopedgc

import (
	"math"
	"reflect"
	"unsafe"
)

// collectable is the type-erased view of a record that the collector's list
// holds. Records of different payload types share one list through it.
type collectable interface {
	id() uint64
	rootCount() int
	mark()
	isMarked() bool
	clearMark()
	scan()
	nextRecord() collectable
	setNext(collectable)
	scanNext() collectable
	setScanNext(collectable)
	free()
	size() uintptr
	typeName() string
}

// record is the allocation header paired inline with its payload.
type record[T Traceable] struct {
	roots  int
	marked bool
	next   collectable
	value  T

	ident uint64
	st    *state
	freed bool
	gray  collectable // link in the state's scan list while marked but not yet traced
}

func newRecord[T Traceable](st *state, ident uint64, value T) *record[T] {
	return &record[T]{
		roots: 1,
		value: value,
		ident: ident,
		st:    st,
	}
}

// mark sets the mark flag and queues the record for tracing.
// A record already marked in this pass is left alone, which terminates cycles.
func (r *record[T]) mark() {
	if r.marked {
		return
	}
	r.marked = true
	r.st.push(r)
}

// visit is called by a handle's Trace. What it does depends on whether the
// owning state is marking or taking a snapshot. A record whose state is idle
// belongs to another scope, closed or not, and is reported as foreign before
// its freed flag is looked at.
func (r *record[T]) visit() {
	switch r.st.phase {
	case phaseMark, phaseSnapshot:
	default:
		panic(ErrForeignTrace)
	}
	if r.freed {
		panic(ErrCollected)
	}
	if r.st.phase == phaseMark {
		r.mark()
		return
	}
	r.st.edges = append(r.st.edges, r.ident)
}

func (r *record[T]) incRoots() {
	if r.roots == math.MaxInt {
		panic(ErrRootOverflow)
	}
	r.roots++
}

func (r *record[T]) decRoots() {
	if r.roots == 0 {
		panic(ErrRootUnderflow)
	}
	r.roots--
}

func (r *record[T]) id() uint64 { return r.ident }
func (r *record[T]) rootCount() int { return r.roots }
func (r *record[T]) isMarked() bool { return r.marked }
func (r *record[T]) clearMark() { r.marked = false }
func (r *record[T]) scan() { r.value.Trace() }
func (r *record[T]) nextRecord() collectable { return r.next }
func (r *record[T]) setNext(c collectable) { r.next = c }
func (r *record[T]) scanNext() collectable { return r.gray }
func (r *record[T]) setScanNext(c collectable) { r.gray = c }
func (r *record[T]) size() uintptr { return unsafe.Sizeof(*r) }
func (r *record[T]) typeName() string { return reflect.TypeFor[T]().String() }

// free drops the payload and detaches the record. Handles still pointing at
// it observe the freed flag.
func (r *record[T]) free() {
	var zero T
	r.value = zero
	r.next = nil
	r.gray = nil
	r.marked = false
	r.freed = true
}
