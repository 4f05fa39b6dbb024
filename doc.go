// Package scopedgc implements a scoped mark-and-sweep garbage collector.
//
// # Overview
//
// A Scope owns a set of values and reclaims the ones that are no longer
// reachable, including cyclic structures that plain reference counting
// cannot free. Every value allocated in a scope is released when the scope
// is closed, so a scope is a bounded region with a collector inside it.
//
// Values are reached through handles. A handle held by the program is a
// root and keeps its target alive. A handle stored inside another value is
// an edge: its target lives as long as something rooted reaches it.
//
// # Basic Usage
//
//	type Node struct {
//	    Name string
//	    Next *scopedgc.Handle[Node]
//	}
//
//	func (n Node) Trace()  { n.Next.Trace() }
//	func (n Node) Unroot() { n.Next.Unroot() }
//
//	err := scopedgc.With(func(s *scopedgc.Scope) error {
//	    a := scopedgc.MustAlloc(s, Node{Name: "a"})
//	    b := scopedgc.MustAlloc(s, Node{Name: "b", Next: a.Duplicate()})
//	    a.Mutate(func(n *Node) { n.Next = b.Duplicate() })
//
//	    a.Release()
//	    b.Release()
//	    return s.Collect() // frees the a <-> b cycle
//	})
//
// # The Traceable Contract
//
// Every payload implements [Traceable]. Trace calls Trace on each handle the
// value holds directly; Unroot calls Unroot on each of them. The collector
// calls Trace at most once per value per collection, so Trace needs no cycle
// detection. Payloads without handles can embed [NoTrace] or be wrapped in
// [Leaf].
//
// # Roots
//
// Each value carries a root count equal to the number of live rooted
// handles to it. Alloc returns a rooted handle and demotes the handles
// inside the new value. Duplicate copies a handle's root status and
// Release drops it. Handles stored into a value after allocation should be
// stored through [Handle.Mutate], which demotes them.
//
// # Collection
//
// Collection is explicit: nothing happens until [Scope.Collect] is called.
// The mark phase traces from every value with a positive root count; the
// sweep phase frees every value left unmarked. The byte counter reported by
// [Scope.BytesTracked] is diagnostic and never triggers a collection.
//
// # Errors
//
// Alloc fails with [ErrOutOfMemory] when a budget set with [WithMaxBytes]
// would be exceeded. Misuse is reported rather than corrupting the heap:
// dereferencing a handle after Close returns [ErrScopeClosed], after
// Release [ErrReleased], and after its target was freed [ErrCollected].
// Storing such a handle in a value fails the Alloc or Mutate call that
// stores it with the same error. A value holding a handle into another
// scope makes Collect and Snapshot return [ErrForeignTrace]. Calling Alloc
// or Collect from inside Trace, or from two goroutines at once, returns
// [ErrReentrant]. Root count underflow and overflow panic.
//
// # Thread Safety
//
// A Scope and its handles are meant for one goroutine. Overlapping Alloc and
// Collect calls are detected, but handle operations are not synchronized.
package scopedgc
