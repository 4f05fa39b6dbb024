package scopedgc

// Handle is a reference to a value in a Scope.
//
// A handle held outside the heap is a root: it keeps its target alive no
// matter how the graph is connected. A handle stored inside another value
// is an edge and is not a root; Alloc and Mutate demote such handles.
// Duplicate and Release keep the target's root count equal to the number of
// live rooted handles.
//
// Handles are used through pointers only. A Handle copied by value carries
// its own rooted flag, so demoting the copy would leave the original
// claiming a root it no longer holds; go vet reports such copies.
type Handle[T Traceable] struct {
	_        noCopy
	rec      *record[T]
	rooted   bool
	released bool
}

// noCopy makes go vet's copylocks check flag Handle values that are copied.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func (h *Handle[T]) check() error {
	switch {
	case h == nil || h.rec == nil:
		return ErrNilHandle
	case h.released:
		return ErrReleased
	case h.rec.st.closed:
		return ErrScopeClosed
	case h.rec.freed:
		return ErrCollected
	}
	return nil
}

// Valid reports whether the handle can be dereferenced.
func (h *Handle[T]) Valid() bool {
	return h.check() == nil
}

// Deref returns a pointer to the value. The pointer must not be retained
// past Close or past the collection that frees the value.
func (h *Handle[T]) Deref() (*T, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return &h.rec.value, nil
}

// Get is like Deref but panics on error.
func (h *Handle[T]) Get() *T {
	v, err := h.Deref()
	if err != nil {
		panic(err)
	}
	return v
}

// Mutate runs fn on the value and then unroots the handles it holds, so
// handles stored by fn become edges. If fn stored a handle whose target was
// collected or whose scope is closed, the value is restored to what it was
// before fn ran and the handle's error is returned.
func (h *Handle[T]) Mutate(fn func(v *T)) error {
	v, err := h.Deref()
	if err != nil {
		return err
	}
	old := *v
	fn(v)
	if err := unroot(*v); err != nil {
		*v = old
		return err
	}
	return nil
}

// Duplicate returns a second handle to the same value. The copy is a root
// exactly when h is. It panics if h is not valid.
func (h *Handle[T]) Duplicate() *Handle[T] {
	if err := h.check(); err != nil {
		panic(err)
	}
	d := &Handle[T]{rec: h.rec}
	if h.rooted {
		h.rec.incRoots()
		d.rooted = true
	}
	return d
}

// Release ends the handle's life and drops its root, if any. Releasing
// twice, or after the scope is closed, does nothing more.
func (h *Handle[T]) Release() {
	if h == nil || h.rec == nil || h.released {
		return
	}
	h.demote()
	h.released = true
}

// Unroot demotes the handle to a non-root. It is a no-op on a non-root and
// on nil or released handles. It panics with [ErrCollected] or
// [ErrScopeClosed] if the target can no longer be traced, since such a
// handle must not be stored as an edge.
func (h *Handle[T]) Unroot() {
	if h == nil || h.rec == nil || h.released {
		return
	}
	if err := h.check(); err != nil {
		panic(err)
	}
	h.demote()
}

func (h *Handle[T]) demote() {
	if !h.rooted {
		return
	}
	h.rooted = false
	if !h.rec.freed {
		h.rec.decRoots()
	}
}

// Trace marks the handle's target. Nil and released handles are not edges.
func (h *Handle[T]) Trace() {
	if h == nil || h.rec == nil || h.released {
		return
	}
	h.rec.visit()
}

// Rooted reports whether this handle currently counts as a root.
func (h *Handle[T]) Rooted() bool {
	return h != nil && h.rooted
}

// RootCount returns the number of rooted handles to the target.
func (h *Handle[T]) RootCount() int {
	if h == nil || h.rec == nil {
		return 0
	}
	return h.rec.roots
}

// ID identifies the target within its scope. IDs match [ObjectInfo.ID].
func (h *Handle[T]) ID() uint64 {
	if h == nil || h.rec == nil {
		return 0
	}
	return h.rec.ident
}

// Same reports whether h and o refer to the same value.
func (h *Handle[T]) Same(o *Handle[T]) bool {
	return h != nil && o != nil && h.rec != nil && h.rec == o.rec
}
