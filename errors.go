package scopedgc

import "errors"

var (
	// ErrOutOfMemory indicates that an allocation would exceed the scope's byte budget.
	ErrOutOfMemory = errors.New("scopedgc: allocation exceeds scope byte budget")

	// ErrScopeClosed indicates use of a scope, or of a handle into it, after Close.
	ErrScopeClosed = errors.New("scopedgc: use after Close()")

	// ErrReentrant indicates a second concurrent or re-entrant Alloc/Collect on a scope.
	ErrReentrant = errors.New("scopedgc: scope is already borrowed")

	// ErrNilHandle indicates use of a nil handle.
	ErrNilHandle = errors.New("scopedgc: nil handle")

	// ErrReleased indicates use of a handle after Release.
	ErrReleased = errors.New("scopedgc: use of released handle")

	// ErrCollected indicates a handle whose record was freed by a collection.
	ErrCollected = errors.New("scopedgc: handle target was collected")

	// ErrRootUnderflow indicates a root count decremented below zero.
	ErrRootUnderflow = errors.New("scopedgc: root count underflow")

	// ErrRootOverflow indicates a root count incremented past its maximum.
	ErrRootOverflow = errors.New("scopedgc: root count overflow")

	// ErrForeignTrace indicates a handle traced while its own scope was not
	// collecting, which happens with cross-scope references.
	ErrForeignTrace = errors.New("scopedgc: handle traced outside its scope's collection")
)
