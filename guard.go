package scopedgc

import "sync/atomic"

// guard grants single-writer access to a scope's state. Unlike a mutex it
// never blocks: a second borrow while one is outstanding fails, which is how
// re-entrant calls from Trace and concurrent calls from other goroutines are
// rejected.
type guard struct {
	held atomic.Bool
}

func (g *guard) tryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

func (g *guard) release() {
	g.held.Store(false)
}
