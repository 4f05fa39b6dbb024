package scopedgc

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"
)

type phase uint8

const (
	phaseIdle phase = iota
	phaseMark
	phaseSnapshot
)

// state is the collector behind a Scope. It owns every record as a singly
// linked list threaded through the records themselves.
type state struct {
	name     string
	bytes    uintptr
	maxBytes uintptr
	head     collectable
	count    int
	nextID   uint64
	closed   bool

	phase    phase
	scanList collectable
	edges    []uint64

	allocs      uint64
	frees       uint64
	collections uint64
	last        CollectionStats

	log *slog.Logger
}

func newState(cfg config) *state {
	return &state{
		name:     cfg.name,
		maxBytes: cfg.maxBytes,
		log:      cfg.logger,
	}
}

// recordSize returns the number of bytes a record holding a T occupies.
func recordSize[T Traceable]() uintptr {
	return unsafe.Sizeof(record[T]{})
}

// reserve reports whether size more bytes fit the budget.
func (st *state) reserve(size uintptr) error {
	if st.maxBytes == 0 {
		return nil
	}
	if size > st.maxBytes || st.bytes > st.maxBytes-size {
		return fmt.Errorf("%w: %d tracked + %d requested > %d", ErrOutOfMemory, st.bytes, size, st.maxBytes)
	}
	return nil
}

// allocate links a new record with one root at the head of the list.
func allocate[T Traceable](st *state, value T) (*record[T], error) {
	size := recordSize[T]()
	if err := st.reserve(size); err != nil {
		return nil, err
	}
	st.nextID++
	r := newRecord(st, st.nextID, value)
	r.next = st.head
	st.head = r
	st.bytes += size
	st.count++
	st.allocs++
	return r, nil
}

// recoverAs stops a panic whose value is one of the target errors and
// stores it in *err. Any other panic is re-raised. It must be deferred
// directly.
func recoverAs(err *error, targets ...error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		for _, t := range targets {
			if errors.Is(e, t) {
				*err = e
				return
			}
		}
	}
	panic(r)
}

// unroot demotes the handles held directly by v. A handle whose target was
// collected or whose scope is closed stops it with an error; handles demoted
// before that one stay demoted.
func unroot(v Traceable) (err error) {
	defer recoverAs(&err, ErrCollected, ErrScopeClosed)
	v.Unroot()
	return nil
}

// push queues c on the scan list.
func (st *state) push(c collectable) {
	c.setScanNext(st.scanList)
	st.scanList = c
}

// drain traces queued records until the scan list is empty.
func (st *state) drain() {
	for st.scanList != nil {
		c := st.scanList
		st.scanList = c.scanNext()
		c.setScanNext(nil)
		c.scan()
	}
}

// collect runs one mark-sweep pass over the whole list.
func (st *state) collect() CollectionStats {
	start := time.Now()
	var stats CollectionStats

	completed := false
	defer func() {
		if !completed {
			st.abortMark()
		}
	}()

	// Mark everything reachable from a rooted record. Nothing is freed
	// until the scan list is drained.
	st.phase = phaseMark
	for c := st.head; c != nil; c = c.nextRecord() {
		if c.rootCount() > 0 {
			c.mark()
		}
	}
	st.drain()
	st.phase = phaseIdle

	// Sweep unmarked records, clear the mark on survivors.
	var prev collectable
	for c := st.head; c != nil; {
		next := c.nextRecord()
		if c.isMarked() {
			c.clearMark()
			stats.Marked++
			prev = c
		} else {
			if prev == nil {
				st.head = next
			} else {
				prev.setNext(next)
			}
			size := c.size()
			st.release(c)
			stats.Freed++
			stats.FreedBytes += size
		}
		c = next
	}
	completed = true

	stats.Duration = time.Since(start)
	st.collections++
	st.last = stats
	st.log.Debug("scopedgc: collect",
		"scope", st.name,
		"marked", stats.Marked,
		"freed", stats.Freed,
		"freed_bytes", stats.FreedBytes,
		"bytes", st.bytes,
		"duration", stats.Duration)
	return stats
}

// abortMark undoes a mark phase interrupted by a panicking Trace so the
// next collection starts from clean marks.
func (st *state) abortMark() {
	for c := st.scanList; c != nil; {
		next := c.scanNext()
		c.setScanNext(nil)
		c = next
	}
	st.scanList = nil
	for c := st.head; c != nil; c = c.nextRecord() {
		c.clearMark()
	}
	st.phase = phaseIdle
}

// release frees c, which must already be unlinked, and updates the counters.
func (st *state) release(c collectable) {
	size := c.size()
	if size > st.bytes {
		panic(fmt.Sprintf("scopedgc: byte counter underflow (%d < %d)", st.bytes, size))
	}
	st.bytes -= size
	st.count--
	st.frees++
	c.free()
}

// teardown frees every remaining record without tracing or root checks.
func (st *state) teardown() {
	freed := st.count
	for c := st.head; c != nil; {
		next := c.nextRecord()
		st.release(c)
		c = next
	}
	st.head = nil
	st.closed = true
	st.log.Debug("scopedgc: teardown", "scope", st.name, "freed", freed)
}
