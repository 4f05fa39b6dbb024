package scopedgc

// Scope is one garbage-collection domain. It owns every value allocated in
// it, and all handles it returns are valid only until Close.
//
// A Scope is not safe for concurrent use. Overlapping calls to Alloc or
// Collect, whether from another goroutine or from inside a Trace method,
// fail with [ErrReentrant] instead of corrupting the heap.
type Scope struct {
	st    *state
	guard guard
}

// New creates a Scope. The caller must Close it when done.
func New(opts ...Option) *Scope {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scope{st: newState(cfg)}
}

// With creates a Scope, passes it to fn, and closes it when fn returns.
// A panic in fn is re-raised after the scope has been torn down.
func With(fn func(s *Scope) error, opts ...Option) (err error) {
	s := New(opts...)
	defer func() {
		r := recover()
		cerr := s.Close()
		if r != nil {
			panic(r)
		}
		if err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// borrow takes exclusive access to the state. The caller must release the
// guard when err is nil.
func (s *Scope) borrow() (*state, error) {
	if !s.guard.tryAcquire() {
		return nil, ErrReentrant
	}
	if s.st.closed {
		s.guard.release()
		return nil, ErrScopeClosed
	}
	return s.st, nil
}

// Alloc moves value into s and returns a rooted handle to it.
//
// Handles held directly by value are demoted first: once value is in the
// heap they are edges, not roots. Alloc fails with [ErrOutOfMemory] when
// the scope's byte budget is exhausted, in which case value is left
// untouched, and with [ErrCollected] or [ErrScopeClosed] when value holds a
// handle that can no longer be traced. Nothing is allocated on failure.
func Alloc[T Traceable](s *Scope, value T) (*Handle[T], error) {
	st, err := s.borrow()
	if err != nil {
		return nil, err
	}
	defer s.guard.release()

	if err := st.reserve(recordSize[T]()); err != nil {
		return nil, err
	}
	if err := unroot(value); err != nil {
		return nil, err
	}
	rec, err := allocate(st, value)
	if err != nil {
		return nil, err
	}
	return &Handle[T]{rec: rec, rooted: true}, nil
}

// MustAlloc is like Alloc but panics on error.
func MustAlloc[T Traceable](s *Scope, value T) *Handle[T] {
	h, err := Alloc(s, value)
	if err != nil {
		panic(err)
	}
	return h
}

// Collect runs one mark-sweep pass: every value not reachable from a rooted
// handle is freed. Collection only ever happens when Collect is called.
//
// A value holding a handle into another scope fails the pass with
// [ErrForeignTrace], and one holding a handle to a freed value with
// [ErrCollected]. A failed pass frees nothing.
func (s *Scope) Collect() (err error) {
	st, err := s.borrow()
	if err != nil {
		return err
	}
	defer s.guard.release()
	defer recoverAs(&err, ErrForeignTrace, ErrCollected)

	st.collect()
	return nil
}

// Close frees every value in the scope regardless of roots. Handles into the
// scope report [ErrScopeClosed] afterwards. Closing a closed scope is a no-op.
func (s *Scope) Close() error {
	if !s.guard.tryAcquire() {
		return ErrReentrant
	}
	defer s.guard.release()

	if s.st.closed {
		return nil
	}
	s.st.teardown()
	return nil
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	return s.st.closed
}
