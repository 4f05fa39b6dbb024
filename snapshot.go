package scopedgc

// ObjectInfo describes one live record in a [Snapshot].
type ObjectInfo struct {
	ID    uint64   // Record identifier, matches Handle.ID
	Type  string   // Payload type name
	Size  uintptr  // Record size in bytes
	Roots int      // Root count
	Ptrs  []uint64 // IDs of records this one references
}

// Snapshot is the object graph of a scope at one point in time.
type Snapshot struct {
	Objects []ObjectInfo // In list order, newest first
}

// Snapshot records every live value, its root count and its outgoing edges.
// Edges are found by running Trace with marking disabled, so taking a
// snapshot does not affect the next collection. Edges Collect would reject
// fail the snapshot with the same error.
func (s *Scope) Snapshot() (snap Snapshot, err error) {
	st, err := s.borrow()
	if err != nil {
		return Snapshot{}, err
	}
	defer s.guard.release()
	defer func() {
		if err != nil {
			snap = Snapshot{}
		}
	}()
	defer recoverAs(&err, ErrForeignTrace, ErrCollected)

	st.phase = phaseSnapshot
	defer func() {
		st.phase = phaseIdle
		st.edges = nil
	}()

	snap = Snapshot{Objects: make([]ObjectInfo, 0, st.count)}
	for c := st.head; c != nil; c = c.nextRecord() {
		st.edges = st.edges[:0]
		c.scan()
		var ptrs []uint64
		if len(st.edges) > 0 {
			ptrs = append(ptrs, st.edges...)
		}
		snap.Objects = append(snap.Objects, ObjectInfo{
			ID:    c.id(),
			Type:  c.typeName(),
			Size:  c.size(),
			Roots: c.rootCount(),
			Ptrs:  ptrs,
		})
	}
	return snap, nil
}

// Object returns the object with the given ID.
func (sn Snapshot) Object(id uint64) (ObjectInfo, bool) {
	for _, o := range sn.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return ObjectInfo{}, false
}

// Roots returns the IDs of objects with a positive root count.
func (sn Snapshot) Roots() []uint64 {
	var ids []uint64
	for _, o := range sn.Objects {
		if o.Roots > 0 {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Reachable returns the set of objects a collection would keep: everything
// reachable from a rooted object.
func (sn Snapshot) Reachable() map[uint64]bool {
	index := make(map[uint64]*ObjectInfo, len(sn.Objects))
	for i := range sn.Objects {
		index[sn.Objects[i].ID] = &sn.Objects[i]
	}

	seen := make(map[uint64]bool)
	queue := sn.Roots()
	for _, id := range queue {
		seen[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		o, ok := index[id]
		if !ok {
			continue
		}
		for _, p := range o.Ptrs {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return seen
}

// Garbage returns the IDs of objects a collection would free.
func (sn Snapshot) Garbage() []uint64 {
	live := sn.Reachable()
	var ids []uint64
	for _, o := range sn.Objects {
		if !live[o.ID] {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// TotalSize returns the sum of all object sizes.
func (sn Snapshot) TotalSize() uintptr {
	var n uintptr
	for _, o := range sn.Objects {
		n += o.Size
	}
	return n
}
