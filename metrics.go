package scopedgc

import "time"

// CollectionStats describes one call to Collect.
type CollectionStats struct {
	Marked     int           // Records that survived
	Freed      int           // Records freed
	FreedBytes uintptr       // Bytes freed
	Duration   time.Duration // Wall time of the mark and sweep phases
}

// ScopeMetrics contains statistical information about a scope.
type ScopeMetrics struct {
	Name         string
	BytesTracked uintptr         // Bytes held by live records
	MaxBytes     uintptr         // Byte budget, 0 if unlimited
	Records      int             // Live records
	Rooted       int             // Live records with at least one root
	TotalAllocs  uint64          // Records ever allocated
	TotalFrees   uint64          // Records freed by collection or teardown
	Collections  uint64          // Calls to Collect that completed
	Utilization  float64         // BytesTracked / MaxBytes, 0 if unlimited
	Last         CollectionStats // Most recent collection
}

// BytesTracked returns the number of bytes held by live records.
// It is diagnostic only and never triggers a collection.
func (s *Scope) BytesTracked() uintptr {
	return s.st.bytes
}

// Len returns the number of live records.
func (s *Scope) Len() int {
	return s.st.count
}

// Rooted returns the number of live records with a positive root count.
func (s *Scope) Rooted() int {
	n := 0
	for c := s.st.head; c != nil; c = c.nextRecord() {
		if c.rootCount() > 0 {
			n++
		}
	}
	return n
}

// Utilization returns the ratio of tracked bytes to the byte budget
// (0.0 to 1.0). Returns 0.0 if the scope has no budget.
func (s *Scope) Utilization() float64 {
	if s.st.maxBytes == 0 {
		return 0
	}
	return float64(s.st.bytes) / float64(s.st.maxBytes)
}

// LastCollection returns the statistics of the most recent Collect.
func (s *Scope) LastCollection() CollectionStats {
	return s.st.last
}

// Metrics returns a snapshot of scope statistics.
func (s *Scope) Metrics() ScopeMetrics {
	return ScopeMetrics{
		Name:         s.st.name,
		BytesTracked: s.BytesTracked(),
		MaxBytes:     s.st.maxBytes,
		Records:      s.Len(),
		Rooted:       s.Rooted(),
		TotalAllocs:  s.st.allocs,
		TotalFrees:   s.st.frees,
		Collections:  s.st.collections,
		Utilization:  s.Utilization(),
		Last:         s.st.last,
	}
}
