package scopedgc

// node is the general-purpose payload used across tests.
type node struct {
	name  string
	edges []*Handle[node]
}

func (n node) Trace()  { TraceSlice(n.edges) }
func (n node) Unroot() { UnrootSlice(n.edges) }

// holder references payloads of several types.
type holder struct {
	num  *Handle[Leaf[int]]
	text *Handle[Leaf[string]]
	next *Handle[holder]
}

func (h holder) Trace()  { TraceAll(h.num, h.text, h.next) }
func (h holder) Unroot() { UnrootAll(h.num, h.text, h.next) }

// counted records how often it was traced.
type counted struct {
	traces *int
	child  *Handle[node]
}

func (c counted) Trace() {
	*c.traces++
	c.child.Trace()
}

func (c counted) Unroot() { c.child.Unroot() }

// faulty panics from Trace while *fail is true.
type faulty struct {
	fail *bool
}

func (f faulty) Trace() {
	if *f.fail {
		panic("boom")
	}
}

func (f faulty) Unroot() {}

// link stores a duplicate of to in from's edges.
func link(from, to *Handle[node]) {
	if err := from.Mutate(func(n *node) {
		n.edges = append(n.edges, to.Duplicate())
	}); err != nil {
		panic(err)
	}
}

var nodeSize = recordSize[node]()
