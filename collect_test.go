package scopedgc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectAcyclicReturnsToZero(t *testing.T) {
	s := New()
	defer s.Close()

	leaf := MustAlloc(s, node{name: "leaf"})
	mid := MustAlloc(s, node{name: "mid", edges: []*Handle[node]{leaf.Duplicate()}})
	top := MustAlloc(s, node{name: "top", edges: []*Handle[node]{mid.Duplicate(), leaf.Duplicate()}})
	require.Equal(t, 3*nodeSize, s.BytesTracked())

	leaf.Release()
	mid.Release()
	require.NoError(t, s.Collect())
	assert.Equal(t, 3, s.Len(), "everything still reachable from top")

	top.Release()
	require.NoError(t, s.Collect())
	assert.Zero(t, s.BytesTracked())
	assert.Zero(t, s.Len())
}

func TestCollectFreesUnrootedCycle(t *testing.T) {
	s := New()
	defer s.Close()

	a := MustAlloc(s, node{name: "a"})
	b := MustAlloc(s, node{name: "b"})
	link(a, b)
	link(b, a)
	a.Release()
	b.Release()

	require.NoError(t, s.Collect())

	assert.Zero(t, s.Len())
	assert.Zero(t, s.BytesTracked())
	assert.Equal(t, 2, s.LastCollection().Freed)
}

func TestCollectKeepsCyclePinnedByRoot(t *testing.T) {
	s := New()
	defer s.Close()

	a := MustAlloc(s, node{name: "a"})
	b := MustAlloc(s, node{name: "b"})
	link(a, b)
	link(b, a)
	b.Release()

	require.NoError(t, s.Collect())
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "b", a.Get().edges[0].Get().name)
	assert.Equal(t, "a", a.Get().edges[0].Get().edges[0].Get().name)

	a.Release()
	require.NoError(t, s.Collect())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.BytesTracked())
}

func TestCollectSelfCycle(t *testing.T) {
	s := New()
	defer s.Close()

	a := MustAlloc(s, node{name: "self"})
	link(a, a)
	require.Equal(t, 1, a.RootCount())

	require.NoError(t, s.Collect())
	require.Equal(t, 1, s.Len())

	a.Release()
	require.NoError(t, s.Collect())
	assert.Zero(t, s.Len())
}

func TestCollectHeterogeneous(t *testing.T) {
	s := New()
	defer s.Close()

	num := MustAlloc(s, NewLeaf(42))
	nodes := MustAlloc(s, node{name: "unrelated"})
	text := MustAlloc(s, NewLeaf("hello"))
	inner := MustAlloc(s, holder{num: num.Duplicate(), text: text.Duplicate()})
	outer := MustAlloc(s, holder{next: inner.Duplicate(), text: text.Duplicate()})
	orphan := MustAlloc(s, NewLeaf(3.14))

	num.Release()
	text.Release()
	inner.Release()
	orphan.Release()

	want := 2*recordSize[holder]() + recordSize[Leaf[int]]() + recordSize[Leaf[string]]() + nodeSize
	require.NoError(t, s.Collect())
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, want, s.BytesTracked())
	assert.Equal(t, 42, outer.Get().next.Get().num.Get().Value)
	assert.Equal(t, "hello", outer.Get().text.Get().Value)

	outer.Release()
	require.NoError(t, s.Collect())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "unrelated", nodes.Get().name)
}

func TestCollectDuplicatedThenReleased(t *testing.T) {
	s := New()
	defer s.Close()

	x := MustAlloc(s, node{name: "x"})
	d1 := x.Duplicate()
	d2 := x.Duplicate()
	require.Equal(t, 3, x.RootCount())

	x.Release()
	d1.Release()
	d2.Release()
	require.Equal(t, 0, x.RootCount())

	before := s.BytesTracked()
	require.NoError(t, s.Collect())
	assert.Equal(t, before-nodeSize, s.BytesTracked())
	assert.Equal(t, nodeSize, s.LastCollection().FreedBytes)
	assert.Zero(t, s.Len())
}

func TestCollectEmbeddedDuplicateIsDemoted(t *testing.T) {
	s := New()
	defer s.Close()

	b := MustAlloc(s, node{name: "b"})
	embedded := b.Duplicate()
	require.Equal(t, 2, b.RootCount())

	a := MustAlloc(s, node{name: "a", edges: []*Handle[node]{embedded}})
	require.Equal(t, 1, b.RootCount(), "only the outward handle remains a root")
	require.False(t, embedded.Rooted())

	b.Release()
	require.Equal(t, 0, embedded.RootCount())

	require.NoError(t, s.Collect())
	require.Equal(t, 2, s.Len(), "b is reachable from rooted a")
	assert.Equal(t, "b", a.Get().edges[0].Get().name)

	a.Release()
	require.NoError(t, s.Collect())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.BytesTracked())
}

func TestCollectTracesEachRecordOnce(t *testing.T) {
	s := New()
	defer s.Close()

	traces := 0
	shared := MustAlloc(s, node{name: "shared"})
	c := MustAlloc(s, counted{traces: &traces, child: shared.Duplicate()})
	c2 := c.Duplicate()
	link(shared, shared)

	require.NoError(t, s.Collect())
	assert.Equal(t, 1, traces)

	require.NoError(t, s.Collect())
	assert.Equal(t, 2, traces, "marks are cleared between passes")

	c.Release()
	c2.Release()
	shared.Release()
	require.NoError(t, s.Collect())
	assert.Equal(t, 2, traces)
	assert.Zero(t, s.Len())
}

func TestCollectLongChain(t *testing.T) {
	s := New()
	defer s.Close()

	const n = 100000
	head := MustAlloc(s, node{name: "tail"})
	for i := 0; i < n-1; i++ {
		next := MustAlloc(s, node{edges: []*Handle[node]{head}})
		head = next
	}
	require.Equal(t, n, s.Len())

	require.NoError(t, s.Collect())
	assert.Equal(t, n, s.Len())
	assert.Equal(t, 1, s.Rooted())

	head.Release()
	require.NoError(t, s.Collect())
	assert.Zero(t, s.Len())
}

func TestCloseFreesEverything(t *testing.T) {
	s := New()

	a := MustAlloc(s, node{name: "a"})
	b := MustAlloc(s, node{name: "b"})
	link(a, b)
	link(b, a)
	leaf := MustAlloc(s, NewLeaf(1))
	leaf.Unroot()

	require.NoError(t, s.Close())

	assert.Zero(t, s.BytesTracked())
	assert.Zero(t, s.Len())
	for _, h := range []*Handle[node]{a, b} {
		_, err := h.Deref()
		require.ErrorIs(t, err, ErrScopeClosed)
	}
	_, err := leaf.Deref()
	require.ErrorIs(t, err, ErrScopeClosed)
	assert.NotPanics(t, a.Release)
}

func TestCollectRejectsForeignHandles(t *testing.T) {
	other := New()
	defer other.Close()
	s := New()
	defer s.Close()

	foreign := MustAlloc(other, node{name: "foreign"})
	MustAlloc(s, node{edges: []*Handle[node]{foreign.Duplicate()}})

	require.ErrorIs(t, s.Collect(), ErrForeignTrace)
	assert.Equal(t, 1, s.Len(), "a failed pass frees nothing")
	require.NoError(t, other.Collect())
	assert.Equal(t, 1, other.Len())
}

func TestCollectForeignClosedScope(t *testing.T) {
	other := New()
	s := New()
	defer s.Close()

	foreign := MustAlloc(other, node{name: "foreign"})
	MustAlloc(s, node{edges: []*Handle[node]{foreign.Duplicate()}})
	require.NoError(t, other.Close())

	require.ErrorIs(t, s.Collect(), ErrForeignTrace)
	_, err := s.Snapshot()
	require.ErrorIs(t, err, ErrForeignTrace)
	assert.Equal(t, 1, s.Len())
}

func TestAllocRejectsCollectedChild(t *testing.T) {
	s := New()
	defer s.Close()

	b := MustAlloc(s, node{name: "b"})
	b.Unroot()
	require.NoError(t, s.Collect())
	require.Zero(t, s.Len())

	h, err := Alloc(s, node{name: "a", edges: []*Handle[node]{b}})
	require.ErrorIs(t, err, ErrCollected)
	assert.Nil(t, h)
	assert.Zero(t, s.Len())
	assert.Zero(t, s.BytesTracked())

	require.NoError(t, s.Collect(), "the scope still collects")
}

func TestMutateRejectsCollectedChild(t *testing.T) {
	s := New()
	defer s.Close()

	a := MustAlloc(s, node{name: "a"})
	b := MustAlloc(s, node{name: "b"})
	b.Unroot()
	require.NoError(t, s.Collect())
	require.Equal(t, 1, s.Len())

	err := a.Mutate(func(n *node) {
		n.name = "changed"
		n.edges = append(n.edges, b)
	})
	require.ErrorIs(t, err, ErrCollected)
	assert.Equal(t, "a", a.Get().name, "value restored")
	assert.Empty(t, a.Get().edges)

	require.NoError(t, s.Collect())
	assert.Equal(t, 1, s.Len())
	a.Release()
	require.NoError(t, s.Collect())
	assert.Zero(t, s.Len())
}

func TestAllocRejectsChildOfClosedScope(t *testing.T) {
	other := New()
	s := New()
	defer s.Close()

	foreign := MustAlloc(other, node{name: "foreign"})
	require.NoError(t, other.Close())

	_, err := Alloc(s, node{edges: []*Handle[node]{foreign}})
	require.ErrorIs(t, err, ErrScopeClosed)
	assert.Zero(t, s.Len())
}

func TestSnapshotReportsCollectedEdge(t *testing.T) {
	s := New()
	defer s.Close()

	a := MustAlloc(s, node{name: "a"})
	b := MustAlloc(s, node{name: "b"})
	b.Unroot()
	require.NoError(t, s.Collect())

	// Bypass Mutate to plant the stale edge directly.
	a.Get().edges = append(a.Get().edges, b)

	_, err := s.Snapshot()
	require.ErrorIs(t, err, ErrCollected)
	require.ErrorIs(t, s.Collect(), ErrCollected)
	assert.Equal(t, 1, s.Len())
}

func TestCollectPropagatesTracePanic(t *testing.T) {
	s := New()
	defer s.Close()

	fail := true
	h := MustAlloc(s, faulty{fail: &fail})

	require.PanicsWithValue(t, "boom", func() { _ = s.Collect() })

	fail = false
	require.NoError(t, s.Collect())
	assert.Equal(t, 1, s.Len())
	h.Release()
	require.NoError(t, s.Collect())
	assert.Zero(t, s.Len())
}
