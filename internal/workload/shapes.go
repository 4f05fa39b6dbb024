package workload

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/pavanmanishd/scopedgc"
)

// Shape names a generated graph layout.
type Shape string

const (
	ShapeList   Shape = "list"   // Chain, rooted at the head
	ShapeRing   Shape = "ring"   // Chain closed into a cycle, rooted at the head
	ShapeTree   Shape = "tree"   // Binary tree, rooted at the top
	ShapeRandom Shape = "random" // Random edges, every node rooted
)

// Shapes lists every supported shape.
var Shapes = []Shape{ShapeList, ShapeRing, ShapeTree, ShapeRandom}

// ParseShape validates a shape name.
func ParseShape(s string) (Shape, error) {
	for _, sh := range Shapes {
		if string(sh) == s {
			return sh, nil
		}
	}
	return "", fmt.Errorf("%w: unknown shape %q", ErrUsage, s)
}

// Build allocates an n-node graph of the given shape in s and returns the
// handles that are still roots. Every other handle has been released, so
// the graph stays alive only through the returned roots. rng is used by
// ShapeRandom only.
func Build(s *scopedgc.Scope, shape Shape, n int, rng *rand.Rand) ([]*scopedgc.Handle[Node], error) {
	if n <= 0 {
		return nil, nil
	}
	nodes := make([]*scopedgc.Handle[Node], n)
	for i := range nodes {
		h, err := scopedgc.Alloc(s, Node{Label: strconv.Itoa(i)})
		if err != nil {
			releaseAll(nodes[:i])
			return nil, err
		}
		nodes[i] = h
	}

	link := func(from, to int) error {
		return nodes[from].Mutate(func(v *Node) {
			v.Edges = append(v.Edges, nodes[to].Duplicate())
		})
	}

	var err error
	allRooted := false
	switch shape {
	case ShapeList, ShapeRing:
		for i := 0; i < n-1 && err == nil; i++ {
			err = link(i, i+1)
		}
		if shape == ShapeRing && err == nil {
			err = link(n-1, 0)
		}
	case ShapeTree:
		for i := 0; i < n && err == nil; i++ {
			for _, c := range []int{2*i + 1, 2*i + 2} {
				if c < n && err == nil {
					err = link(i, c)
				}
			}
		}
	case ShapeRandom:
		for i := 0; i < n*2 && err == nil; i++ {
			err = link(rng.Intn(n), rng.Intn(n))
		}
		allRooted = true
	default:
		err = fmt.Errorf("%w: unknown shape %q", ErrUsage, shape)
	}
	if err != nil {
		releaseAll(nodes)
		return nil, err
	}
	if allRooted {
		return nodes, nil
	}

	releaseAll(nodes[1:])
	return nodes[:1], nil
}

func releaseAll(hs []*scopedgc.Handle[Node]) {
	for _, h := range hs {
		h.Release()
	}
}
