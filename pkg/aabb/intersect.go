package aabb

import (
	"iter"

	"github.com/chazu/burl/pkg/geom"
)

// traverse calls visit for every primitive whose leaf box the query passes
// through, depth first with the left child first. A subtree is entered only
// when its box intersects the query. visit returns false to stop.
func (t *Tree[ID]) traverse(l geom.Linear, visit func(prim int) bool) {
	if len(t.nodes) == 0 {
		return
	}
	stack := make([]int32, 1, t.depth+2)
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[ni]
		if !n.box.IntersectsLinear(l) {
			continue
		}
		if n.leaf() {
			if !visit(int(n.prim)) {
				return
			}
			continue
		}
		stack = append(stack, n.right, n.left)
	}
}

// DoIntersect reports whether q intersects at least one primitive.
func (t *Tree[ID]) DoIntersect(q geom.Query) bool {
	l := q.Linear()
	hit := false
	t.traverse(l, func(i int) bool {
		hit = t.object(i).Intersects(l)
		return !hit
	})
	return hit
}

// NumberOfIntersectedPrimitives returns how many primitives q intersects.
func (t *Tree[ID]) NumberOfIntersectedPrimitives(q geom.Query) int {
	l := q.Linear()
	count := 0
	t.traverse(l, func(i int) bool {
		if t.object(i).Intersects(l) {
			count++
		}
		return true
	})
	return count
}

// AllIntersectedPrimitives yields the ID of every primitive q intersects.
// The order is deterministic for a given tree and query.
func (t *Tree[ID]) AllIntersectedPrimitives(q geom.Query) iter.Seq[ID] {
	l := q.Linear()
	return func(yield func(ID) bool) {
		t.traverse(l, func(i int) bool {
			if !t.object(i).Intersects(l) {
				return true
			}
			return yield(t.prims[i].ID())
		})
	}
}

// AllIntersections yields the intersection with every primitive q intersects,
// in the same order as AllIntersectedPrimitives.
func (t *Tree[ID]) AllIntersections(q geom.Query) iter.Seq[ObjectAndID[ID]] {
	l := q.Linear()
	return func(yield func(ObjectAndID[ID]) bool) {
		t.traverse(l, func(i int) bool {
			in, ok := t.object(i).Intersection(l)
			if !ok {
				return true
			}
			return yield(ObjectAndID[ID]{Object: in, ID: t.prims[i].ID()})
		})
	}
}

// AnyIntersection returns the first intersection found in traversal order.
func (t *Tree[ID]) AnyIntersection(q geom.Query) (ObjectAndID[ID], bool) {
	for hit := range t.AllIntersections(q) {
		return hit, true
	}
	return ObjectAndID[ID]{}, false
}

// AnyIntersectedPrimitive returns the first intersected primitive found in
// traversal order.
func (t *Tree[ID]) AnyIntersectedPrimitive(q geom.Query) (ID, bool) {
	for id := range t.AllIntersectedPrimitives(q) {
		return id, true
	}
	var zero ID
	return zero, false
}

// FirstIntersection returns the intersection with the smallest parameter
// along q, and that parameter. For a ray this is the first surface hit.
func (t *Tree[ID]) FirstIntersection(q geom.Query) (ObjectAndID[ID], float64, bool) {
	var (
		best  ObjectAndID[ID]
		bestT float64
		found bool
	)
	if len(t.nodes) == 0 {
		return best, 0, false
	}
	l := q.Linear()

	type entry struct {
		node int32
		t0   float64
	}
	t0, _, ok := t.nodes[0].box.Clip(l)
	if !ok {
		return best, 0, false
	}
	stack := []entry{{node: 0, t0: t0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if found && e.t0 > bestT {
			continue
		}
		n := &t.nodes[e.node]
		if n.leaf() {
			in, ok := t.object(int(n.prim)).Intersection(l)
			if !ok {
				continue
			}
			if s := l.Param(in); !found || s < bestT {
				best = ObjectAndID[ID]{Object: in, ID: t.prims[n.prim].ID()}
				bestT, found = s, true
			}
			continue
		}
		lt, _, lok := t.nodes[n.left].box.Clip(l)
		rt, _, rok := t.nodes[n.right].box.Clip(l)
		switch {
		case lok && rok && rt < lt:
			stack = append(stack, entry{n.left, lt}, entry{n.right, rt})
		case lok && rok:
			stack = append(stack, entry{n.right, rt}, entry{n.left, lt})
		case lok:
			stack = append(stack, entry{n.left, lt})
		case rok:
			stack = append(stack, entry{n.right, rt})
		}
	}
	return best, bestT, found
}
