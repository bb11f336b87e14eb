package aabb

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// hintSlack inflates the bound seeded from a point-only hint so that the
// primitive the hint lies on is still found despite rounding.
const hintSlack = 1e-9

// nearestResult is the outcome of a distance search. prim is -1 when no
// primitive beat the seeded bound and the hint point is the answer.
type nearestResult struct {
	d2    float64
	point v3.Vec
	prim  int
}

// SquaredDistance returns the squared distance from p to the nearest primitive.
func (t *Tree[ID]) SquaredDistance(p v3.Vec, opts ...QueryOption[ID]) (float64, error) {
	r, err := t.nearest(p, opts)
	if err != nil {
		return 0, err
	}
	return r.d2, nil
}

// ClosestPoint returns the point of the nearest primitive closest to p.
func (t *Tree[ID]) ClosestPoint(p v3.Vec, opts ...QueryOption[ID]) (v3.Vec, error) {
	r, err := t.nearest(p, opts)
	if err != nil {
		return v3.Vec{}, err
	}
	return r.point, nil
}

// ClosestPointAndPrimitive returns the point closest to p and the primitive
// it lies on.
func (t *Tree[ID]) ClosestPointAndPrimitive(p v3.Vec, opts ...QueryOption[ID]) (PointAndID[ID], error) {
	r, err := t.nearest(p, opts)
	if err != nil {
		return PointAndID[ID]{}, err
	}
	if r.prim < 0 {
		return PointAndID[ID]{Point: r.point}, ErrHintNotOnPrimitive
	}
	return PointAndID[ID]{Point: r.point, ID: t.prims[r.prim].ID()}, nil
}

// seed returns the initial bound of a distance search. The bound is the
// exact distance to a hinted primitive when one is known, otherwise it is
// taken from a hint point, otherwise +Inf.
func (t *Tree[ID]) seed(p v3.Vec, opts []QueryOption[ID]) (nearestResult, float64) {
	var o queryOptions[ID]
	for _, opt := range opts {
		opt(&o)
	}

	if !o.hasHintID && !o.hasHintPt && t.accel != nil && !o.noAccel {
		if h, ok := t.accel.nearest(p); ok {
			o.hintID, o.hasHintID = h.ID, true
		}
	}
	if o.hasHintID {
		if i, ok := t.byID[o.hintID]; ok {
			c := t.object(i).ClosestPoint(p)
			d2 := c.Sub(p).Length2()
			return nearestResult{d2: d2, point: c, prim: i}, d2
		}
	}
	if o.hasHintPt {
		d2 := o.hintPoint.Sub(p).Length2()
		return nearestResult{d2: d2, point: o.hintPoint, prim: -1}, d2 + hintSlack*math.Max(d2, 1)
	}
	return nearestResult{d2: math.Inf(1), prim: -1}, math.Inf(1)
}

// nearest runs a depth-first branch and bound search, visiting the nearer
// child first and skipping every subtree whose box lies no closer than the
// current bound. A leaf replaces the answer only on strict improvement.
func (t *Tree[ID]) nearest(p v3.Vec, opts []QueryOption[ID]) (nearestResult, error) {
	if len(t.nodes) == 0 {
		return nearestResult{}, ErrEmptyTree
	}
	best, bound := t.seed(p, opts)

	type entry struct {
		node int32
		d2   float64
	}
	stack := make([]entry, 1, t.depth+2)
	stack[0] = entry{node: 0, d2: t.nodes[0].box.SquaredDistance(p)}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.d2 >= bound {
			continue
		}
		n := &t.nodes[e.node]
		if n.leaf() {
			c := t.object(int(n.prim)).ClosestPoint(p)
			if d2 := c.Sub(p).Length2(); d2 < bound {
				best = nearestResult{d2: d2, point: c, prim: int(n.prim)}
				bound = d2
			}
			continue
		}
		ld := t.nodes[n.left].box.SquaredDistance(p)
		rd := t.nodes[n.right].box.SquaredDistance(p)
		if ld <= rd {
			stack = append(stack, entry{n.right, rd}, entry{n.left, ld})
		} else {
			stack = append(stack, entry{n.left, ld}, entry{n.right, rd})
		}
	}
	return best, nil
}
