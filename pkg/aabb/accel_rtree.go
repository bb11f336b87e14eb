package aabb

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
)

// R-tree node fan-out for the accelerator.
const (
	rtreeMinChildren = 8
	rtreeMaxChildren = 16
)

// rtreePointTol is the half side of the rectangle each reference point is
// stored as.
const rtreePointTol = 1e-9

// rtreePoint is a reference point stored in the R-tree.
type rtreePoint[ID comparable] struct {
	pt   PointAndID[ID]
	rect rtreego.Rect
}

func (p *rtreePoint[ID]) Bounds() rtreego.Rect { return p.rect }

// rtreeIndex is the rtreego backend. Points are bulk loaded.
type rtreeIndex[ID comparable] struct {
	tree *rtreego.Rtree
	head PointAndID[ID]
}

func newRTreeIndex[ID comparable](points []PointAndID[ID]) *rtreeIndex[ID] {
	objs := make([]rtreego.Spatial, len(points))
	for i, pt := range points {
		objs[i] = &rtreePoint[ID]{pt: pt, rect: toRPoint(pt.Point).ToRect(rtreePointTol)}
	}
	return &rtreeIndex[ID]{
		tree: rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren, objs...),
		head: points[0],
	}
}

func toRPoint(p v3.Vec) rtreego.Point {
	return rtreego.Point{p.X, p.Y, p.Z}
}

func (r *rtreeIndex[ID]) nearest(p v3.Vec) (PointAndID[ID], bool) {
	obj, ok := r.tree.NearestNeighbor(toRPoint(p)).(*rtreePoint[ID])
	if !ok {
		return PointAndID[ID]{}, false
	}
	return obj.pt, true
}

func (r *rtreeIndex[ID]) first() PointAndID[ID] { return r.head }
func (r *rtreeIndex[ID]) size() int             { return r.tree.Size() }

// Compile-time interface checks.
var (
	_ pointIndex[int] = (*kdIndex[int])(nil)
	_ pointIndex[int] = (*rtreeIndex[int])(nil)
	_ rtreego.Spatial = (*rtreePoint[int])(nil)
)
