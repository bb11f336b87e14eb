package aabb

import (
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// pointIndex answers nearest-neighbour queries over reference points. The
// point it returns need not be the exact nearest, only a valid hint.
type pointIndex[ID comparable] interface {
	nearest(p v3.Vec) (PointAndID[ID], bool)
	first() PointAndID[ID]
	size() int
}

// AccelerateDistanceQueries builds the distance accelerator over points,
// each of which must lie on the primitive it names. An empty slice is a
// no-op. The accelerator can be built once; it must not be built while
// queries are running.
func (t *Tree[ID]) AccelerateDistanceQueries(points []PointAndID[ID]) error {
	if len(points) == 0 {
		return nil
	}
	if t.accel != nil {
		return ErrAlreadyAccelerated
	}
	for i, pt := range points {
		if _, ok := t.byID[pt.ID]; !ok {
			return errors.Wrapf(ErrUnknownOwner, "reference point %d at %v", i, pt.Point)
		}
	}

	start := time.Now()
	switch t.indexKind {
	case RTreeIndex:
		t.accel = newRTreeIndex(points)
	default:
		t.accel = newKDIndex(points)
	}
	t.log().Debug("aabb distance accelerator built",
		zap.Stringer("index", t.indexKind),
		zap.Int("points", len(points)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// AccelerateFromPrimitives builds the distance accelerator from the
// reference point of every primitive.
func (t *Tree[ID]) AccelerateFromPrimitives() error {
	points := make([]PointAndID[ID], len(t.prims))
	for i, p := range t.prims {
		points[i] = PointAndID[ID]{Point: t.object(i).ReferencePoint(), ID: p.ID()}
	}
	return t.AccelerateDistanceQueries(points)
}

// Accelerated reports whether the distance accelerator has been built.
func (t *Tree[ID]) Accelerated() bool { return t.accel != nil }

// AnyReferencePointAndID returns some point on some primitive: a point of
// the accelerator when built, otherwise the reference point of the first
// primitive. It reports false only for an empty tree.
func (t *Tree[ID]) AnyReferencePointAndID() (PointAndID[ID], bool) {
	if t.accel != nil && t.accel.size() > 0 {
		return t.accel.first(), true
	}
	if len(t.prims) == 0 {
		return PointAndID[ID]{}, false
	}
	return PointAndID[ID]{Point: t.object(0).ReferencePoint(), ID: t.prims[0].ID()}, true
}

// kdPoint is a reference point stored in the k-d tree.
type kdPoint[ID comparable] struct {
	pos [3]float64
	id  ID
}

func (p kdPoint[ID]) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.pos[d] - c.(kdPoint[ID]).pos[d]
}

func (p kdPoint[ID]) Dims() int { return 3 }

func (p kdPoint[ID]) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint[ID])
	var sum float64
	for d := range p.pos {
		v := p.pos[d] - q.pos[d]
		sum += v * v
	}
	return sum
}

type kdPoints[ID comparable] []kdPoint[ID]

func (p kdPoints[ID]) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints[ID]) Len() int                              { return len(p) }
func (p kdPoints[ID]) Pivot(d kdtree.Dim) int                { return kdPlane[ID]{kdPoints: p, Dim: d}.Pivot() }
func (p kdPoints[ID]) Slice(start, end int) kdtree.Interface { return p[start:end] }

// kdPlane pivots kdPoints on one dimension.
type kdPlane[ID comparable] struct {
	kdtree.Dim
	kdPoints[ID]
}

func (p kdPlane[ID]) Less(i, j int) bool {
	return p.kdPoints[i].pos[p.Dim] < p.kdPoints[j].pos[p.Dim]
}
func (p kdPlane[ID]) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane[ID]) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
func (p kdPlane[ID]) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}

// kdIndex is the gonum k-d tree backend.
type kdIndex[ID comparable] struct {
	tree  *kdtree.Tree
	head  PointAndID[ID]
	count int
}

func newKDIndex[ID comparable](points []PointAndID[ID]) *kdIndex[ID] {
	pts := make(kdPoints[ID], len(points))
	for i, pt := range points {
		pts[i] = kdPoint[ID]{pos: [3]float64{pt.Point.X, pt.Point.Y, pt.Point.Z}, id: pt.ID}
	}
	return &kdIndex[ID]{
		tree:  kdtree.New(pts, false),
		head:  points[0],
		count: len(points),
	}
}

func (k *kdIndex[ID]) nearest(p v3.Vec) (PointAndID[ID], bool) {
	c, _ := k.tree.Nearest(kdPoint[ID]{pos: [3]float64{p.X, p.Y, p.Z}})
	q, ok := c.(kdPoint[ID])
	if !ok {
		return PointAndID[ID]{}, false
	}
	return PointAndID[ID]{Point: v3.Vec{X: q.pos[0], Y: q.pos[1], Z: q.pos[2]}, ID: q.id}, true
}

func (k *kdIndex[ID]) first() PointAndID[ID] { return k.head }
func (k *kdIndex[ID]) size() int             { return k.count }
