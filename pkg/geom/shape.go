package geom

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shape is the geometric object realized from a primitive.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() Box
	// ClosestPoint returns the point of the shape closest to p.
	ClosestPoint(p v3.Vec) v3.Vec
	// ReferencePoint returns some point lying on the shape.
	ReferencePoint() v3.Vec
	// Intersects reports whether the linear query touches the shape.
	Intersects(l Linear) bool
	// Intersection returns the part of the query lying on the shape.
	Intersection(l Linear) (Intersection, bool)
}

// Compile-time interface checks.
var (
	_ Shape = Triangle{}
	_ Shape = Segment{}
	_ Shape = Point{}
	_ Query = Segment{}
	_ Query = Ray{}
	_ Query = Line{}
)

// IntersectionKind tells whether an intersection is a point or a segment.
type IntersectionKind int

const (
	PointHit   IntersectionKind = iota // single point P
	SegmentHit                         // overlap from P to Q
)

func (k IntersectionKind) String() string {
	switch k {
	case PointHit:
		return "point"
	case SegmentHit:
		return "segment"
	default:
		return fmt.Sprintf("IntersectionKind(%d)", int(k))
	}
}

// Intersection is the geometric result of intersecting a query with a shape.
// For a PointHit, Q equals P.
type Intersection struct {
	Kind IntersectionKind
	P    v3.Vec
	Q    v3.Vec
}

func pointHit(p v3.Vec) Intersection {
	return Intersection{Kind: PointHit, P: p, Q: p}
}

// spanHit returns the piece of l between t0 and t1, collapsing to a point
// when the two ends coincide within tol.
func spanHit(l Linear, t0, t1, tol float64) Intersection {
	p, q := l.At(t0), l.At(t1)
	if q.Sub(p).Length() <= tol {
		return pointHit(p)
	}
	return Intersection{Kind: SegmentHit, P: p, Q: q}
}

// pointIntersection treats l.Origin as a point query against s.
func pointIntersection(s Shape, p v3.Vec) (Intersection, bool) {
	c := s.ClosestPoint(p)
	if c.Sub(p).Length() > lengthTol(c) {
		return Intersection{}, false
	}
	return pointHit(p), true
}
