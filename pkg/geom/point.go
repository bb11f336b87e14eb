package geom

import v3 "github.com/deadsy/sdfx/vec/v3"

// Point is a single point used as a shape, e.g. a vertex of a point set.
type Point struct {
	P v3.Vec
}

// BoundingBox implements Shape.
func (p Point) BoundingBox() Box {
	return BoxOf(p.P)
}

// ReferencePoint implements Shape.
func (p Point) ReferencePoint() v3.Vec {
	return p.P
}

// ClosestPoint implements Shape.
func (p Point) ClosestPoint(v3.Vec) v3.Vec {
	return p.P
}

// Intersects implements Shape.
func (p Point) Intersects(l Linear) bool {
	_, ok := p.Intersection(l)
	return ok
}

// Intersection implements Shape. The query must pass within tolerance of P.
func (p Point) Intersection(l Linear) (Intersection, bool) {
	q := l.At(l.ClosestParam(p.P))
	if q.Sub(p.P).Length() > lengthTol(p.P) {
		return Intersection{}, false
	}
	return pointHit(p.P), true
}
