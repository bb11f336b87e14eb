package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Segment is the closed line segment from A to B. It is both a Shape (mesh
// edges) and a Query.
type Segment struct {
	A, B v3.Vec
}

// NewSegment returns the segment from a to b.
func NewSegment(a, b v3.Vec) Segment {
	return Segment{A: a, B: b}
}

// Linear implements Query.
func (s Segment) Linear() Linear {
	return Linear{Origin: s.A, Dir: s.B.Sub(s.A), TMin: 0, TMax: 1}
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return s.B.Sub(s.A).Length()
}

// BoundingBox implements Shape.
func (s Segment) BoundingBox() Box {
	return BoxOf(s.A, s.B)
}

// ReferencePoint implements Shape.
func (s Segment) ReferencePoint() v3.Vec {
	return s.A
}

// ClosestPoint implements Shape.
func (s Segment) ClosestPoint(p v3.Vec) v3.Vec {
	return s.Linear().At(s.Linear().ClosestParam(p))
}

// Intersects implements Shape.
func (s Segment) Intersects(l Linear) bool {
	_, ok := s.Intersection(l)
	return ok
}

// Intersection implements Shape. Skew carriers meet in at most one point;
// collinear ones overlap in a point or a segment.
func (s Segment) Intersection(l Linear) (Intersection, bool) {
	if l.Degenerate() {
		return pointIntersection(s, l.Origin)
	}
	e := s.B.Sub(s.A)
	a := e.Length2()
	if a == 0 {
		return Point{P: s.A}.Intersection(l)
	}

	tol := lengthTol(s.A, s.B)
	d := l.Dir
	w0 := s.A.Sub(l.Origin)
	b := e.Dot(d)
	c := d.Length2()
	de := e.Dot(w0)
	dd := d.Dot(w0)
	den := a*c - b*b

	if den <= Epsilon*a*c {
		// Parallel carriers: they must coincide to meet.
		ta := w0.Dot(d) / c
		if l.At(ta).Sub(s.A).Length() > tol {
			return Intersection{}, false
		}
		tb := s.B.Sub(l.Origin).Dot(d) / c
		lo := math.Max(math.Min(ta, tb), l.TMin)
		hi := math.Min(math.Max(ta, tb), l.TMax)
		if lo > hi+l.paramTol(tol) {
			return Intersection{}, false
		}
		if hi < lo {
			hi = lo
		}
		return spanHit(l, lo, hi, tol), true
	}

	u := (b*dd - c*de) / den
	t := (a*dd - b*de) / den
	if u < -tol/math.Sqrt(a) || u > 1+tol/math.Sqrt(a) || !l.InRange(t, l.paramTol(tol)) {
		return Intersection{}, false
	}
	p := s.A.Add(e.MulScalar(u))
	if p.Sub(l.At(t)).Length() > tol {
		return Intersection{}, false
	}
	u = math.Max(0, math.Min(1, u))
	return pointHit(s.A.Add(e.MulScalar(u))), true
}
