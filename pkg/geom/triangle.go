package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangle is a triangle with vertices A, B, C.
type Triangle struct {
	A, B, C v3.Vec
}

// BoundingBox implements Shape.
func (t Triangle) BoundingBox() Box {
	return BoxOf(t.A, t.B, t.C)
}

// ReferencePoint implements Shape.
func (t Triangle) ReferencePoint() v3.Vec {
	return t.A
}

// Centroid returns the mean of the three vertices.
func (t Triangle) Centroid() v3.Vec {
	return t.A.Add(t.B).Add(t.C).DivScalar(3)
}

// Normal returns the unnormalized face normal (B-A)x(C-A).
func (t Triangle) Normal() v3.Vec {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A))
}

// Degenerate reports whether the triangle is too thin to have a reliable
// supporting plane: its height over the longest side is within tolerance.
func (t Triangle) Degenerate() bool {
	longest := math.Max(t.B.Sub(t.A).Length(), math.Max(t.C.Sub(t.B).Length(), t.A.Sub(t.C).Length()))
	return t.Normal().Length() <= lengthTol(t.A, t.B, t.C)*longest
}

// Edges returns the three sides AB, BC, CA.
func (t Triangle) Edges() [3]Segment {
	return [3]Segment{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}}
}

// ClosestPoint implements Shape by locating p in the Voronoi regions of the
// triangle's vertices, edges and face.
func (t Triangle) ClosestPoint(p v3.Vec) v3.Vec {
	if t.Degenerate() {
		return closestOnEdges(t.Edges(), p)
	}

	a, b, c := t.A, t.B, t.C
	ab := b.Sub(a)
	ac := c.Sub(a)

	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.MulScalar(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.MulScalar(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).MulScalar(w))
	}

	// Face region: project onto the plane. Thin triangles can land here with
	// the projection outside; their closest point then lies on an edge.
	n := t.Normal()
	q := p.Sub(n.MulScalar(n.Dot(ap) / n.Length2()))
	if !t.contains(q, n, lengthTol(a, b, c)) {
		return closestOnEdges(t.Edges(), p)
	}
	return q
}

// Intersects implements Shape.
func (t Triangle) Intersects(l Linear) bool {
	_, ok := t.Intersection(l)
	return ok
}

// Intersection implements Shape. A query crossing the supporting plane
// yields a point; a coplanar query yields the clipped point or segment.
func (t Triangle) Intersection(l Linear) (Intersection, bool) {
	if l.Degenerate() {
		return pointIntersection(t, l.Origin)
	}
	if t.Degenerate() {
		for _, e := range t.Edges() {
			if in, ok := e.Intersection(l); ok {
				return in, true
			}
		}
		return Intersection{}, false
	}

	tol := lengthTol(t.A, t.B, t.C)
	n := t.Normal()
	nLen := n.Length()
	denom := n.Dot(l.Dir)

	if math.Abs(denom) > Epsilon*nLen*l.Dir.Length() {
		s := n.Dot(t.A.Sub(l.Origin)) / denom
		if !l.InRange(s, l.paramTol(tol)) {
			return Intersection{}, false
		}
		s = math.Max(l.TMin, math.Min(l.TMax, s))
		p := l.At(s)
		if !t.contains(p, n, tol) {
			return Intersection{}, false
		}
		return pointHit(p), true
	}

	// Parallel to the plane: only a coplanar query can touch the triangle.
	if math.Abs(n.Dot(l.Origin.Sub(t.A)))/nLen > tol {
		return Intersection{}, false
	}
	return t.clipCoplanar(l, n, tol)
}

// contains reports whether p, assumed to lie in the plane with normal n, is
// inside the triangle or within tol of its boundary. Each side is tested by
// the signed distance of p from it, measured in the plane.
func (t Triangle) contains(p, n v3.Vec, tol float64) bool {
	nLen := n.Length()
	verts := [3]v3.Vec{t.A, t.B, t.C}
	for i := 0; i < 3; i++ {
		vi, vj := verts[i], verts[(i+1)%3]
		e := vj.Sub(vi)
		if n.Dot(e.Cross(p.Sub(vi)))/(nLen*e.Length()) < -tol {
			return false
		}
	}
	return true
}

// clipCoplanar clips the parameter range of a coplanar query against the
// three edge half-planes of the triangle.
func (t Triangle) clipCoplanar(l Linear, n v3.Vec, tol float64) (Intersection, bool) {
	t0, t1 := l.TMin, l.TMax
	verts := [3]v3.Vec{t.A, t.B, t.C}
	for i := 0; i < 3; i++ {
		vi, vj := verts[i], verts[(i+1)%3]
		// n x edge points into the triangle for counter-clockwise winding about n.
		m := n.Cross(vj.Sub(vi))
		m = m.DivScalar(m.Length())
		a := m.Dot(l.Origin.Sub(vi))
		b := m.Dot(l.Dir)
		if math.Abs(b) <= Epsilon*l.Dir.Length() {
			if a < -tol {
				return Intersection{}, false
			}
			continue
		}
		bound := (-tol - a) / b
		if b > 0 {
			t0 = math.Max(t0, bound)
		} else {
			t1 = math.Min(t1, bound)
		}
		if t0 > t1 {
			return Intersection{}, false
		}
	}
	return spanHit(l, t0, t1, tol), true
}

// closestOnEdges returns the closest point to p over a set of segments.
func closestOnEdges(edges [3]Segment, p v3.Vec) v3.Vec {
	best := edges[0].ClosestPoint(p)
	bestDist := best.Sub(p).Length2()
	for _, e := range edges[1:] {
		c := e.ClosestPoint(p)
		if d := c.Sub(p).Length2(); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
