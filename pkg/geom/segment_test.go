package geom

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.viam.com/test"
)

func TestSegmentClosestPoint(t *testing.T) {
	s := NewSegment(v3.Vec{X: 0}, v3.Vec{X: 2})

	vecAlmostEqual(t, s.ClosestPoint(v3.Vec{X: 1, Y: 5}), v3.Vec{X: 1})
	vecAlmostEqual(t, s.ClosestPoint(v3.Vec{X: -3, Y: 1}), v3.Vec{X: 0})
	vecAlmostEqual(t, s.ClosestPoint(v3.Vec{X: 9, Z: -1}), v3.Vec{X: 2})

	t.Run("zero length segment", func(t *testing.T) {
		p := NewSegment(v3.Vec{Y: 1}, v3.Vec{Y: 1})
		vecAlmostEqual(t, p.ClosestPoint(v3.Vec{X: 4}), v3.Vec{Y: 1})
	})
}

func TestSegmentIntersection(t *testing.T) {
	s := NewSegment(v3.Vec{X: 0}, v3.Vec{X: 2})

	t.Run("crossing ray", func(t *testing.T) {
		r := RayFrom(v3.Vec{X: 1, Y: -1}, v3.Vec{Y: 1})
		in, ok := s.Intersection(r.Linear())
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, in.Kind, test.ShouldEqual, PointHit)
		vecAlmostEqual(t, in.P, v3.Vec{X: 1})
	})

	t.Run("skew line misses", func(t *testing.T) {
		l := Line{Point: v3.Vec{X: 1, Z: 0.5}, Dir: v3.Vec{Y: 1}}
		test.That(t, s.Intersects(l.Linear()), test.ShouldBeFalse)
	})

	t.Run("ray crossing the carrier beyond the end misses", func(t *testing.T) {
		r := RayFrom(v3.Vec{X: 3, Y: -1}, v3.Vec{Y: 1})
		test.That(t, s.Intersects(r.Linear()), test.ShouldBeFalse)
	})

	t.Run("ray pointing away misses", func(t *testing.T) {
		r := RayFrom(v3.Vec{X: 1, Y: -1}, v3.Vec{Y: -1})
		test.That(t, s.Intersects(r.Linear()), test.ShouldBeFalse)
	})

	t.Run("collinear overlap gives a segment", func(t *testing.T) {
		q := NewSegment(v3.Vec{X: 1}, v3.Vec{X: 5})
		in, ok := s.Intersection(q.Linear())
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, in.Kind, test.ShouldEqual, SegmentHit)
		vecAlmostEqual(t, in.P, v3.Vec{X: 1})
		vecAlmostEqual(t, in.Q, v3.Vec{X: 2})
	})

	t.Run("collinear touching end gives a point", func(t *testing.T) {
		q := NewSegment(v3.Vec{X: 2}, v3.Vec{X: 5})
		in, ok := s.Intersection(q.Linear())
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, in.Kind, test.ShouldEqual, PointHit)
		vecAlmostEqual(t, in.P, v3.Vec{X: 2})
	})

	t.Run("collinear disjoint misses", func(t *testing.T) {
		q := NewSegment(v3.Vec{X: 3}, v3.Vec{X: 5})
		test.That(t, s.Intersects(q.Linear()), test.ShouldBeFalse)
	})

	t.Run("parallel offset misses", func(t *testing.T) {
		l := Line{Point: v3.Vec{Y: 1}, Dir: v3.Vec{X: 1}}
		test.That(t, s.Intersects(l.Linear()), test.ShouldBeFalse)
	})
}

func TestPointIntersection(t *testing.T) {
	p := Point{P: v3.Vec{X: 1, Y: 1, Z: 1}}

	test.That(t, p.Intersects(NewLine(v3.Vec{}, v3.Vec{X: 2, Y: 2, Z: 2}).Linear()), test.ShouldBeTrue)
	test.That(t, p.Intersects(NewRay(v3.Vec{}, v3.Vec{X: -1, Y: -1, Z: -1}).Linear()), test.ShouldBeFalse)
	test.That(t, p.Intersects(NewSegment(v3.Vec{}, v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}).Linear()), test.ShouldBeFalse)
	test.That(t, p.ClosestPoint(v3.Vec{X: 9}), test.ShouldResemble, p.P)
}
