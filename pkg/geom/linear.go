package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Epsilon is the relative tolerance used by the intersection predicates.
const Epsilon = 1e-9

// Linear is the parametric form Origin + t*Dir, t in [TMin, TMax], shared by
// rays, lines and segments. TMin and TMax may be infinite.
type Linear struct {
	Origin v3.Vec
	Dir    v3.Vec
	TMin   float64
	TMax   float64
}

// Query is anything that can be expressed as a Linear: Ray, Line, Segment.
type Query interface {
	Linear() Linear
}

// At returns the point at parameter t.
func (l Linear) At(t float64) v3.Vec {
	return l.Origin.Add(l.Dir.MulScalar(t))
}

// Degenerate reports whether the direction is zero. A degenerate query
// behaves like the single point Origin.
func (l Linear) Degenerate() bool {
	return l.Dir.Length2() == 0
}

// ClosestParam returns the parameter in [TMin, TMax] of the point of l
// closest to p.
func (l Linear) ClosestParam(p v3.Vec) float64 {
	t := 0.0
	if dd := l.Dir.Length2(); dd != 0 {
		t = p.Sub(l.Origin).Dot(l.Dir) / dd
	}
	return math.Max(l.TMin, math.Min(l.TMax, t))
}

// InRange reports whether t lies in [TMin-tol, TMax+tol].
func (l Linear) InRange(t, tol float64) bool {
	return t >= l.TMin-tol && t <= l.TMax+tol
}

// Param returns the smallest parameter of the intersection along l.
func (l Linear) Param(in Intersection) float64 {
	t := l.ClosestParam(in.P)
	if in.Kind == SegmentHit {
		t = math.Min(t, l.ClosestParam(in.Q))
	}
	return t
}

// paramTol converts a length tolerance into a parameter tolerance along l.
func (l Linear) paramTol(tol float64) float64 {
	n := l.Dir.Length()
	if n == 0 {
		return 0
	}
	return tol / n
}

// Ray is the half line starting at Origin in direction Dir.
type Ray struct {
	Origin v3.Vec
	Dir    v3.Vec
}

// NewRay returns the ray from origin through the point through.
func NewRay(origin, through v3.Vec) Ray {
	return Ray{Origin: origin, Dir: through.Sub(origin)}
}

// RayFrom returns the ray from origin along dir.
func RayFrom(origin, dir v3.Vec) Ray {
	return Ray{Origin: origin, Dir: dir}
}

// Linear implements Query.
func (r Ray) Linear() Linear {
	return Linear{Origin: r.Origin, Dir: r.Dir, TMin: 0, TMax: math.Inf(1)}
}

// Line is the infinite line through Point with direction Dir.
type Line struct {
	Point v3.Vec
	Dir   v3.Vec
}

// NewLine returns the line through p and q.
func NewLine(p, q v3.Vec) Line {
	return Line{Point: p, Dir: q.Sub(p)}
}

// Linear implements Query.
func (l Line) Linear() Linear {
	return Linear{Origin: l.Point, Dir: l.Dir, TMin: math.Inf(-1), TMax: math.Inf(1)}
}

// lengthTol returns an absolute length tolerance scaled to the magnitude of
// the given points. Only a primitive's own coordinates are passed in; the
// query origin never widens the tolerance.
func lengthTol(points ...v3.Vec) float64 {
	scale := 1.0
	for _, p := range points {
		scale = math.Max(scale, math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z))))
	}
	return Epsilon * scale
}
