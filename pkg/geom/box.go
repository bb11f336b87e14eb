// Package geom is the numeric layer the AABB tree is built on: boxes, linear
// queries (rays, lines, segments) and the primitive shapes a mesh is split
// into. Points and vectors are sdfx v3.Vec values and Box shares its layout
// with sdf.Box3, so geometry flows between the kernel and the tree without
// conversion.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Box is an axis-aligned bounding box with Min <= Max componentwise.
type Box sdf.Box3

// EmptyBox returns the box that contains nothing. It is the identity for Union.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: v3.Vec{X: inf, Y: inf, Z: inf},
		Max: v3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// BoxOf returns the smallest box containing all points.
func BoxOf(points ...v3.Vec) Box {
	b := EmptyBox()
	for _, p := range points {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// IsEmpty reports whether the box contains no point.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	return Box(sdf.Box3(b).Extend(sdf.Box3(o)))
}

// Centroid returns the center of the box.
func (b Box) Centroid() v3.Vec {
	return sdf.Box3(b).Center()
}

// Extent returns the size of the box along each axis.
func (b Box) Extent() v3.Vec {
	return sdf.Box3(b).Size()
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) of greatest extent.
// Ties go to the lower axis.
func (b Box) LongestAxis() int {
	size := b.Extent()
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	if size.Z > Coord(size, axis) {
		axis = 2
	}
	return axis
}

// Contains reports whether o lies inside b. The empty box is inside every box.
func (b Box) Contains(o Box) bool {
	if o.IsEmpty() {
		return true
	}
	return b.Min.X <= o.Min.X && b.Min.Y <= o.Min.Y && b.Min.Z <= o.Min.Z &&
		b.Max.X >= o.Max.X && b.Max.Y >= o.Max.Y && b.Max.Z >= o.Max.Z
}

// ContainsPoint reports whether p lies inside the closed box.
func (b Box) ContainsPoint(p v3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// SquaredDistance returns the smallest squared distance from p to any point
// of the box; zero when p is inside. It is a lower bound for the distance
// from p to anything the box contains.
func (b Box) SquaredDistance(p v3.Vec) float64 {
	var d2 float64
	for axis := 0; axis < 3; axis++ {
		c := Coord(p, axis)
		if lo := Coord(b.Min, axis); c < lo {
			d2 += (lo - c) * (lo - c)
		} else if hi := Coord(b.Max, axis); c > hi {
			d2 += (c - hi) * (c - hi)
		}
	}
	return d2
}

// IntersectsLinear reports whether the linear query passes through the box.
func (b Box) IntersectsLinear(l Linear) bool {
	_, _, ok := b.Clip(l)
	return ok
}

// Clip returns the parameter interval [t0, t1] of l that lies inside the box,
// using the slab method. The box is closed and padded by a small tolerance so
// that primitives lying on a face are never pruned.
func (b Box) Clip(l Linear) (t0, t1 float64, ok bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}
	t0, t1 = l.TMin, l.TMax
	for axis := 0; axis < 3; axis++ {
		lo, hi := Coord(b.Min, axis), Coord(b.Max, axis)
		pad := Epsilon * (1 + math.Abs(lo) + math.Abs(hi))
		lo, hi = lo-pad, hi+pad

		o, d := Coord(l.Origin, axis), Coord(l.Dir, axis)
		if d == 0 {
			// Parallel to this slab.
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}

		inv := 1 / d
		near, far := (lo-o)*inv, (hi-o)*inv
		if near > far {
			near, far = far, near
		}
		if near > t0 {
			t0 = near
		}
		if far < t1 {
			t1 = far
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// Coord returns the component of v along axis (0=X, 1=Y, 2=Z).
func Coord(v v3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
