package aabb

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/burl/pkg/geom"
)

// Primitive is the adapter between a caller's data and the tree. ID is an
// opaque handle returned by queries; Object realizes the geometry on demand.
// Primitives must not change while a tree over them exists.
type Primitive[ID comparable] interface {
	ID() ID
	Object() geom.Shape
}

// PointAndID is a point together with the primitive it lies on.
type PointAndID[ID comparable] struct {
	Point v3.Vec
	ID    ID
}

// ObjectAndID is an intersection together with the primitive that produced it.
type ObjectAndID[ID comparable] struct {
	Object geom.Intersection
	ID     ID
}
