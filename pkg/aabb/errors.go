package aabb

import "github.com/pkg/errors"

var (
	// ErrEmptyTree is returned by distance queries on a tree with no primitives.
	ErrEmptyTree = errors.New("aabb: distance query on empty tree")

	// ErrInvalidPrimitive is returned by New when a primitive or its object is
	// nil, or its bounding box is not finite.
	ErrInvalidPrimitive = errors.New("aabb: invalid primitive")

	// ErrAlreadyAccelerated is returned when the distance accelerator is built twice.
	ErrAlreadyAccelerated = errors.New("aabb: distance queries already accelerated")

	// ErrUnknownOwner is returned when a reference point names a primitive
	// that is not in the tree.
	ErrUnknownOwner = errors.New("aabb: reference point owner not in tree")

	// ErrHintNotOnPrimitive is returned by ClosestPointAndPrimitive when a
	// point-only hint is nearer than every primitive, so no primitive ID can
	// be reported.
	ErrHintNotOnPrimitive = errors.New("aabb: hint point is closer than every primitive")
)
