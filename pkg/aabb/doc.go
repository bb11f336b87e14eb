// Package aabb implements a static bounding volume hierarchy of axis-aligned
// boxes over a set of primitives.
//
// A Tree is built once from a slice of primitives and is then read-only. It
// answers intersection queries against rays, lines and segments and distance
// queries against points. Distance queries may be warm-started with a hint, or
// by a secondary nearest-neighbour index over reference points built with
// AccelerateDistanceQueries.
//
// After construction, and after the optional accelerator build, a Tree is
// safe for concurrent use by multiple readers.
package aabb
