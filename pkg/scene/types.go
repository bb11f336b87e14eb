// Package scene defines the scene graph produced by evaluating a scene
// script: solids, transforms and boolean combinations gathered into named
// parts. A scene is immutable once evaluation finishes; each evaluation
// produces a new one.
package scene

import (
	"github.com/google/uuid"
)

// namespace scopes node IDs so that equal paths always hash to equal IDs.
var namespace = uuid.MustParse("6f1c2a1e-9b1d-5c43-8f0e-7d2b6c1a0b4e")

// NodeID identifies a node. IDs are derived from the node's path in the
// script, so re-evaluating the same source yields the same IDs.
type NodeID string

// ZeroID is the empty node ID.
const ZeroID NodeID = ""

// NewNodeID returns the ID for the node at path.
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)).String())
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == ZeroID }

// Short returns the first eight characters of the ID for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Vec3 is a 3D vector in scene units (mm).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}
