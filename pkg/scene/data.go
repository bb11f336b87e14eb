package scene

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

// SolidKind distinguishes between primitive solids.
type SolidKind int

const (
	SolidBox      SolidKind = iota // axis-aligned box centered on the origin
	SolidCylinder                  // cylinder along Z centered on the origin
	SolidSphere                    // sphere centered on the origin
)

func (k SolidKind) String() string {
	switch k {
	case SolidBox:
		return "box"
	case SolidCylinder:
		return "cylinder"
	case SolidSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// SolidData describes a primitive solid. Size is used by boxes, Height and
// Radius by cylinders, Radius by spheres.
type SolidData struct {
	Shape  SolidKind `json:"shape"`
	Size   Vec3      `json:"size,omitempty"`
	Height float64   `json:"height,omitempty"`
	Radius float64   `json:"radius,omitempty"`
}

func (SolidData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData moves its single child. Rotation is applied before
// translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp enumerates the constructive solid geometry operations.
type BooleanOp int

const (
	OpUnion BooleanOp = iota
	OpDifference
	OpIntersection
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// BooleanData combines the node's children left to right with Op. For a
// difference every child after the first is subtracted from the first.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Part
// ---------------------------------------------------------------------------

// PartData marks a named root. Its single child is the part's solid.
type PartData struct {
	Description string `json:"description,omitempty"`
}

func (PartData) nodeData() {}
