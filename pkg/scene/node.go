package scene

// NodeKind enumerates the types of nodes in the scene graph.
type NodeKind int

const (
	NodeSolid     NodeKind = iota // primitive solid (box, cylinder, sphere)
	NodeTransform                 // translation and rotation of one child
	NodeBoolean                   // union, difference or intersection
	NodePart                      // named root that becomes one mesh
)

func (k NodeKind) String() string {
	switch k {
	case NodeSolid:
		return "solid"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodePart:
		return "part"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the scene graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
