package scene

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID  NodeID // which node has the problem (zero if scene-level)
	Message string
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("node %s: %s", e.NodeID.Short(), e.Message)
}

func finding(id NodeID, format string, args ...any) error {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...)}
}

// Validate runs all structural checks on the scene and returns every
// finding combined into one error, or nil if the scene is valid. Use
// multierr.Errors to split the result. Validate never mutates the scene.
func Validate(s *Scene) error {
	return multierr.Combine(
		validateDAG(s),
		validateReferences(s),
		validateRoots(s),
		validateNames(s),
		validateArity(s),
		validateSolids(s),
	)
}

// sortedIDs returns the scene's node IDs in a stable order so findings are
// reported deterministically.
func sortedIDs(s *Scene) []NodeID {
	ids := lo.Keys(s.Nodes)
	slices.Sort(ids)
	return ids
}

// validateDAG checks for cycles using DFS with 3-color marking. One cycle
// finding is enough.
func validateDAG(s *Scene) error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var err error

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			err = finding(id, "cycle detected: node %s is part of a cycle", id.Short())
			return true
		}
		color[id] = gray
		node, ok := s.Nodes[id]
		if !ok {
			// Dangling; reported by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range sortedIDs(s) {
		if color[id] == white && visit(id) {
			break
		}
	}
	return err
}

// validateReferences checks that every child ID points to an existing node.
func validateReferences(s *Scene) error {
	var err error
	for _, id := range sortedIDs(s) {
		for _, childID := range s.Nodes[id].Children {
			if _, ok := s.Nodes[childID]; !ok {
				err = multierr.Append(err, finding(id, "child reference %s does not exist", childID.Short()))
			}
		}
	}
	return err
}

// validateRoots checks that every root exists and is a part, and that parts
// only appear as roots.
func validateRoots(s *Scene) error {
	var err error
	for _, rid := range s.Roots {
		n, ok := s.Nodes[rid]
		switch {
		case !ok:
			err = multierr.Append(err, finding(ZeroID, "root reference %s does not exist", rid.Short()))
		case n.Kind != NodePart:
			err = multierr.Append(err, finding(rid, "root is %s, not part", n.Kind))
		}
	}

	for _, id := range sortedIDs(s) {
		for _, childID := range s.Nodes[id].Children {
			if c, ok := s.Nodes[childID]; ok && c.Kind == NodePart {
				err = multierr.Append(err, finding(id, "part %q cannot be used as a child", c.Name))
			}
		}
	}
	return err
}

// validateNames checks that every part has a unique non-empty name and that
// the name index points at existing nodes.
func validateNames(s *Scene) error {
	var err error
	for name, id := range s.NameIndex {
		if _, ok := s.Nodes[id]; !ok {
			err = multierr.Append(err, finding(ZeroID, "name index entry %q references non-existent node %s", name, id.Short()))
		}
	}

	parts := lo.Filter(lo.Values(s.Nodes), func(n *Node, _ int) bool { return n.Kind == NodePart })
	byName := lo.GroupBy(parts, func(n *Node) string { return n.Name })
	names := lo.Keys(byName)
	slices.Sort(names)
	for _, name := range names {
		group := byName[name]
		if name == "" {
			for _, n := range group {
				err = multierr.Append(err, finding(n.ID, "part has no name"))
			}
			continue
		}
		if len(group) > 1 {
			err = multierr.Append(err, finding(ZeroID, "duplicate part name %q assigned to %d nodes", name, len(group)))
		}
	}
	return err
}

// validateArity checks each node's child count and payload type against its
// kind.
func validateArity(s *Scene) error {
	var err error
	for _, id := range sortedIDs(s) {
		n := s.Nodes[id]
		want := ""
		ok := true
		switch n.Kind {
		case NodeSolid:
			_, ok = n.Data.(SolidData)
			if len(n.Children) != 0 {
				want = "no children"
			}
		case NodeTransform:
			_, ok = n.Data.(TransformData)
			if len(n.Children) != 1 {
				want = "exactly one child"
			}
		case NodeBoolean:
			_, ok = n.Data.(BooleanData)
			if len(n.Children) < 2 {
				want = "at least two children"
			}
		case NodePart:
			_, ok = n.Data.(PartData)
			if len(n.Children) != 1 {
				want = "exactly one child"
			}
		default:
			err = multierr.Append(err, finding(id, "unknown node kind %d", int(n.Kind)))
			continue
		}
		if !ok {
			err = multierr.Append(err, finding(id, "%s node has unexpected data type %T", n.Kind, n.Data))
		}
		if want != "" {
			err = multierr.Append(err, finding(id, "%s node needs %s, has %d", n.Kind, want, len(n.Children)))
		}
	}
	return err
}

// validateSolids checks that every primitive has positive dimensions.
func validateSolids(s *Scene) error {
	var err error
	for _, id := range sortedIDs(s) {
		sd, ok := s.Nodes[id].Data.(SolidData)
		if !ok {
			continue
		}
		var dims []float64
		switch sd.Shape {
		case SolidBox:
			dims = []float64{sd.Size.X, sd.Size.Y, sd.Size.Z}
		case SolidCylinder:
			dims = []float64{sd.Height, sd.Radius}
		case SolidSphere:
			dims = []float64{sd.Radius}
		default:
			err = multierr.Append(err, finding(id, "unknown solid shape %d", int(sd.Shape)))
			continue
		}
		// !(d > 0) also rejects NaN.
		if lo.SomeBy(dims, func(d float64) bool { return !(d > 0) }) {
			err = multierr.Append(err, finding(id, "%s has non-positive dimensions %v", sd.Shape, dims))
		}
	}
	return err
}
