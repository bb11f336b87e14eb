// Package tessellate walks a scene and produces triangle meshes using a
// geometry kernel. One mesh is produced per part.
package tessellate

import (
	"github.com/pkg/errors"

	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/scene"
)

// DefaultSegments is the cylinder resolution passed to the kernel. Smooth
// kernels ignore it.
const DefaultSegments = 32

// Tessellate builds each part's solid with k and meshes it, returning one
// mesh per part in declaration order with PartName set. Solids shared
// between parts are built once. The scene is never mutated.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	w := &walker{s: s, k: k, built: make(map[scene.NodeID]kernel.Solid), active: make(map[scene.NodeID]bool)}
	var meshes []*kernel.Mesh
	for _, p := range s.Parts() {
		children := s.Children(p)
		if len(children) != 1 {
			return nil, errors.Errorf("tessellate: part %q has %d solids, want 1", p.Name, len(children))
		}
		solid, err := w.solid(children[0])
		if err != nil {
			return nil, errors.Wrapf(err, "tessellate: part %q", p.Name)
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, errors.Wrapf(err, "tessellate: ToMesh failed for part %q", p.Name)
		}
		mesh.PartName = p.Name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// walker builds kernel solids bottom-up, memoizing shared subtrees.
type walker struct {
	s      *scene.Scene
	k      kernel.Kernel
	built  map[scene.NodeID]kernel.Solid
	active map[scene.NodeID]bool
}

func (w *walker) solid(n *scene.Node) (kernel.Solid, error) {
	if s, ok := w.built[n.ID]; ok {
		return s, nil
	}
	if w.active[n.ID] {
		return nil, errors.Errorf("cycle through node %s", n.ID.Short())
	}
	w.active[n.ID] = true
	defer delete(w.active, n.ID)

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case scene.NodeSolid:
		s, err = w.primitive(n)
	case scene.NodeTransform:
		s, err = w.transform(n)
	case scene.NodeBoolean:
		s, err = w.boolean(n)
	default:
		err = errors.Errorf("node %s: %s cannot be used as a solid", n.ID.Short(), n.Kind)
	}
	if err != nil {
		return nil, err
	}
	w.built[n.ID] = s
	return s, nil
}

func (w *walker) children(n *scene.Node) ([]kernel.Solid, error) {
	if len(w.s.Children(n)) != len(n.Children) {
		return nil, errors.Errorf("node %s has dangling children", n.ID.Short())
	}
	solids := make([]kernel.Solid, 0, len(n.Children))
	for _, c := range w.s.Children(n) {
		s, err := w.solid(c)
		if err != nil {
			return nil, err
		}
		solids = append(solids, s)
	}
	return solids, nil
}

// primitive creates geometry for a solid node.
func (w *walker) primitive(n *scene.Node) (kernel.Solid, error) {
	data, ok := n.Data.(scene.SolidData)
	if !ok {
		return nil, errors.Errorf("solid node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	switch data.Shape {
	case scene.SolidBox:
		return w.k.Box(data.Size.X, data.Size.Y, data.Size.Z), nil
	case scene.SolidCylinder:
		return w.k.Cylinder(data.Height, data.Radius, DefaultSegments), nil
	case scene.SolidSphere:
		return w.k.Sphere(data.Radius), nil
	}
	return nil, errors.Errorf("solid node %s has unknown shape %s", n.ID.Short(), data.Shape)
}

// transform rotates its child first, then translates it. A chain of plain
// translations reaches the kernel as a single translation.
func (w *walker) transform(n *scene.Node) (kernel.Solid, error) {
	td, ok := n.Data.(scene.TransformData)
	if !ok {
		return nil, errors.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	if offset, ok := translationOnly(n); ok {
		seen := map[scene.NodeID]bool{n.ID: true}
		for {
			inner := w.s.Get(n.Children[0])
			if inner == nil || seen[inner.ID] {
				break
			}
			seen[inner.ID] = true
			by, ok := translationOnly(inner)
			if !ok {
				break
			}
			offset = offset.Add(by)
			n = inner
		}
		td = scene.TransformData{Translation: &offset}
	}
	children, err := w.children(n)
	if err != nil {
		return nil, err
	}
	if len(children) != 1 {
		return nil, errors.Errorf("transform node %s has %d children, want 1", n.ID.Short(), len(children))
	}

	s := children[0]
	if r := td.Rotation; r != nil && !r.IsZero() {
		s = w.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && !t.IsZero() {
		s = w.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s, nil
}

// translationOnly returns the offset of a transform node that translates a
// single child without rotating it.
func translationOnly(n *scene.Node) (scene.Vec3, bool) {
	td, ok := n.Data.(scene.TransformData)
	if !ok || n.Kind != scene.NodeTransform || len(n.Children) != 1 || td.Translation == nil {
		return scene.Vec3{}, false
	}
	if td.Rotation != nil && !td.Rotation.IsZero() {
		return scene.Vec3{}, false
	}
	return *td.Translation, true
}

// boolean folds the children left to right.
func (w *walker) boolean(n *scene.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(scene.BooleanData)
	if !ok {
		return nil, errors.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	children, err := w.children(n)
	if err != nil {
		return nil, err
	}
	if len(children) < 2 {
		return nil, errors.Errorf("boolean node %s has %d children, want at least 2", n.ID.Short(), len(children))
	}

	var op func(a, b kernel.Solid) kernel.Solid
	switch bd.Op {
	case scene.OpUnion:
		op = w.k.Union
	case scene.OpDifference:
		op = w.k.Difference
	case scene.OpIntersection:
		op = w.k.Intersection
	default:
		return nil, errors.Errorf("boolean node %s has unknown op %s", n.ID.Short(), bd.Op)
	}

	acc := children[0]
	for _, c := range children[1:] {
		acc = op(acc, c)
	}
	return acc, nil
}
