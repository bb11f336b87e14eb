// Package primitive adapts kernel meshes to aabb primitives: triangles from
// facets, segments from edges and points from vertices. Each adapter keeps a
// pointer to its mesh and realizes geometry on demand, so a mesh must not
// change while a tree over it exists.
package primitive

import (
	"github.com/samber/lo"

	"github.com/chazu/burl/pkg/aabb"
	"github.com/chazu/burl/pkg/geom"
	"github.com/chazu/burl/pkg/kernel"
)

// Compile-time interface checks.
var (
	_ aabb.Primitive[FacetID]  = Facet{}
	_ aabb.Primitive[EdgeID]   = Edge{}
	_ aabb.Primitive[VertexID] = Vertex{}
)

// FacetID is the index of a triangle in its mesh.
type FacetID int

// Facet is one triangle of a mesh.
type Facet struct {
	mesh *kernel.Mesh
	id   FacetID
}

// NewFacet returns the primitive for triangle id of m.
func NewFacet(m *kernel.Mesh, id FacetID) Facet {
	return Facet{mesh: m, id: id}
}

// ID implements aabb.Primitive.
func (f Facet) ID() FacetID { return f.id }

// Object implements aabb.Primitive.
func (f Facet) Object() geom.Shape { return f.mesh.Triangle(int(f.id)) }

// Facets returns one primitive per triangle of m.
func Facets(m *kernel.Mesh) []aabb.Primitive[FacetID] {
	return lo.Times(m.TriangleCount(), func(i int) aabb.Primitive[FacetID] {
		return Facet{mesh: m, id: FacetID(i)}
	})
}

// EdgeID names an undirected mesh edge by its vertex indices, A < B.
type EdgeID struct {
	A, B uint32
}

// Edge is one edge of a mesh.
type Edge struct {
	mesh *kernel.Mesh
	id   EdgeID
}

// ID implements aabb.Primitive.
func (e Edge) ID() EdgeID { return e.id }

// Object implements aabb.Primitive.
func (e Edge) Object() geom.Shape {
	return geom.NewSegment(e.mesh.Vertex(int(e.id.A)), e.mesh.Vertex(int(e.id.B)))
}

// Edges returns one primitive per unique edge of m.
func Edges(m *kernel.Mesh) []aabb.Primitive[EdgeID] {
	return lo.Map(m.Edges(), func(e [2]uint32, _ int) aabb.Primitive[EdgeID] {
		return Edge{mesh: m, id: EdgeID{A: e[0], B: e[1]}}
	})
}

// VertexID is the index of a vertex in its mesh.
type VertexID uint32

// Vertex is one vertex of a mesh, used as a point primitive.
type Vertex struct {
	mesh *kernel.Mesh
	id   VertexID
}

// ID implements aabb.Primitive.
func (v Vertex) ID() VertexID { return v.id }

// Object implements aabb.Primitive.
func (v Vertex) Object() geom.Shape { return geom.Point{P: v.mesh.Vertex(int(v.id))} }

// Vertices returns one primitive per vertex of m.
func Vertices(m *kernel.Mesh) []aabb.Primitive[VertexID] {
	return lo.Times(m.VertexCount(), func(i int) aabb.Primitive[VertexID] {
		return Vertex{mesh: m, id: VertexID(i)}
	})
}
