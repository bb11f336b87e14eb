package primitive

import (
	"github.com/samber/lo"

	"github.com/chazu/burl/pkg/aabb"
	"github.com/chazu/burl/pkg/kernel"
)

// FacetPoints returns the reference points for a facet tree: every vertex
// used by a triangle, tagged with the first triangle that uses it.
func FacetPoints(m *kernel.Mesh) []aabb.PointAndID[FacetID] {
	owner := make([]int, m.VertexCount())
	for i := range owner {
		owner[i] = -1
	}
	for f := 0; f < m.TriangleCount(); f++ {
		for _, v := range m.Facet(f) {
			if owner[v] < 0 {
				owner[v] = f
			}
		}
	}

	points := make([]aabb.PointAndID[FacetID], 0, len(owner))
	for v, f := range owner {
		if f < 0 {
			continue
		}
		points = append(points, aabb.PointAndID[FacetID]{Point: m.Vertex(v), ID: FacetID(f)})
	}
	return points
}

// EdgePoints returns the reference points for an edge tree: the first
// endpoint of every edge.
func EdgePoints(m *kernel.Mesh) []aabb.PointAndID[EdgeID] {
	return lo.Map(m.Edges(), func(e [2]uint32, _ int) aabb.PointAndID[EdgeID] {
		return aabb.PointAndID[EdgeID]{Point: m.Vertex(int(e[0])), ID: EdgeID{A: e[0], B: e[1]}}
	})
}

// VertexPoints returns the reference points for a vertex tree: the vertices
// themselves.
func VertexPoints(m *kernel.Mesh) []aabb.PointAndID[VertexID] {
	return lo.Times(m.VertexCount(), func(i int) aabb.PointAndID[VertexID] {
		return aabb.PointAndID[VertexID]{Point: m.Vertex(i), ID: VertexID(i)}
	})
}
