package kernel

import (
	"cmp"
	"math"
	"slices"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/burl/pkg/geom"
)

// Mesh is an indexed triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which scene part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

// Facet returns the vertex indices of triangle i.
func (m *Mesh) Facet(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// Triangle returns triangle i as geometry.
func (m *Mesh) Triangle(i int) geom.Triangle {
	f := m.Facet(i)
	return geom.Triangle{
		A: m.Vertex(int(f[0])),
		B: m.Vertex(int(f[1])),
		C: m.Vertex(int(f[2])),
	}
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh) Bounds() geom.Box {
	b := geom.EmptyBox()
	for i := 0; i < m.VertexCount(); i++ {
		b = b.Union(geom.BoxOf(m.Vertex(i)))
	}
	return b
}

// Edges returns every undirected edge of the mesh once, as an ordered
// vertex pair (a < b), sorted.
func (m *Mesh) Edges() [][2]uint32 {
	edges := make([][2]uint32, 0, len(m.Indices))
	for i := 0; i < m.TriangleCount(); i++ {
		f := m.Facet(i)
		for j := 0; j < 3; j++ {
			a, b := f[j], f[(j+1)%3]
			if a == b {
				continue
			}
			edges = append(edges, [2]uint32{min(a, b), max(a, b)})
		}
	}
	edges = lo.Uniq(edges)
	slices.SortFunc(edges, func(x, y [2]uint32) int {
		if c := cmp.Compare(x[0], y[0]); c != 0 {
			return c
		}
		return cmp.Compare(x[1], y[1])
	})
	return edges
}

// Weld merges vertices with bitwise-equal positions, drops triangles that
// collapse as a result and recomputes smooth vertex normals. Marching cubes
// emits a triangle soup; welding it makes adjacent facets share vertices
// and edges.
func (m *Mesh) Weld() {
	type key [3]float32
	remap := make([]uint32, m.VertexCount())
	seen := make(map[key]uint32, m.VertexCount())
	vertices := make([]float32, 0, len(m.Vertices))
	for i := range remap {
		k := key{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
		idx, ok := seen[k]
		if !ok {
			idx = uint32(len(vertices) / 3)
			seen[k] = idx
			vertices = append(vertices, k[0], k[1], k[2])
		}
		remap[i] = idx
	}

	indices := make([]uint32, 0, len(m.Indices))
	for i := 0; i < m.TriangleCount(); i++ {
		f := m.Facet(i)
		a, b, c := remap[f[0]], remap[f[1]], remap[f[2]]
		if a == b || b == c || a == c {
			continue
		}
		indices = append(indices, a, b, c)
	}

	m.Vertices = vertices
	m.Indices = indices
	m.computeNormals()
}

// computeNormals sets each vertex normal to the normalized sum of the
// area-weighted normals of the facets around it.
func (m *Mesh) computeNormals() {
	acc := make([]v3.Vec, m.VertexCount())
	for i := 0; i < m.TriangleCount(); i++ {
		n := m.Triangle(i).Normal()
		for _, vi := range m.Facet(i) {
			acc[vi] = acc[vi].Add(n)
		}
	}
	m.Normals = make([]float32, 0, len(m.Vertices))
	for _, n := range acc {
		if l := n.Length(); l > 0 && !math.IsInf(l, 0) {
			n = n.DivScalar(l)
		}
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
}

// Merge concatenates meshes into one. offsets[i] is the index of the first
// triangle of parts[i] in the merged mesh.
func Merge(parts ...*Mesh) (*Mesh, []int) {
	out := &Mesh{
		Vertices: make([]float32, 0, lo.SumBy(parts, func(p *Mesh) int { return len(p.Vertices) })),
		Normals:  make([]float32, 0, lo.SumBy(parts, func(p *Mesh) int { return len(p.Normals) })),
		Indices:  make([]uint32, 0, lo.SumBy(parts, func(p *Mesh) int { return len(p.Indices) })),
	}
	offsets := make([]int, len(parts))
	for i, p := range parts {
		offsets[i] = out.TriangleCount()
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, p.Vertices...)
		out.Normals = append(out.Normals, p.Normals...)
		for _, idx := range p.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out, offsets
}

// PartOf returns the index of the part that triangle facet came from, given
// the offsets returned by Merge.
func PartOf(offsets []int, facet int) int {
	return sort.Search(len(offsets), func(i int) bool { return offsets[i] > facet }) - 1
}
