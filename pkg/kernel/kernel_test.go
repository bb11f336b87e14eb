package kernel_test

import (
	"math"
	"testing"

	"github.com/chazu/burl/pkg/geom"
	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/kernel/sdfx"
)

// TestKernelMeshes drives a real backend through the Kernel interface and
// checks that every mesh it returns can be indexed facet by facet.
func TestKernelMeshes(t *testing.T) {
	var k kernel.Kernel = sdfx.NewWithCells(32)
	tests := []struct {
		name  string
		solid kernel.Solid
	}{
		{"box", k.Box(10, 20, 30)},
		{"sphere", k.Sphere(5)},
		{"cylinder", k.Cylinder(12, 3, 0)},
		{"moved union", k.Translate(k.Union(k.Box(4, 4, 4), k.Sphere(3)), 10, -5, 2)},
		{"rotated difference", k.Rotate(k.Difference(k.Box(8, 8, 8), k.Cylinder(10, 2, 0)), 0, 45, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := k.ToMesh(tt.solid)
			if err != nil {
				t.Fatalf("ToMesh() error = %v", err)
			}
			if m.IsEmpty() || m.TriangleCount() == 0 {
				t.Fatal("ToMesh() returned an empty mesh")
			}
			if len(m.Indices) != 3*m.TriangleCount() || len(m.Vertices) != 3*m.VertexCount() {
				t.Fatalf("counts disagree with arrays: %d triangles, %d vertices", m.TriangleCount(), m.VertexCount())
			}

			lo, hi := tt.solid.BoundingBox()
			size := math.Max(hi[0]-lo[0], math.Max(hi[1]-lo[1], hi[2]-lo[2]))
			slack := size / 16
			solidBox := geom.Box{}
			solidBox.Min.X, solidBox.Min.Y, solidBox.Min.Z = lo[0]-slack, lo[1]-slack, lo[2]-slack
			solidBox.Max.X, solidBox.Max.Y, solidBox.Max.Z = hi[0]+slack, hi[1]+slack, hi[2]+slack

			if !solidBox.Contains(m.Bounds()) {
				t.Errorf("mesh bounds %v escape solid bounds %v", m.Bounds(), solidBox)
			}
			for i := 0; i < m.TriangleCount(); i++ {
				for _, v := range m.Facet(i) {
					if int(v) >= m.VertexCount() {
						t.Fatalf("facet %d references vertex %d of %d", i, v, m.VertexCount())
					}
				}
				if tri := m.Triangle(i); !m.Bounds().Contains(tri.BoundingBox()) {
					t.Fatalf("triangle %d %+v lies outside the mesh bounds", i, tri)
				}
			}
		})
	}
}

func TestMeshCounts(t *testing.T) {
	// A fan of n triangles around vertex 0 has n+2 vertices.
	fan := func(n int) *kernel.Mesh {
		m := &kernel.Mesh{}
		for i := 0; i < n+2; i++ {
			a := float64(i) * math.Pi / float64(n+2)
			m.Vertices = append(m.Vertices, float32(math.Cos(a)), float32(math.Sin(a)), 0)
		}
		for i := 1; i <= n; i++ {
			m.Indices = append(m.Indices, 0, uint32(i), uint32(i+1))
		}
		return m
	}
	tests := []struct {
		name      string
		mesh      *kernel.Mesh
		vertices  int
		triangles int
		empty     bool
	}{
		{"zero value", &kernel.Mesh{}, 0, 0, true},
		{"lone vertex", &kernel.Mesh{Vertices: []float32{1, 2, 3}}, 1, 0, false},
		{"one triangle", fan(1), 3, 1, false},
		{"fan of five", fan(5), 7, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mesh.VertexCount(); got != tt.vertices {
				t.Errorf("VertexCount() = %d, want %d", got, tt.vertices)
			}
			if got := tt.mesh.TriangleCount(); got != tt.triangles {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.triangles)
			}
			if got := tt.mesh.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %t, want %t", got, tt.empty)
			}
		})
	}
}
