package main

import (
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/burl/pkg/aabb"
	"github.com/chazu/burl/pkg/geom"
	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/primitive"
)

// ErrZeroDirection is returned for ray queries without a direction.
var ErrZeroDirection = errors.New("ray direction must be non-zero")

// IndexOptions configures NewIndex.
type IndexOptions struct {
	Primitives string // PrimitivesFacets or PrimitivesEdges
	Accelerate bool
	Kind       aabb.IndexKind
	Logger     *zap.Logger
}

// Closest is the answer to a closest point query.
type Closest struct {
	Point    v3.Vec  `json:"point"`
	Distance float64 `json:"distance"`
	Part     string  `json:"part"`
}

// Hit is the first surface a ray meets.
type Hit struct {
	Point    v3.Vec  `json:"point"`
	Distance float64 `json:"distance"` // along the ray, in scene units
	Part     string  `json:"part"`
	Grazing  bool    `json:"grazing"` // the ray runs along the primitive
}

// IndexStats describes a built index.
type IndexStats struct {
	Parts       []string      `json:"parts"`
	Primitives  string        `json:"primitives"`
	Size        int           `json:"size"`
	Depth       int           `json:"depth"`
	Triangles   int           `json:"triangles"`
	Vertices    int           `json:"vertices"`
	Accelerated bool          `json:"accelerated"`
	Index       string        `json:"index"`
	BBox        geom.Box      `json:"bbox"`
	BuildTime   time.Duration `json:"buildTime"`
}

// Index answers geometric queries over the meshes of a scene, resolving
// every answer to the part it came from.
type Index struct {
	mesh  *kernel.Mesh
	parts []string
	tree  spatial
	stats IndexStats
}

// spatial hides the primitive ID type of the underlying tree.
type spatial interface {
	closest(p v3.Vec, accel bool) (v3.Vec, int, error)
	first(r geom.Ray) (geom.Intersection, float64, int, bool)
	crossed(q geom.Query) []int
	size() int
	depth() int
	bbox() geom.Box
	accelerated() bool
}

// tree adapts an aabb.Tree, mapping primitive IDs to part indices.
type tree[ID comparable] struct {
	t    *aabb.Tree[ID]
	part func(ID) int
}

func (s tree[ID]) closest(p v3.Vec, accel bool) (v3.Vec, int, error) {
	var opts []aabb.QueryOption[ID]
	if !accel {
		opts = append(opts, aabb.WithoutAccelerator[ID]())
	}
	r, err := s.t.ClosestPointAndPrimitive(p, opts...)
	if err != nil {
		return v3.Vec{}, -1, err
	}
	return r.Point, s.part(r.ID), nil
}

func (s tree[ID]) first(r geom.Ray) (geom.Intersection, float64, int, bool) {
	hit, t, ok := s.t.FirstIntersection(r)
	if !ok {
		return geom.Intersection{}, 0, -1, false
	}
	return hit.Object, t, s.part(hit.ID), true
}

func (s tree[ID]) crossed(q geom.Query) []int {
	var parts []int
	for id := range s.t.AllIntersectedPrimitives(q) {
		parts = append(parts, s.part(id))
	}
	return parts
}

func (s tree[ID]) size() int         { return s.t.Size() }
func (s tree[ID]) depth() int        { return s.t.Depth() }
func (s tree[ID]) bbox() geom.Box    { return s.t.BBox() }
func (s tree[ID]) accelerated() bool { return s.t.Accelerated() }

// NewIndex merges meshes and builds a tree over their facets or edges.
func NewIndex(meshes []*kernel.Mesh, opts IndexOptions) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	mesh, facetOffsets := kernel.Merge(meshes...)
	vertexOffsets := make([]int, len(meshes))
	for i := 1; i < len(meshes); i++ {
		vertexOffsets[i] = vertexOffsets[i-1] + meshes[i-1].VertexCount()
	}
	treeOpts := []aabb.Option{aabb.WithLogger(logger), aabb.WithAcceleratorIndex(opts.Kind)}

	var (
		s   spatial
		err error
	)
	switch opts.Primitives {
	case PrimitivesFacets, "":
		s, err = buildTree(primitive.Facets(mesh), primitive.FacetPoints(mesh), opts.Accelerate, treeOpts,
			func(id primitive.FacetID) int { return kernel.PartOf(facetOffsets, int(id)) })
	case PrimitivesEdges:
		s, err = buildTree(primitive.Edges(mesh), primitive.EdgePoints(mesh), opts.Accelerate, treeOpts,
			func(id primitive.EdgeID) int { return kernel.PartOf(vertexOffsets, int(id.A)) })
	default:
		err = errors.Errorf("unknown primitive set %q", opts.Primitives)
	}
	if err != nil {
		return nil, err
	}

	idx := &Index{
		mesh:  mesh,
		parts: lo.Map(meshes, func(m *kernel.Mesh, _ int) string { return m.PartName }),
		tree:  s,
	}
	idx.stats = IndexStats{
		Parts:       idx.parts,
		Primitives:  lo.Ternary(opts.Primitives == "", PrimitivesFacets, opts.Primitives),
		Size:        s.size(),
		Depth:       s.depth(),
		Triangles:   mesh.TriangleCount(),
		Vertices:    mesh.VertexCount(),
		Accelerated: s.accelerated(),
		Index:       opts.Kind.String(),
		BBox:        s.bbox(),
		BuildTime:   time.Since(start),
	}
	logger.Info("built index",
		zap.Int("parts", len(idx.parts)),
		zap.String("primitives", idx.stats.Primitives),
		zap.Int("size", idx.stats.Size),
		zap.Int("depth", idx.stats.Depth),
		zap.Bool("accelerated", idx.stats.Accelerated),
		zap.Duration("elapsed", idx.stats.BuildTime))
	return idx, nil
}

func buildTree[ID comparable](
	prims []aabb.Primitive[ID],
	points []aabb.PointAndID[ID],
	accelerate bool,
	opts []aabb.Option,
	part func(ID) int,
) (spatial, error) {
	t, err := aabb.New(prims, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "building tree")
	}
	if accelerate {
		if err := t.AccelerateDistanceQueries(points); err != nil {
			return nil, errors.Wrap(err, "building accelerator")
		}
	}
	return tree[ID]{t: t, part: part}, nil
}

func (idx *Index) partName(i int) string {
	if i < 0 || i >= len(idx.parts) {
		return ""
	}
	return idx.parts[i]
}

// Closest returns the point of the scene surface nearest to p.
func (idx *Index) Closest(p v3.Vec) (Closest, error) {
	return idx.closest(p, true)
}

func (idx *Index) closest(p v3.Vec, accel bool) (Closest, error) {
	q, part, err := idx.tree.closest(p, accel)
	if err != nil {
		return Closest{}, err
	}
	return Closest{Point: q, Distance: q.Sub(p).Length(), Part: idx.partName(part)}, nil
}

// Cast returns the first surface point along the ray from origin in
// direction dir.
func (idx *Index) Cast(origin, dir v3.Vec) (Hit, bool, error) {
	if dir.Length2() == 0 {
		return Hit{}, false, ErrZeroDirection
	}
	in, t, part, ok := idx.tree.first(geom.RayFrom(origin, dir))
	if !ok {
		return Hit{}, false, nil
	}
	return Hit{
		Point:    in.P,
		Distance: t * dir.Length(),
		Part:     idx.partName(part),
		Grazing:  in.Kind == geom.SegmentHit,
	}, true, nil
}

// Hits returns how many primitives the ray from origin in direction dir
// crosses, and the distinct parts they belong to in traversal order.
func (idx *Index) Hits(origin, dir v3.Vec) (int, []string, error) {
	if dir.Length2() == 0 {
		return 0, nil, ErrZeroDirection
	}
	parts := idx.tree.crossed(geom.RayFrom(origin, dir))
	names := lo.Uniq(lo.Map(parts, func(i int, _ int) string { return idx.partName(i) }))
	return len(parts), names, nil
}

// Stats describes the index.
func (idx *Index) Stats() IndexStats {
	return idx.stats
}
