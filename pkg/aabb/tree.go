package aabb

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/burl/pkg/geom"
)

// node is one entry of the node arena. Internal nodes have prim == -1 and
// two children; leaves hold exactly one primitive and that primitive's box.
type node struct {
	box   geom.Box
	left  int32
	right int32
	prim  int32
}

func (n *node) leaf() bool { return n.prim >= 0 }

// Tree is a static AABB tree over primitives identified by ID. The zero
// value is a valid empty tree.
type Tree[ID comparable] struct {
	prims   []Primitive[ID]
	boxes   []geom.Box
	objects []geom.Shape // nil unless built WithObjectCache(true)
	nodes   []node       // root at 0, 2n-1 entries for n primitives
	byID    map[ID]int
	depth   int

	accel     pointIndex[ID]
	indexKind IndexKind
	logger    *zap.Logger
}

// buildItem is a pending range of the primitive order to be turned into
// the node at index node.
type buildItem struct {
	lo, hi int
	node   int32
	depth  int
}

// New builds a tree over prims. The slice is not retained but the
// primitives are. On failure New returns an empty tree and the error.
func New[ID comparable](prims []Primitive[ID], opts ...Option) (*Tree[ID], error) {
	o := options{logger: zap.NewNop(), index: KDTreeIndex}
	for _, opt := range opts {
		opt(&o)
	}
	empty := &Tree[ID]{indexKind: o.index, logger: o.logger}
	if len(prims) == 0 {
		return empty, nil
	}
	if int64(len(prims)) > math.MaxInt32/2 {
		return empty, errors.Wrapf(ErrInvalidPrimitive, "%d primitives exceed the node arena", len(prims))
	}

	start := time.Now()
	n := len(prims)
	t := &Tree[ID]{
		prims:     slices.Clone(prims),
		boxes:     make([]geom.Box, n),
		byID:      make(map[ID]int, n),
		indexKind: o.index,
		logger:    o.logger,
	}
	if o.cacheObjects {
		t.objects = make([]geom.Shape, n)
	}
	centroids := make([][3]float64, n)
	for i, p := range t.prims {
		if p == nil {
			return empty, errors.Wrapf(ErrInvalidPrimitive, "primitive %d is nil", i)
		}
		obj := p.Object()
		if obj == nil {
			return empty, errors.Wrapf(ErrInvalidPrimitive, "primitive %d has no object", i)
		}
		b := obj.BoundingBox()
		if !finiteBox(b) {
			return empty, errors.Wrapf(ErrInvalidPrimitive, "primitive %d has box %v", i, b)
		}
		t.boxes[i] = b
		if t.objects != nil {
			t.objects[i] = obj
		}
		c := b.Centroid()
		centroids[i] = [3]float64{c.X, c.Y, c.Z}
		if _, dup := t.byID[p.ID()]; !dup {
			t.byID[p.ID()] = i
		}
	}

	order := make([]int32, n)
	for i := range order {
		order[i] = int32(i)
	}
	t.nodes = make([]node, 1, 2*n-1)
	stack := []buildItem{{lo: 0, hi: n, node: 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		span := order[it.lo:it.hi]

		box := geom.EmptyBox()
		for _, pi := range span {
			box = box.Union(t.boxes[pi])
		}
		if len(span) == 1 {
			t.nodes[it.node] = node{box: box, left: -1, right: -1, prim: span[0]}
			t.depth = max(t.depth, it.depth)
			continue
		}

		axis := box.LongestAxis()
		slices.SortStableFunc(span, func(a, b int32) int {
			if c := cmp.Compare(centroids[a][axis], centroids[b][axis]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})

		mid := it.lo + (it.hi-it.lo)/2
		left := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{}, node{})
		t.nodes[it.node] = node{box: box, left: left, right: left + 1, prim: -1}
		stack = append(stack,
			buildItem{lo: mid, hi: it.hi, node: left + 1, depth: it.depth + 1},
			buildItem{lo: it.lo, hi: mid, node: left, depth: it.depth + 1},
		)
	}

	t.log().Debug("aabb tree built",
		zap.Int("primitives", n),
		zap.Int("nodes", len(t.nodes)),
		zap.Int("depth", t.depth),
		zap.Bool("object_cache", t.objects != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	return t, nil
}

func finiteBox(b geom.Box) bool {
	for _, v := range []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Size returns the number of primitives in the tree.
func (t *Tree[ID]) Size() int { return len(t.prims) }

// Empty reports whether the tree has no primitives.
func (t *Tree[ID]) Empty() bool { return len(t.prims) == 0 }

// BBox returns the box of the root, or geom.EmptyBox() for an empty tree.
func (t *Tree[ID]) BBox() geom.Box {
	if len(t.nodes) == 0 {
		return geom.EmptyBox()
	}
	return t.nodes[0].box
}

// Depth returns the number of edges on the longest root to leaf path.
func (t *Tree[ID]) Depth() int { return t.depth }

// Primitive returns the primitive with the given ID. When several
// primitives share an ID the first one in build order is returned.
func (t *Tree[ID]) Primitive(id ID) (Primitive[ID], bool) {
	i, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return t.prims[i], true
}

// object returns the realized shape of primitive i.
func (t *Tree[ID]) object(i int) geom.Shape {
	if t.objects != nil {
		return t.objects[i]
	}
	return t.prims[i].Object()
}

func (t *Tree[ID]) log() *zap.Logger {
	if t.logger == nil {
		return zap.NewNop()
	}
	return t.logger
}
