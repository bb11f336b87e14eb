package aabb

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// IndexKind selects the nearest-neighbour index behind the distance accelerator.
type IndexKind int

const (
	KDTreeIndex IndexKind = iota // gonum k-d tree
	RTreeIndex                   // rtreego R-tree over point rectangles
)

func (k IndexKind) String() string {
	switch k {
	case KDTreeIndex:
		return "kdtree"
	case RTreeIndex:
		return "rtree"
	default:
		return fmt.Sprintf("IndexKind(%d)", int(k))
	}
}

// ParseIndexKind maps "kdtree" or "rtree" to an IndexKind.
func ParseIndexKind(s string) (IndexKind, error) {
	switch s {
	case "", "kdtree":
		return KDTreeIndex, nil
	case "rtree":
		return RTreeIndex, nil
	default:
		return 0, errors.Errorf("aabb: unknown index kind %q", s)
	}
}

type options struct {
	logger       *zap.Logger
	cacheObjects bool
	index        IndexKind
}

// Option configures tree construction.
type Option func(*options)

// WithLogger sets the logger used for build and accelerator summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObjectCache keeps each primitive's realized object in the tree instead
// of calling Object on every primitive test.
func WithObjectCache(enabled bool) Option {
	return func(o *options) { o.cacheObjects = enabled }
}

// WithAcceleratorIndex selects the index used by AccelerateDistanceQueries.
func WithAcceleratorIndex(k IndexKind) Option {
	return func(o *options) { o.index = k }
}

type queryOptions[ID comparable] struct {
	hintID    ID
	hasHintID bool
	hintPoint v3.Vec
	hasHintPt bool
	noAccel   bool
}

// QueryOption configures a single distance query.
type QueryOption[ID comparable] func(*queryOptions[ID])

// WithHint warm-starts the query from a point known to lie on primitive h.ID.
func WithHint[ID comparable](h PointAndID[ID]) QueryOption[ID] {
	return func(o *queryOptions[ID]) {
		o.hintID, o.hasHintID = h.ID, true
		o.hintPoint, o.hasHintPt = h.Point, true
	}
}

// WithHintID warm-starts the query from primitive id.
func WithHintID[ID comparable](id ID) QueryOption[ID] {
	return func(o *queryOptions[ID]) {
		o.hintID, o.hasHintID = id, true
	}
}

// WithHintPoint warm-starts the query from a point assumed to lie on some
// primitive.
func WithHintPoint[ID comparable](p v3.Vec) QueryOption[ID] {
	return func(o *queryOptions[ID]) {
		o.hintPoint, o.hasHintPt = p, true
	}
}

// WithoutAccelerator makes the query ignore the distance accelerator.
func WithoutAccelerator[ID comparable]() QueryOption[ID] {
	return func(o *queryOptions[ID]) { o.noAccel = true }
}
