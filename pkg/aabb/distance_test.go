package aabb

import (
	"math/rand"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/chazu/burl/pkg/geom"
)

func TestDistanceEmptyTree(t *testing.T) {
	tree := mustNew(t, nil)
	var zero Tree[int]

	for _, tr := range []*Tree[int]{tree, &zero} {
		_, err := tr.SquaredDistance(v3.Vec{})
		test.That(t, errors.Is(err, ErrEmptyTree), test.ShouldBeTrue)
		_, err = tr.ClosestPoint(v3.Vec{})
		test.That(t, errors.Is(err, ErrEmptyTree), test.ShouldBeTrue)
		_, err = tr.ClosestPointAndPrimitive(v3.Vec{}, WithHintPoint[int](v3.Vec{X: 1}))
		test.That(t, errors.Is(err, ErrEmptyTree), test.ShouldBeTrue)
	}
}

func TestDistanceSingleTriangle(t *testing.T) {
	tree := mustNew(t, []Primitive[int]{triPrim{id: 7, tri: unitTri()}})

	tests := []struct {
		name  string
		query v3.Vec
		want  v3.Vec
		d2    float64
	}{
		{"above vertex", v3.Vec{Z: 1}, v3.Vec{}, 1},
		{"above face", v3.Vec{X: 0.25, Y: 0.25, Z: -2}, v3.Vec{X: 0.25, Y: 0.25}, 4},
		{"beside hypotenuse", v3.Vec{X: 1, Y: 1}, v3.Vec{X: 0.5, Y: 0.5}, 0.5},
		{"on the face", v3.Vec{X: 0.1, Y: 0.1}, v3.Vec{X: 0.1, Y: 0.1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d2, err := tree.SquaredDistance(tt.query)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, d2, test.ShouldAlmostEqual, tt.d2)

			pid, err := tree.ClosestPointAndPrimitive(tt.query)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, pid.ID, test.ShouldEqual, 7)
			test.That(t, pid.Point.Sub(tt.want).Length(), test.ShouldAlmostEqual, 0)
		})
	}
}

func TestDistanceAgainstBruteForce(t *testing.T) {
	prims := randomTriangles(41, 400)
	tree := mustNew(t, prims)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		p := randVec(rng, 14)
		want := bruteSquaredDistance(prims, p)

		d2, err := tree.SquaredDistance(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d2, test.ShouldAlmostEqual, want, 1e-9)

		pid, err := tree.ClosestPointAndPrimitive(p)
		test.That(t, err, test.ShouldBeNil)
		onPrim := prims[pid.ID].Object().ClosestPoint(pid.Point)
		test.That(t, onPrim.Sub(pid.Point).Length(), test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, pid.Point.Sub(p).Length2(), test.ShouldAlmostEqual, want, 1e-9)

		c, err := tree.ClosestPoint(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c, test.ShouldResemble, pid.Point)
	}
}

func TestDistanceHintEquivalence(t *testing.T) {
	prims := randomTriangles(51, 300)
	tree := mustNew(t, prims)
	rng := rand.New(rand.NewSource(52))

	for i := 0; i < 100; i++ {
		p := randVec(rng, 14)
		want, err := tree.SquaredDistance(p)
		test.That(t, err, test.ShouldBeNil)

		k := rng.Intn(len(prims))
		onK := prims[k].Object().ClosestPoint(randVec(rng, 14))

		hints := []QueryOption[int]{
			WithHintID(k),
			WithHint(PointAndID[int]{Point: onK, ID: k}),
			WithHintPoint[int](onK),
			WithHintPoint[int](prims[k].Object().ReferencePoint()),
			WithHintID(-1),
			WithoutAccelerator[int](),
		}
		for _, hint := range hints {
			got, err := tree.SquaredDistance(p, hint)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got, test.ShouldAlmostEqual, want, 1e-9)
		}

		pid, err := tree.ClosestPointAndPrimitive(p, WithHintPoint[int](onK))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pid.Point.Sub(p).Length2(), test.ShouldAlmostEqual, want, 1e-9)
	}
}

func TestDistanceHintPointOffPrimitives(t *testing.T) {
	tree := mustNew(t, []Primitive[int]{triPrim{id: 1, tri: unitTri()}})
	q := v3.Vec{X: 0.25, Y: 0.25, Z: 5}
	hint := v3.Vec{X: 0.25, Y: 0.25, Z: 4}

	d2, err := tree.SquaredDistance(q, WithHintPoint[int](hint))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d2, test.ShouldAlmostEqual, 1)

	c, err := tree.ClosestPoint(q, WithHintPoint[int](hint))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, hint)

	_, err = tree.ClosestPointAndPrimitive(q, WithHintPoint[int](hint))
	test.That(t, errors.Is(err, ErrHintNotOnPrimitive), test.ShouldBeTrue)
}

func TestDistanceIdempotent(t *testing.T) {
	tree := mustNew(t, randomTriangles(61, 150))
	rng := rand.New(rand.NewSource(62))
	for i := 0; i < 30; i++ {
		p := randVec(rng, 12)
		a, err := tree.ClosestPointAndPrimitive(p)
		test.That(t, err, test.ShouldBeNil)
		b, err := tree.ClosestPointAndPrimitive(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, b, test.ShouldResemble, a)
	}
}

func TestDistanceSegmentsAndPoints(t *testing.T) {
	prims := []Primitive[string]{
		strPrim{id: "seg", shape: geom.NewSegment(v3.Vec{X: -1}, v3.Vec{X: 1})},
		strPrim{id: "pt", shape: geom.Point{P: v3.Vec{Y: 3}}},
	}
	tree, err := New(prims)
	test.That(t, err, test.ShouldBeNil)

	pid, err := tree.ClosestPointAndPrimitive(v3.Vec{X: 5, Y: 0.5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pid.ID, test.ShouldEqual, "seg")
	test.That(t, pid.Point, test.ShouldResemble, v3.Vec{X: 1})

	pid, err = tree.ClosestPointAndPrimitive(v3.Vec{Y: 2.5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pid.ID, test.ShouldEqual, "pt")
}

type strPrim struct {
	id    string
	shape geom.Shape
}

func (p strPrim) ID() string         { return p.id }
func (p strPrim) Object() geom.Shape { return p.shape }
