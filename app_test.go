package main

import (
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"

	"github.com/chazu/burl/pkg/aabb"
)

// testConfig meshes coarsely to keep the tests fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MeshCells = 48
	return cfg
}

const twoBalls = `
(part "left" (translate (sphere 10) :by (vec3 -20 0 0)))
(part "right" (translate (sphere 10) :by (vec3 20 0 0)))
`

func mustEvaluate(t *testing.T, app *App, source string) EvalResult {
	t.Helper()
	result := app.Evaluate(source)
	if !result.OK() {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	return result
}

func mustBuildIndex(t *testing.T, cfg Config, source string) *Index {
	t.Helper()
	idx, result := NewApp(cfg, nil).BuildIndex(source)
	if !result.OK() {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if idx == nil {
		t.Fatal("BuildIndex returned a nil index without errors")
	}
	return idx
}

// TestE2EExamples runs every example script through the full pipeline:
// source, engine, scene, tessellate, meshes.
func TestE2EExamples(t *testing.T) {
	tests := []struct {
		file  string
		parts []string
	}{
		{"examples/bracket.lisp", []string{"bracket", "pin"}},
		{"examples/capsule.lisp", []string{"capsule", "ball"}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			source, err := os.ReadFile(tt.file)
			if err != nil {
				t.Fatalf("failed to read %s: %v", tt.file, err)
			}
			result := mustEvaluate(t, NewApp(testConfig(), nil), string(source))
			if len(result.Meshes) != len(tt.parts) {
				t.Fatalf("expected %d meshes, got %d", len(tt.parts), len(result.Meshes))
			}
			for i, m := range result.Meshes {
				if m.PartName != tt.parts[i] {
					t.Errorf("mesh %d PartName = %q, want %q", i, m.PartName, tt.parts[i])
				}
				if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
					t.Errorf("part %q: empty geometry", m.PartName)
				}
				if len(m.Vertices) != len(m.Normals) {
					t.Errorf("part %q: %d vertex floats, %d normal floats", m.PartName, len(m.Vertices), len(m.Normals))
				}
				if m.Color != colorPalette[i] {
					t.Errorf("part %q: Color = %q, want %q", m.PartName, m.Color, colorPalette[i])
				}
			}
		})
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp(testConfig(), nil)
	for _, source := range []string{"", "  \n\t", ";; just a comment"} {
		result := app.Evaluate(source)
		if !result.OK() {
			t.Errorf("unexpected errors for %q: %v", source, result.Errors)
		}
		if len(result.Meshes) != 0 {
			t.Errorf("expected 0 meshes for %q, got %d", source, len(result.Meshes))
		}
		// Slices are non-nil so JSON serializes them as [].
		if result.Meshes == nil || result.Errors == nil {
			t.Errorf("result slices for %q should be non-nil", source)
		}
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp(testConfig(), nil)
	result := app.Evaluate("(+ 1 2)\n(part \"test\"")

	if result.OK() {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
}

func TestE2EScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"zero size box", `(part "p" (box 0 10 10))`, "box"},
		{"negative radius", `(part "p" (sphere -1))`, "sphere"},
		{"duplicate part", `(part "p" (sphere 1)) (part "p" (sphere 2))`, "already defined"},
		{"part as solid", `(def a (part "a" (sphere 1))) (part "b" (translate a :by (vec3 1 0 0)))`, "cannot be used as a solid"},
		{"undefined function", `(undefined-func 1 2 3)`, "undefined_func"},
	}
	app := NewApp(testConfig(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if result.OK() {
				t.Fatal("expected errors")
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
			}
			msgs := make([]string, len(result.Errors))
			for i, e := range result.Errors {
				msgs[i] = e.Message
			}
			if all := strings.Join(msgs, "\n"); !strings.Contains(all, tt.want) {
				t.Errorf("errors %q do not mention %q", all, tt.want)
			}
		})
	}
}

// TestE2ERapidEvaluation alternates valid and invalid sources on one App.
// The engine recovers cleanly between error and success states.
func TestE2ERapidEvaluation(t *testing.T) {
	app := NewApp(testConfig(), nil)
	sources := []struct {
		source string
		ok     bool
		meshes int
	}{
		{`(part "a" (sphere 5))`, true, 1},
		{`(part "broken"`, false, 0},
		{``, true, 0},
		{`(part "b" (box 10 20 5))`, true, 1},
		{`(+ 1 2)`, true, 0},
		{`(undefined-func 1 2 3)`, false, 0},
		{twoBalls, true, 2},
	}
	for i, s := range sources {
		result := app.Evaluate(s.source)
		if result.OK() != s.ok {
			t.Errorf("iteration %d: OK() = %t, want %t (errors %v)", i, result.OK(), s.ok, result.Errors)
		}
		if len(result.Meshes) != s.meshes {
			t.Errorf("iteration %d: got %d meshes, want %d", i, len(result.Meshes), s.meshes)
		}
	}
}

func TestE2EPaletteWraps(t *testing.T) {
	var b strings.Builder
	n := len(colorPalette) + 1
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "(part \"p%d\" (translate (sphere 2) :by (vec3 %d 0 0)))\n", i, i*10)
	}
	result := mustEvaluate(t, NewApp(testConfig(), nil), b.String())
	if len(result.Meshes) != n {
		t.Fatalf("expected %d meshes, got %d", n, len(result.Meshes))
	}
	if got := result.Meshes[n-1].Color; got != colorPalette[0] {
		t.Errorf("last Color = %q, want the palette to wrap to %q", got, colorPalette[0])
	}
}

func TestBuildIndexEvalError(t *testing.T) {
	idx, result := NewApp(testConfig(), nil).BuildIndex(`(part "p"`)
	if idx != nil {
		t.Error("expected nil index on eval error")
	}
	if result.OK() {
		t.Error("expected errors")
	}
}

func TestIndexClosest(t *testing.T) {
	idx := mustBuildIndex(t, testConfig(), twoBalls)
	tests := []struct {
		p    v3.Vec
		part string
		dist float64
	}{
		{v3.Vec{X: 50}, "right", 20},
		{v3.Vec{X: -50}, "left", 20},
		{v3.Vec{X: 20, Z: 25}, "right", 15},
		{v3.Vec{X: -20, Y: -40}, "left", 30},
	}
	for _, tt := range tests {
		r, err := idx.Closest(tt.p)
		if err != nil {
			t.Fatalf("Closest(%v) failed: %v", tt.p, err)
		}
		if r.Part != tt.part {
			t.Errorf("Closest(%v).Part = %q, want %q", tt.p, r.Part, tt.part)
		}
		if math.Abs(r.Distance-tt.dist) > 0.5 {
			t.Errorf("Closest(%v).Distance = %.3f, want %.1f", tt.p, r.Distance, tt.dist)
		}
		if d := r.Point.Sub(tt.p).Length(); math.Abs(d-r.Distance) > 1e-9 {
			t.Errorf("Closest(%v): |Point - p| = %v, Distance = %v", tt.p, d, r.Distance)
		}
	}
}

func TestIndexCast(t *testing.T) {
	idx := mustBuildIndex(t, testConfig(), twoBalls)
	origin := v3.Vec{X: -50, Y: 0.1, Z: 0.13}

	// A scaled direction still reports distances in scene units.
	hit, ok, err := idx.Cast(origin, v3.Vec{X: 2})
	if err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Part != "left" {
		t.Errorf("Part = %q, want %q", hit.Part, "left")
	}
	if math.Abs(hit.Point.X+30) > 0.5 || math.Abs(hit.Distance-20) > 0.5 {
		t.Errorf("hit = %+v, want near x=-30 at distance 20", hit)
	}

	// Pointing away from the scene.
	if _, ok, _ := idx.Cast(origin, v3.Vec{X: -1}); ok {
		t.Error("expected a miss behind the origin")
	}
	// Passing above both balls.
	if _, ok, _ := idx.Cast(v3.Vec{X: -50, Z: 30}, v3.Vec{X: 1}); ok {
		t.Error("expected a miss above the scene")
	}
	if _, _, err := idx.Cast(origin, v3.Vec{}); !errors.Is(err, ErrZeroDirection) {
		t.Errorf("Cast with zero direction: err = %v, want ErrZeroDirection", err)
	}
}

func TestIndexHits(t *testing.T) {
	idx := mustBuildIndex(t, testConfig(), twoBalls)
	origin := v3.Vec{X: -50, Y: 0.1, Z: 0.13}

	n, parts, err := idx.Hits(origin, v3.Vec{X: 1})
	if err != nil {
		t.Fatalf("Hits failed: %v", err)
	}
	// In and out of each ball.
	if n < 4 {
		t.Errorf("Hits crossed %d primitives, want at least 4", n)
	}
	slices.Sort(parts)
	if !slices.Equal(parts, []string{"left", "right"}) {
		t.Errorf("Hits parts = %v, want [left right]", parts)
	}

	// Starting between the balls only the right one is ahead.
	n, parts, err = idx.Hits(v3.Vec{Y: 0.1, Z: 0.13}, v3.Vec{X: 1})
	if err != nil {
		t.Fatalf("Hits failed: %v", err)
	}
	if n < 2 || !slices.Equal(parts, []string{"right"}) {
		t.Errorf("Hits from the middle = %d, %v; want >= 2, [right]", n, parts)
	}

	if _, _, err := idx.Hits(origin, v3.Vec{}); !errors.Is(err, ErrZeroDirection) {
		t.Errorf("Hits with zero direction: err = %v, want ErrZeroDirection", err)
	}
}

func TestIndexStats(t *testing.T) {
	tests := []struct {
		name       string
		primitives string
		index      string
		accelerate bool
	}{
		{"facets kdtree", PrimitivesFacets, "kdtree", true},
		{"facets rtree", PrimitivesFacets, "rtree", true},
		{"edges kdtree", PrimitivesEdges, "kdtree", true},
		{"facets plain", PrimitivesFacets, "kdtree", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Primitives, cfg.Index, cfg.Accelerate = tt.primitives, tt.index, tt.accelerate
			s := mustBuildIndex(t, cfg, twoBalls).Stats()

			if !slices.Equal(s.Parts, []string{"left", "right"}) {
				t.Errorf("Parts = %v", s.Parts)
			}
			if s.Primitives != tt.primitives {
				t.Errorf("Primitives = %q, want %q", s.Primitives, tt.primitives)
			}
			switch tt.primitives {
			case PrimitivesFacets:
				if s.Size != s.Triangles {
					t.Errorf("Size = %d, want one per triangle (%d)", s.Size, s.Triangles)
				}
			case PrimitivesEdges:
				// Welded meshes share edges between triangles.
				if s.Size < s.Triangles || s.Size >= 3*s.Triangles {
					t.Errorf("Size = %d edges for %d triangles", s.Size, s.Triangles)
				}
			}
			if s.Accelerated != tt.accelerate {
				t.Errorf("Accelerated = %t, want %t", s.Accelerated, tt.accelerate)
			}
			if s.Index != tt.index {
				t.Errorf("Index = %q, want %q", s.Index, tt.index)
			}
			if s.Depth <= 0 {
				t.Errorf("Depth = %d, want > 0", s.Depth)
			}
			if s.BBox.Min.X > -29 || s.BBox.Max.X < 29 || s.BBox.Max.X > 31 {
				t.Errorf("BBox = %+v, want x near [-30, 30]", s.BBox)
			}
		})
	}
}

// TestIndexAccelerationNeutral checks that neither the accelerator nor its
// backend changes closest point answers.
func TestIndexAccelerationNeutral(t *testing.T) {
	configs := map[string]Config{}
	for _, name := range []string{"kdtree", "rtree", "plain"} {
		cfg := testConfig()
		cfg.Index = name
		if name == "plain" {
			cfg.Index, cfg.Accelerate = "kdtree", false
		}
		configs[name] = cfg
	}
	indexes := map[string]*Index{}
	for name, cfg := range configs {
		indexes[name] = mustBuildIndex(t, cfg, twoBalls)
	}

	points := []v3.Vec{
		{X: 50}, {X: -3, Y: 7, Z: 2}, {Y: 40}, {X: 19, Y: 1, Z: -2}, {X: -25, Y: -25, Z: 25},
	}
	for _, p := range points {
		want, err := indexes["plain"].Closest(p)
		if err != nil {
			t.Fatalf("Closest(%v) failed: %v", p, err)
		}
		for _, name := range []string{"kdtree", "rtree"} {
			got, err := indexes[name].Closest(p)
			if err != nil {
				t.Fatalf("%s: Closest(%v) failed: %v", name, p, err)
			}
			if math.Abs(got.Distance-want.Distance) > 1e-9 {
				t.Errorf("%s: Closest(%v).Distance = %v, unaccelerated %v", name, p, got.Distance, want.Distance)
			}
		}
		// The unaccelerated path of an accelerated index agrees too.
		got, err := indexes["kdtree"].closest(p, false)
		if err != nil {
			t.Fatalf("closest(%v, false) failed: %v", p, err)
		}
		if math.Abs(got.Distance-want.Distance) > 1e-9 {
			t.Errorf("closest(%v, false).Distance = %v, want %v", p, got.Distance, want.Distance)
		}
	}
}

// TestIndexEdgesResolveParts checks the vertex offsets used to map edges of
// the merged mesh back to parts.
func TestIndexEdgesResolveParts(t *testing.T) {
	cfg := testConfig()
	cfg.Primitives = PrimitivesEdges
	idx := mustBuildIndex(t, cfg, twoBalls)

	for _, tt := range []struct {
		p    v3.Vec
		part string
	}{
		{v3.Vec{X: 45}, "right"},
		{v3.Vec{X: -45}, "left"},
	} {
		r, err := idx.Closest(tt.p)
		if err != nil {
			t.Fatalf("Closest(%v) failed: %v", tt.p, err)
		}
		if r.Part != tt.part {
			t.Errorf("Closest(%v).Part = %q, want %q", tt.p, r.Part, tt.part)
		}
		// Edges lie on or inside the surface, never much further than it.
		if math.Abs(r.Distance-15) > 1 {
			t.Errorf("Closest(%v).Distance = %.3f, want near 15", tt.p, r.Distance)
		}
	}
	hit, ok, err := idx.Cast(v3.Vec{X: 50, Y: 0.1, Z: 0.13}, v3.Vec{X: -1})
	if err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	// A ray rarely meets an edge exactly; a hit must at least be on the right ball.
	if ok && hit.Part != "right" {
		t.Errorf("edge hit Part = %q, want %q", hit.Part, "right")
	}
}

func TestIndexEmptyScene(t *testing.T) {
	idx := mustBuildIndex(t, testConfig(), "")

	s := idx.Stats()
	if s.Size != 0 || len(s.Parts) != 0 {
		t.Errorf("Stats() = %+v, want an empty index", s)
	}
	if _, err := idx.Closest(v3.Vec{}); !errors.Is(err, aabb.ErrEmptyTree) {
		t.Errorf("Closest on empty index: err = %v, want ErrEmptyTree", err)
	}
	if _, ok, err := idx.Cast(v3.Vec{}, v3.Vec{X: 1}); ok || err != nil {
		t.Errorf("Cast on empty index = %t, %v; want a miss", ok, err)
	}
	if n, parts, err := idx.Hits(v3.Vec{}, v3.Vec{X: 1}); n != 0 || len(parts) != 0 || err != nil {
		t.Errorf("Hits on empty index = %d, %v, %v", n, parts, err)
	}
}

func TestNewIndexUnknownPrimitives(t *testing.T) {
	if _, err := NewIndex(nil, IndexOptions{Primitives: "vertices"}); err == nil {
		t.Error("expected an error for an unknown primitive set")
	}
}
