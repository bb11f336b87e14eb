package main

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/burl/pkg/engine"
	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/kernel/sdfx"
	"github.com/chazu/burl/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the script to mesh to index pipeline.
type App struct {
	cfg    Config
	engine *engine.Engine
	kernel kernel.Kernel
	logger *zap.Logger
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
}

// OK reports whether evaluation produced no errors.
func (r EvalResult) OK() bool { return len(r.Errors) == 0 }

// NewApp creates a new App with an engine and the sdfx kernel configured
// from cfg. A nil logger disables logging.
func NewApp(cfg Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		engine: engine.NewEngine(engine.WithTimeout(cfg.EvalTimeout.Duration), engine.WithLogger(logger)),
		kernel: sdfx.NewWithCells(cfg.MeshCells),
		logger: logger,
	}
}

// Evaluate takes script source and returns mesh data and errors.
func (a *App) Evaluate(source string) EvalResult {
	meshes, result := a.meshes(source)
	result.Meshes = lo.Map(meshes, func(m *kernel.Mesh, i int) MeshData {
		return MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		}
	})
	return result
}

// meshes evaluates and tessellates source. The result carries errors only;
// callers fill in the mesh representation they need.
func (a *App) meshes(source string) ([]*kernel.Mesh, EvalResult) {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
	}

	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Warn("evaluation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return nil, result
	}
	if len(evalErrs) > 0 {
		a.logger.Warn("script has errors", zap.Int("count", len(evalErrs)))
		result.Errors = lo.Map(evalErrs, func(e engine.EvalError, _ int) EvalErrorData {
			return EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
		})
		return nil, result
	}

	meshes, err := tessellate.Tessellate(s, a.kernel)
	if err != nil {
		a.logger.Warn("tessellation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return nil, result
	}
	a.logger.Debug("tessellated scene",
		zap.Int("parts", len(meshes)),
		zap.Int("triangles", lo.SumBy(meshes, func(m *kernel.Mesh) int { return m.TriangleCount() })))
	return meshes, result
}

// BuildIndex evaluates source and builds a query index over the resulting
// meshes. The index is nil when the result has errors.
func (a *App) BuildIndex(source string) (*Index, EvalResult) {
	meshes, result := a.meshes(source)
	if !result.OK() {
		return nil, result
	}
	idx, err := NewIndex(meshes, IndexOptions{
		Primitives: a.cfg.Primitives,
		Accelerate: a.cfg.Accelerate,
		Kind:       a.cfg.IndexKind(),
		Logger:     a.logger,
	})
	if err != nil {
		a.logger.Warn("index build failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "index build failed: " + err.Error()})
		return nil, result
	}
	return idx, result
}
