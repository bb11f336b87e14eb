// Command burl evaluates scene scripts into meshes and answers ray and
// distance queries against them through an AABB tree.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// Flags.
	flagConfig     = "config"
	flagLogLevel   = "log-level"
	flagPrimitives = "primitives"
	flagIndex      = "index"
	flagAccelerate = "accelerate"
	flagDuration   = "duration"
	flagWorkers    = "workers"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "burl:", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "burl",
		Usage: "query scene scripts through an AABB tree",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "TOML config file",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "warn",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  flagPrimitives,
				Usage: "index primitives: facets or edges (overrides config)",
			},
			&cli.StringFlag{
				Name:  flagIndex,
				Usage: "accelerator backend: kdtree or rtree (overrides config)",
			},
			&cli.BoolFlag{
				Name:  flagAccelerate,
				Usage: "build the distance accelerator (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "build the index for a script and describe it",
				ArgsUsage: "<script>",
				Action:    statsAction,
			},
			{
				Name:      "closest",
				Usage:     "find the surface point closest to a query point",
				ArgsUsage: "<script> <x> <y> <z>",
				Action:    closestAction,
			},
			{
				Name:      "ray",
				Usage:     "cast a ray and report the first hit and every part it crosses",
				ArgsUsage: "<script> <ox> <oy> <oz> <dx> <dy> <dz>",
				Action:    rayAction,
			},
			{
				Name:      "bench",
				Usage:     "measure query throughput on random points around the scene",
				ArgsUsage: "<script>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  flagDuration,
						Usage: "wall clock per mode (overrides config)",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "concurrent query goroutines (overrides config)",
					},
				},
				Action: benchAction,
			},
		},
	}
}

// newLogger builds a console logger writing to stderr.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", flagLogLevel)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// syncLogger flushes buffered log entries. Syncing a terminal stderr fails
// on some platforms; the error is ignored.
func syncLogger(logger *zap.Logger) {
	_ = logger.Sync()
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(c *cli.Context) (Config, error) {
	cfg, err := LoadConfig(c.String(flagConfig))
	if err != nil {
		return Config{}, err
	}
	if c.IsSet(flagPrimitives) {
		cfg.Primitives = c.String(flagPrimitives)
	}
	if c.IsSet(flagIndex) {
		cfg.Index = c.String(flagIndex)
	}
	if c.IsSet(flagAccelerate) {
		cfg.Accelerate = c.Bool(flagAccelerate)
	}
	if c.IsSet(flagDuration) {
		cfg.BenchDuration.Duration = c.Duration(flagDuration)
	}
	if c.IsSet(flagWorkers) {
		cfg.BenchWorkers = c.Int(flagWorkers)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// buildIndex loads config, evaluates the script named by the first argument
// and builds its index. want is the number of arguments the command takes.
func buildIndex(c *cli.Context, want int) (*Index, Config, *zap.Logger, error) {
	if c.NArg() != want {
		return nil, Config{}, nil, errors.Errorf("%s: expected %d arguments, got %d", c.Command.Name, want, c.NArg())
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, Config{}, nil, err
	}
	logger, err := newLogger(c.String(flagLogLevel))
	if err != nil {
		return nil, Config{}, nil, err
	}
	src, err := os.ReadFile(c.Args().First())
	if err != nil {
		syncLogger(logger)
		return nil, Config{}, nil, errors.Wrap(err, "reading script")
	}
	idx, result := NewApp(cfg, logger).BuildIndex(string(src))
	if !result.OK() {
		syncLogger(logger)
		return nil, Config{}, nil, evalErrors(c.Args().First(), result.Errors)
	}
	return idx, cfg, logger, nil
}

func evalErrors(path string, errs []EvalErrorData) error {
	lines := lo.Map(errs, func(e EvalErrorData, _ int) string {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d:%d: %s", path, e.Line, e.Col, e.Message)
		}
		return fmt.Sprintf("%s: %s", path, e.Message)
	})
	return errors.New(strings.Join(lines, "\n"))
}

// parseVecs parses args as consecutive x y z triples.
func parseVecs(args []string) ([]v3.Vec, error) {
	if len(args)%3 != 0 {
		return nil, errors.Errorf("expected coordinates in triples, got %d numbers", len(args))
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "coordinate %d", i+1)
		}
		vals[i] = f
	}
	return lo.Map(lo.Chunk(vals, 3), func(v []float64, _ int) v3.Vec {
		return v3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}), nil
}

func formatVec(v v3.Vec) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v.X, v.Y, v.Z)
}

func statsAction(c *cli.Context) error {
	idx, _, logger, err := buildIndex(c, 1)
	if err != nil {
		return err
	}
	defer syncLogger(logger)
	s := idx.Stats()
	w := c.App.Writer
	fmt.Fprintf(w, "parts:       %s\n", strings.Join(s.Parts, ", "))
	fmt.Fprintf(w, "mesh:        %d triangles, %d vertices\n", s.Triangles, s.Vertices)
	fmt.Fprintf(w, "primitives:  %d %s\n", s.Size, s.Primitives)
	fmt.Fprintf(w, "depth:       %d\n", s.Depth)
	fmt.Fprintf(w, "accelerated: %t (%s)\n", s.Accelerated, s.Index)
	if !s.BBox.IsEmpty() {
		fmt.Fprintf(w, "bbox:        %s %s\n", formatVec(s.BBox.Min), formatVec(s.BBox.Max))
	}
	fmt.Fprintf(w, "build:       %s\n", s.BuildTime)
	return nil
}

func closestAction(c *cli.Context) error {
	idx, _, logger, err := buildIndex(c, 4)
	if err != nil {
		return err
	}
	defer syncLogger(logger)
	p, err := parseVecs(c.Args().Slice()[1:])
	if err != nil {
		return err
	}
	r, err := idx.Closest(p[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "point:    %s\ndistance: %.6g\npart:     %s\n", formatVec(r.Point), r.Distance, r.Part)
	return nil
}

func rayAction(c *cli.Context) error {
	idx, _, logger, err := buildIndex(c, 7)
	if err != nil {
		return err
	}
	defer syncLogger(logger)
	v, err := parseVecs(c.Args().Slice()[1:])
	if err != nil {
		return err
	}
	origin, dir := v[0], v[1]
	hit, ok, err := idx.Cast(origin, dir)
	if err != nil {
		return err
	}
	n, parts, err := idx.Hits(origin, dir)
	if err != nil {
		return err
	}
	w := c.App.Writer
	if !ok {
		fmt.Fprintln(w, "miss")
		return nil
	}
	fmt.Fprintf(w, "hit:      %s\ndistance: %.6g\npart:     %s\n", formatVec(hit.Point), hit.Distance, hit.Part)
	if hit.Grazing {
		fmt.Fprintln(w, "grazing:  true")
	}
	fmt.Fprintf(w, "crossed:  %d primitives in %s\n", n, strings.Join(parts, ", "))
	return nil
}

func benchAction(c *cli.Context) error {
	idx, cfg, logger, err := buildIndex(c, 1)
	if err != nil {
		return err
	}
	defer syncLogger(logger)
	modes := BenchModes
	if !idx.Stats().Accelerated {
		modes = []string{BenchClosestUnaccelerated, BenchRay}
	}
	reports, err := Bench(c.Context, idx, BenchOptions{
		Duration: cfg.BenchDuration.Duration,
		Workers:  cfg.BenchWorkers,
		Seed:     cfg.Seed,
		Modes:    modes,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "%-22s %10s %12s %10s %10s %10s %10s\n", "mode", "queries", "qps", "mean(us)", "p50(us)", "p90(us)", "p99(us)")
	for _, r := range reports {
		fmt.Fprintf(w, "%-22s %10d %12.0f %10.2f %10.2f %10.2f %10.2f\n", r.Mode, r.Queries, r.QPS, r.Mean, r.P50, r.P90, r.P99)
	}
	return nil
}
