package main

import (
	"context"
	"math/rand"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bench modes, run in this order.
const (
	BenchClosest              = "closest"
	BenchClosestUnaccelerated = "closest-unaccelerated"
	BenchRay                  = "ray"
)

// BenchModes lists every mode Bench runs.
var BenchModes = []string{BenchClosest, BenchClosestUnaccelerated, BenchRay}

// BenchOptions configures Bench.
type BenchOptions struct {
	Duration time.Duration
	Workers  int
	Seed     int64
	Modes    []string // defaults to BenchModes
	Logger   *zap.Logger
}

// BenchReport summarizes one mode. Latencies are in microseconds.
type BenchReport struct {
	Mode    string        `json:"mode"`
	Queries int           `json:"queries"`
	Elapsed time.Duration `json:"elapsed"`
	QPS     float64       `json:"qps"`
	Mean    float64       `json:"meanUs"`
	P50     float64       `json:"p50Us"`
	P90     float64       `json:"p90Us"`
	P99     float64       `json:"p99Us"`
}

// Bench hammers idx with random queries drawn from a box around the scene.
// Each worker owns a generator seeded from opts.Seed and its index, so runs
// with the same seed issue the same queries per worker.
func Bench(ctx context.Context, idx *Index, opts BenchOptions) ([]BenchReport, error) {
	if opts.Duration <= 0 {
		return nil, errors.Errorf("bench duration must be positive, got %s", opts.Duration)
	}
	if opts.Workers <= 0 {
		return nil, errors.Errorf("bench workers must be positive, got %d", opts.Workers)
	}
	bbox := idx.Stats().BBox
	if bbox.IsEmpty() {
		return nil, errors.New("cannot bench an empty index")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	modes := opts.Modes
	if len(modes) == 0 {
		modes = BenchModes
	}

	// Sample from the scene box grown by half its extent on every side.
	center := bbox.Centroid()
	extent := bbox.Extent().MulScalar(2)

	var reports []BenchReport
	for _, mode := range modes {
		query, err := benchQuery(idx, mode)
		if err != nil {
			return nil, err
		}
		r, err := runBench(ctx, mode, opts, func(rng *rand.Rand) error {
			p := v3.Vec{
				X: center.X + (rng.Float64()-0.5)*extent.X,
				Y: center.Y + (rng.Float64()-0.5)*extent.Y,
				Z: center.Z + (rng.Float64()-0.5)*extent.Z,
			}
			return query(rng, p)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "bench %s", mode)
		}
		logger.Info("bench finished",
			zap.String("mode", r.Mode),
			zap.Int("queries", r.Queries),
			zap.Float64("qps", r.QPS),
			zap.Float64("p99Us", r.P99))
		reports = append(reports, r)
	}
	return reports, nil
}

func benchQuery(idx *Index, mode string) (func(rng *rand.Rand, p v3.Vec) error, error) {
	switch mode {
	case BenchClosest:
		return func(_ *rand.Rand, p v3.Vec) error {
			_, err := idx.closest(p, true)
			return err
		}, nil
	case BenchClosestUnaccelerated:
		return func(_ *rand.Rand, p v3.Vec) error {
			_, err := idx.closest(p, false)
			return err
		}, nil
	case BenchRay:
		return func(rng *rand.Rand, p v3.Vec) error {
			dir := v3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
			if dir.Length2() == 0 {
				dir.X = 1
			}
			_, _, err := idx.Cast(p, dir)
			return err
		}, nil
	}
	return nil, errors.Errorf("unknown bench mode %q", mode)
}

// runBench runs query on opts.Workers goroutines until opts.Duration
// elapses or ctx is cancelled, then reduces the latencies.
func runBench(ctx context.Context, mode string, opts BenchOptions, query func(*rand.Rand) error) (BenchReport, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	latencies := make([][]float64, opts.Workers)
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(opts.Seed + int64(w)))
			for ctx.Err() == nil {
				t0 := time.Now()
				if err := query(rng); err != nil {
					return err
				}
				latencies[w] = append(latencies[w], float64(time.Since(t0).Nanoseconds())/1e3)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BenchReport{}, err
	}
	elapsed := time.Since(start)

	var all stats.Float64Data
	for _, l := range latencies {
		all = append(all, l...)
	}
	r := BenchReport{Mode: mode, Queries: len(all), Elapsed: elapsed}
	if len(all) == 0 {
		return r, nil
	}
	r.QPS = float64(len(all)) / elapsed.Seconds()

	var err error
	if r.Mean, err = stats.Mean(all); err != nil {
		return BenchReport{}, errors.Wrap(err, "mean latency")
	}
	for _, pc := range []struct {
		dst *float64
		p   float64
	}{{&r.P50, 50}, {&r.P90, 90}, {&r.P99, 99}} {
		if *pc.dst, err = stats.Percentile(all, pc.p); err != nil {
			return BenchReport{}, errors.Wrapf(err, "p%.0f latency", pc.p)
		}
	}
	return r, nil
}
