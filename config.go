package main

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/chazu/burl/pkg/aabb"
	"github.com/chazu/burl/pkg/engine"
	"github.com/chazu/burl/pkg/kernel/sdfx"
)

// Primitive sets an index can be built over.
const (
	PrimitivesFacets = "facets"
	PrimitivesEdges  = "edges"
)

// duration decodes TOML strings such as "2s" or "500ms".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the burl configuration file. Keys missing from the file keep
// their DefaultConfig values.
type Config struct {
	MeshCells     int      `toml:"mesh_cells"`     // marching cubes resolution
	Primitives    string   `toml:"primitives"`     // "facets" or "edges"
	Accelerate    bool     `toml:"accelerate"`     // build the distance accelerator
	Index         string   `toml:"index"`          // "kdtree" or "rtree"
	EvalTimeout   duration `toml:"eval_timeout"`   // script evaluation limit
	BenchDuration duration `toml:"bench_duration"` // wall clock per bench mode
	BenchWorkers  int      `toml:"bench_workers"`  // concurrent query goroutines
	Seed          int64    `toml:"seed"`           // bench query generator seed
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		MeshCells:     sdfx.DefaultMeshCells,
		Primitives:    PrimitivesFacets,
		Accelerate:    true,
		Index:         aabb.KDTreeIndex.String(),
		EvalTimeout:   duration{engine.EvalTimeout},
		BenchDuration: duration{2 * time.Second},
		BenchWorkers:  4,
		Seed:          1,
	}
}

// LoadConfig decodes the TOML file at path over DefaultConfig. An empty path
// returns the defaults. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not decode TOML config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.MeshCells <= 0 {
		return errors.Errorf("mesh_cells must be positive, got %d", c.MeshCells)
	}
	if c.Primitives != PrimitivesFacets && c.Primitives != PrimitivesEdges {
		return errors.Errorf("primitives must be %q or %q, got %q", PrimitivesFacets, PrimitivesEdges, c.Primitives)
	}
	if _, err := aabb.ParseIndexKind(c.Index); err != nil {
		return errors.Wrap(err, "index")
	}
	if c.EvalTimeout.Duration <= 0 {
		return errors.Errorf("eval_timeout must be positive, got %s", c.EvalTimeout)
	}
	if c.BenchDuration.Duration <= 0 {
		return errors.Errorf("bench_duration must be positive, got %s", c.BenchDuration)
	}
	if c.BenchWorkers <= 0 {
		return errors.Errorf("bench_workers must be positive, got %d", c.BenchWorkers)
	}
	return nil
}

// IndexKind returns the parsed accelerator backend.
func (c Config) IndexKind() aabb.IndexKind {
	k, err := aabb.ParseIndexKind(c.Index)
	if err != nil {
		return aabb.KDTreeIndex
	}
	return k
}
