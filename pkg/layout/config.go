package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedMode selects the initial placement pattern.
type SeedMode string

const (
	// SeedGridMode places nodes on a spaced cube grid.
	SeedGridMode SeedMode = "grid"
	// SeedLayersMode places nodes in rows by graph depth: outputs one
	// level deeper, inputs one level up.
	SeedLayersMode SeedMode = "layers"
)

// Config controls seed placement and force-directed relaxation.
//
// The defaults are tuned for scene units where Spacing is 4: the
// repulsion/spring balance puts connected nodes six to seven units apart.
// They target scenes of tens to hundreds of nodes; numeric parity with any
// particular renderer is not a goal, stability is.
type Config struct {
	// Spacing is the distance between adjacent seed slots.
	Spacing float32 `yaml:"spacing"`

	// SeedMode picks the placement pattern for re-seeded parts.
	SeedMode SeedMode `yaml:"seed_mode"`

	// Repulsion scales the inverse-square force pushing every node pair
	// apart.
	Repulsion float32 `yaml:"repulsion"`

	// SpringStrength scales the per-edge pull proportional to the
	// difference between the edge length and RestLength.
	SpringStrength float32 `yaml:"spring_strength"`

	// RestLength is the edge length at which the spring force is zero.
	RestLength float32 `yaml:"rest_length"`

	// Gravity pulls nodes toward their part's centroid so stragglers
	// cannot drift out of frame.
	Gravity float32 `yaml:"gravity"`

	// Damping scales velocity each step; below 1 the system loses energy
	// and settles.
	Damping float32 `yaml:"damping"`

	// MaxStep clamps per-step displacement so the integration cannot
	// diverge.
	MaxStep float32 `yaml:"max_step"`

	// Epsilon is the convergence threshold: relaxation stops once the
	// largest per-node displacement in a step falls below it.
	Epsilon float32 `yaml:"epsilon"`

	// MaxIterations bounds a relaxation run. Hitting the cap is a normal
	// termination (Result.Converged is false), not an error.
	MaxIterations int `yaml:"max_iterations"`

	// Timeout, when positive, is applied by the editor as a context
	// deadline on each relaxation task. Stored as nanoseconds in YAML.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// DefaultConfig returns the baseline layout configuration.
func DefaultConfig() Config {
	return ApplyEnvOverrides(baseConfig())
}

func baseConfig() Config {
	return Config{
		Spacing:        4.0,
		SeedMode:       SeedGridMode,
		Repulsion:      80,
		SpringStrength: 0.5,
		RestLength:     4.0,
		Gravity:        0.01,
		Damping:        0.85,
		MaxStep:        2.5,
		Epsilon:        0.005,
		MaxIterations:  300,
	}
}

// ConfigForSize returns a configuration tuned to the node count of a part.
//
// Size tiers:
//   - Small (<50 nodes): tighter epsilon and a generous iteration cap;
//     small parts settle fast, so buy extra quality.
//   - Medium (50-500 nodes): the defaults.
//   - Large (>500 nodes): looser epsilon and a lower cap; per-iteration
//     cost is quadratic in part size, so trade quality for latency.
func ConfigForSize(nodeCount int) Config {
	cfg := baseConfig()
	switch {
	case nodeCount < 50:
		cfg.MaxIterations = 600
		cfg.Epsilon = 0.002
	case nodeCount < 500:
		// defaults
	default:
		cfg.MaxIterations = 150
		cfg.Epsilon = 0.02
		cfg.MaxStep = 3.0
	}
	return ApplyEnvOverrides(cfg)
}

const (
	// EnvMaxIterations overrides the relaxation iteration cap when set (>0).
	EnvMaxIterations = "ORRERY_MAX_ITERATIONS"
	// EnvEpsilon overrides the convergence threshold when set (>0).
	EnvEpsilon = "ORRERY_EPSILON"
	// EnvSeedMode overrides the seed pattern ("grid" or "layers").
	EnvSeedMode = "ORRERY_SEED_MODE"
	// EnvRelaxTimeoutSeconds overrides the per-relaxation deadline when set (>0).
	EnvRelaxTimeoutSeconds = "ORRERY_RELAX_TIMEOUT_S"
)

// ApplyEnvOverrides applies environment-variable tunables to the layout
// config.
//
// Supported:
//   - ORRERY_MAX_ITERATIONS=N: cap relaxation at N iterations (must be >0).
//   - ORRERY_EPSILON=F: convergence threshold (must be >0).
//   - ORRERY_SEED_MODE=grid|layers: seed placement pattern.
//   - ORRERY_RELAX_TIMEOUT_S=N: per-relaxation deadline of N seconds.
func ApplyEnvOverrides(cfg Config) Config {
	if n, ok := envPositiveInt(EnvMaxIterations); ok {
		cfg.MaxIterations = n
	}
	if f, ok := envPositiveFloat(EnvEpsilon); ok {
		cfg.Epsilon = float32(f)
	}
	switch SeedMode(strings.ToLower(strings.TrimSpace(os.Getenv(EnvSeedMode)))) {
	case SeedGridMode:
		cfg.SeedMode = SeedGridMode
	case SeedLayersMode:
		cfg.SeedMode = SeedLayersMode
	}
	if seconds, ok := envPositiveInt(EnvRelaxTimeoutSeconds); ok {
		cfg.Timeout = time.Duration(seconds) * time.Second
	}
	return cfg
}

func envPositiveInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func envPositiveFloat(name string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// LoadConfig reads a layout configuration from a YAML file. Returns
// DefaultConfig if the file doesn't exist. Environment overrides win over
// file values.
func LoadConfig(path string) (Config, error) {
	cfg := baseConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ApplyEnvOverrides(cfg), nil
		}
		return ApplyEnvOverrides(cfg), fmt.Errorf("reading layout config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ApplyEnvOverrides(baseConfig()), fmt.Errorf("parsing layout config: %w", err)
	}

	return ApplyEnvOverrides(cfg), nil
}

// SaveConfig writes the layout configuration to a YAML file.
func SaveConfig(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling layout config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing layout config: %w", err)
	}

	return nil
}
