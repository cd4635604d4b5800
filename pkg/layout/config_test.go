package layout

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearLayoutEnv blanks every layout override so tests see the shipped
// defaults regardless of the ambient environment.
func clearLayoutEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvMaxIterations, EnvEpsilon, EnvSeedMode, EnvRelaxTimeoutSeconds} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	clearLayoutEnv(t)
	cfg := DefaultConfig()

	if cfg.Spacing != 4.0 {
		t.Errorf("expected spacing 4.0, got %f", cfg.Spacing)
	}
	if cfg.SeedMode != SeedGridMode {
		t.Errorf("expected grid seed mode, got %q", cfg.SeedMode)
	}
	if cfg.Repulsion != 80 {
		t.Errorf("expected repulsion 80, got %f", cfg.Repulsion)
	}
	if cfg.SpringStrength != 0.5 {
		t.Errorf("expected spring strength 0.5, got %f", cfg.SpringStrength)
	}
	if cfg.RestLength != 4.0 {
		t.Errorf("expected rest length 4.0, got %f", cfg.RestLength)
	}
	if cfg.Damping != 0.85 {
		t.Errorf("expected damping 0.85, got %f", cfg.Damping)
	}
	if cfg.Epsilon != 0.005 {
		t.Errorf("expected epsilon 0.005, got %f", cfg.Epsilon)
	}
	if cfg.MaxIterations != 300 {
		t.Errorf("expected 300 iterations, got %d", cfg.MaxIterations)
	}
	if cfg.Timeout != 0 {
		t.Errorf("expected no timeout by default, got %v", cfg.Timeout)
	}
}

func TestConfigForSize(t *testing.T) {
	clearLayoutEnv(t)

	tests := []struct {
		name          string
		nodes         int
		maxIterations int
		epsilon       float32
		maxStep       float32
	}{
		{"small", 10, 600, 0.002, 2.5},
		{"medium", 100, 300, 0.005, 2.5},
		{"large", 1000, 150, 0.02, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigForSize(tt.nodes)
			if cfg.MaxIterations != tt.maxIterations {
				t.Errorf("expected %d iterations, got %d", tt.maxIterations, cfg.MaxIterations)
			}
			if cfg.Epsilon != tt.epsilon {
				t.Errorf("expected epsilon %f, got %f", tt.epsilon, cfg.Epsilon)
			}
			if cfg.MaxStep != tt.maxStep {
				t.Errorf("expected max step %f, got %f", tt.maxStep, cfg.MaxStep)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearLayoutEnv(t)
	t.Setenv(EnvMaxIterations, "42")
	t.Setenv(EnvEpsilon, "0.1")
	t.Setenv(EnvSeedMode, "LAYERS")
	t.Setenv(EnvRelaxTimeoutSeconds, "5")

	cfg := ApplyEnvOverrides(baseConfig())

	if cfg.MaxIterations != 42 {
		t.Errorf("expected 42 iterations, got %d", cfg.MaxIterations)
	}
	if cfg.Epsilon != 0.1 {
		t.Errorf("expected epsilon 0.1, got %f", cfg.Epsilon)
	}
	if cfg.SeedMode != SeedLayersMode {
		t.Errorf("expected layers seed mode, got %q", cfg.SeedMode)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Timeout)
	}
}

func TestApplyEnvOverrides_InvalidIgnored(t *testing.T) {
	clearLayoutEnv(t)
	t.Setenv(EnvMaxIterations, "-3")
	t.Setenv(EnvEpsilon, "not-a-number")
	t.Setenv(EnvSeedMode, "spiral")
	t.Setenv(EnvRelaxTimeoutSeconds, "0")

	cfg := ApplyEnvOverrides(baseConfig())
	base := baseConfig()

	if cfg.MaxIterations != base.MaxIterations {
		t.Errorf("negative cap should be ignored, got %d", cfg.MaxIterations)
	}
	if cfg.Epsilon != base.Epsilon {
		t.Errorf("garbage epsilon should be ignored, got %f", cfg.Epsilon)
	}
	if cfg.SeedMode != base.SeedMode {
		t.Errorf("unknown seed mode should be ignored, got %q", cfg.SeedMode)
	}
	if cfg.Timeout != 0 {
		t.Errorf("zero timeout should be ignored, got %v", cfg.Timeout)
	}
}

func TestLoadConfig_NonExistent(t *testing.T) {
	clearLayoutEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/layout.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.MaxIterations != 300 {
		t.Errorf("expected default config, got %d iterations", cfg.MaxIterations)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	clearLayoutEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")

	content := `
spacing: 6.0
max_iterations: 42
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Spacing != 6.0 {
		t.Errorf("expected spacing 6.0, got %f", cfg.Spacing)
	}
	if cfg.MaxIterations != 42 {
		t.Errorf("expected 42 iterations, got %d", cfg.MaxIterations)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Repulsion != 80 {
		t.Errorf("expected default repulsion 80, got %f", cfg.Repulsion)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearLayoutEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	clearLayoutEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")

	if err := os.WriteFile(path, []byte("max_iterations: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvMaxIterations, "7")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxIterations != 7 {
		t.Errorf("expected env override 7, got %d", cfg.MaxIterations)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	clearLayoutEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "layout.yaml")

	cfg := baseConfig()
	cfg.Spacing = 8.0
	cfg.SeedMode = SeedLayersMode
	cfg.Epsilon = 0.01
	cfg.Timeout = 2 * time.Second

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}

	if loaded.Spacing != 8.0 {
		t.Errorf("expected spacing 8.0, got %f", loaded.Spacing)
	}
	if loaded.SeedMode != SeedLayersMode {
		t.Errorf("expected layers seed mode, got %q", loaded.SeedMode)
	}
	if loaded.Epsilon != 0.01 {
		t.Errorf("expected epsilon 0.01, got %f", loaded.Epsilon)
	}
	if loaded.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", loaded.Timeout)
	}
}
