package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
# short sine run
batch_size: 32
num_steps: 2000
num_burn_in_steps: 500
keep_every: 50
hidden_units: [20, 20]
activation: relu
sampler: sgld
normalize_output: false
metrics: [mse, mae]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BatchSize != 32 || cfg.NumSteps != 2000 || cfg.NumBurnInSteps != 500 || cfg.KeepEvery != 50 {
		t.Errorf("unexpected step settings: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.HiddenUnits, []int{20, 20}) || cfg.Activation != "relu" || cfg.Sampler != "sgld" {
		t.Errorf("unexpected network settings: %+v", cfg)
	}
	if cfg.NormalizeOutput || !cfg.NormalizeInput {
		t.Errorf("normalization flags = %v/%v; want true/false", cfg.NormalizeInput, cfg.NormalizeOutput)
	}
	if cfg.Lr != 1e-2 || cfg.MDecay != 0.05 || cfg.LogEvery != 512 {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Metrics, []string{"mse", "mae"}) {
		t.Errorf("metrics = %v", cfg.Metrics)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		description string
		body        string
		expected    string
	}{
		{"zero batch size", "batch_size: 0\n", "batch_size"},
		{"burn-in swallows every step", "num_steps: 100\nnum_burn_in_steps: 100\n", "must exceed"},
		{"negative hidden layer", "hidden_units: [10, -1]\n", "hidden_units"},
		{"malformed yaml", "num_steps: [\n", "parse config"},
	}
	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.body))
		if err == nil || !strings.Contains(err.Error(), tt.expected) {
			t.Errorf("%s: err = %v; want mention of %q", tt.description, err, tt.expected)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func intPtr(v int) *int { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestApplyOverrides(t *testing.T) {
	verbose := true
	cfg := Default()
	cfg.ApplyOverrides(Overrides{NumSteps: intPtr(4000), BatchSize: intPtr(8), Verbose: &verbose})
	if cfg.NumSteps != 4000 || cfg.BatchSize != 8 || !cfg.Verbose {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.KeepEvery != 100 || cfg.Seed != 1 || cfg.NumBurnInSteps != 3000 {
		t.Errorf("unset overrides changed values: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyOverridesAcceptsZero(t *testing.T) {
	path := writeConfig(t, "num_burn_in_steps: 500\nseed: 7\nverbose: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	quiet := false
	cfg.ApplyOverrides(Overrides{NumBurnInSteps: intPtr(0), Seed: int64Ptr(0), Verbose: &quiet})
	if cfg.NumBurnInSteps != 0 || cfg.Seed != 0 || cfg.Verbose {
		t.Errorf("zero overrides not applied: burn-in=%d seed=%d verbose=%v", cfg.NumBurnInSteps, cfg.Seed, cfg.Verbose)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateDoesNotModify(t *testing.T) {
	cfg := Default()
	cfg.LogEvery, cfg.Workers = 0, 0
	before := *cfg
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "log_every") {
		t.Errorf("Validate err = %v; want log_every error", err)
	}
	if !reflect.DeepEqual(before, *cfg) {
		t.Errorf("Validate modified config: %+v; was %+v", *cfg, before)
	}
	cfg.LogEvery = 10
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "workers") {
		t.Errorf("Validate err = %v; want workers error", err)
	}
}

func TestLoadFillsZeroedCadence(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_every: 0\nworkers: 0\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogEvery != 512 || cfg.Workers != 1 {
		t.Errorf("log_every=%d workers=%d; want 512, 1", cfg.LogEvery, cfg.Workers)
	}
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "sine.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumSteps != 6000 || cfg.NumBurnInSteps != 2000 || cfg.KeepEvery != 50 {
		t.Errorf("schedule = %d/%d/%d; want 6000/2000/50", cfg.NumSteps, cfg.NumBurnInSteps, cfg.KeepEvery)
	}
	if !reflect.DeepEqual(cfg.Metrics, []string{"mse", "rmse", "mae"}) {
		t.Errorf("Metrics = %v", cfg.Metrics)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d; want 4", cfg.Workers)
	}
}
