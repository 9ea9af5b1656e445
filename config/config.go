// Package config loads run settings from YAML and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	BatchSize       int      `yaml:"batch_size"`
	NormalizeInput  bool     `yaml:"normalize_input"`
	NormalizeOutput bool     `yaml:"normalize_output"`
	NumSteps        int      `yaml:"num_steps"`
	KeepEvery       int      `yaml:"keep_every"`
	NumBurnInSteps  int      `yaml:"num_burn_in_steps"`
	Lr              float64  `yaml:"lr"`
	Noise           float64  `yaml:"noise"`
	MDecay          float64  `yaml:"mdecay"`
	HiddenUnits     []int    `yaml:"hidden_units"`
	Activation      string   `yaml:"activation"`
	Sampler         string   `yaml:"sampler"`
	Metrics         []string `yaml:"metrics"`
	Shuffle         bool     `yaml:"shuffle"`
	Seed            int64    `yaml:"seed"`
	LogEvery        int      `yaml:"log_every"`
	Verbose         bool     `yaml:"verbose"`
	Workers         int      `yaml:"workers"`
}

// Overrides captures CLI supplied values. Nil fields were not given.
type Overrides struct {
	NumSteps       *int
	NumBurnInSteps *int
	KeepEvery      *int
	BatchSize      *int
	Seed           *int64
	Verbose        *bool
}

// Default returns the standard hyperparameters.
func Default() *Config {
	return &Config{
		BatchSize:       20,
		NormalizeInput:  true,
		NormalizeOutput: true,
		NumSteps:        13000,
		KeepEvery:       100,
		NumBurnInSteps:  3000,
		Lr:              1e-2,
		Noise:           0,
		MDecay:          0.05,
		HiddenUnits:     []int{50, 50, 50},
		Activation:      "tanh",
		Sampler:         "adaptive_sghmc",
		Metrics:         []string{"mse"},
		Seed:            1,
		LogEvery:        512,
		Workers:         1,
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores the cadence knobs a file may have zeroed.
func (c *Config) fillDefaults() {
	if c.LogEvery <= 0 {
		c.LogEvery = 512
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// ApplyOverrides updates cfg with every override that was given, zero included.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.NumSteps != nil {
		c.NumSteps = *o.NumSteps
	}
	if o.NumBurnInSteps != nil {
		c.NumBurnInSteps = *o.NumBurnInSteps
	}
	if o.KeepEvery != nil {
		c.KeepEvery = *o.KeepEvery
	}
	if o.BatchSize != nil {
		c.BatchSize = *o.BatchSize
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.Verbose != nil {
		c.Verbose = *o.Verbose
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.NumSteps <= 0 {
		return fmt.Errorf("num_steps must be > 0 (got %d)", c.NumSteps)
	}
	if c.KeepEvery <= 0 {
		return fmt.Errorf("keep_every must be > 0 (got %d)", c.KeepEvery)
	}
	if c.NumBurnInSteps < 0 {
		return fmt.Errorf("num_burn_in_steps must be >= 0 (got %d)", c.NumBurnInSteps)
	}
	if c.NumSteps <= c.NumBurnInSteps {
		return fmt.Errorf("num_steps (%d) must exceed num_burn_in_steps (%d)", c.NumSteps, c.NumBurnInSteps)
	}
	if c.Lr <= 0 {
		return fmt.Errorf("lr must be > 0 (got %g)", c.Lr)
	}
	for _, h := range c.HiddenUnits {
		if h <= 0 {
			return fmt.Errorf("hidden_units must be > 0 (got %v)", c.HiddenUnits)
		}
	}
	if c.LogEvery <= 0 {
		return fmt.Errorf("log_every must be > 0 (got %d)", c.LogEvery)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", c.Workers)
	}
	return nil
}
