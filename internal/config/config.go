// Package config handles YAML configuration parsing for benchmark runs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"contend/internal/collector"
	"contend/internal/retry"
	"contend/internal/strategy"
)

// Config is the root configuration structure.
type Config struct {
	CounterID    int64                   `yaml:"counter_id"`
	Strategies   []string                `yaml:"strategies"`
	Workers      int                     `yaml:"workers"`
	Iterations   int                     `yaml:"iterations"`
	Warmup       int                     `yaml:"warmup"`
	RPS          int                     `yaml:"rps"`
	Retry        RetryConfig             `yaml:"retry"`
	Store        StoreConfig             `yaml:"store"`
	Expectations *collector.Expectations `yaml:"expectations,omitempty"`
}

// RetryConfig configures the shared backoff policy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// StoreConfig selects and tunes the backing store.
type StoreConfig struct {
	// Latency is the simulated per-operation round trip of the in-memory
	// store. Ignored when URL is set.
	Latency time.Duration `yaml:"latency"`

	// URL points the benchmark at a running counterd service instead of the
	// in-memory store.
	URL string `yaml:"url"`
}

// Default returns the configuration used when no file is given: the
// canonical contention scenario against the in-memory store.
func Default() *Config {
	policy := retry.DefaultPolicy()
	return &Config{
		CounterID:  1,
		Strategies: []string{string(strategy.KindAtomic)},
		Workers:    10,
		Iterations: 10_000,
		Retry: RetryConfig{
			MaxAttempts: policy.MaxAttempts,
			BaseDelay:   policy.BaseDelay,
			MaxDelay:    policy.MaxDelay,
		},
	}
}

// Load reads and parses a YAML configuration file, filling unset fields from
// Default and validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations no run could execute.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must be >= 0, got %d", c.Warmup)
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	for _, name := range c.Strategies {
		if !knownStrategy(name) {
			return fmt.Errorf("unknown strategy %q (known: %v)", name, strategy.Kinds())
		}
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// Kinds resolves the configured strategy names. "all" expands to every
// strategy, weakest guarantee first.
func (c *Config) Kinds() []strategy.Kind {
	kinds := make([]strategy.Kind, 0, len(c.Strategies))
	for _, name := range c.Strategies {
		if name == "all" {
			return strategy.Kinds()
		}
		kinds = append(kinds, strategy.Kind(name))
	}
	return kinds
}

// RetryPolicy converts the config into the retry package's policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
	}
}

func knownStrategy(name string) bool {
	if name == "all" {
		return true
	}
	for _, kind := range strategy.Kinds() {
		if name == string(kind) {
			return true
		}
	}
	return false
}
