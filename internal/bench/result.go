// Package bench orchestrates benchmark runs: it wires a strategy, a worker
// pool and a collector against a store, and reduces one run into a RunResult.
package bench

import (
	"fmt"
	"time"

	"contend/internal/collector"
	"contend/internal/retry"
	"contend/internal/strategy"
)

// RunConfig describes one benchmark run.
type RunConfig struct {
	Strategy   strategy.Kind
	Workers    int
	Iterations int // per worker
	Warmup     int // per worker, excluded from metrics
	RPS        int // 0 = unpaced
	CounterID  int64
	Retry      retry.Policy
}

// ExpectedTotal is the counter value a lossless run must converge on.
// Warmup increments mutate the counter like any other, so they count here
// even though their outcomes are excluded from the metrics.
func (c RunConfig) ExpectedTotal() int64 {
	return int64(c.Workers) * int64(c.Warmup+c.Iterations)
}

func (c RunConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must be >= 0, got %d", c.Warmup)
	}
	return nil
}

// RunResult is the aggregate produced once per run, after the join barrier.
type RunResult struct {
	RunID           string        `json:"runId"`
	Strategy        string        `json:"strategy"`
	Workers         int           `json:"workers"`
	Iterations      int           `json:"iterations"`
	ExpectedTotal   int64         `json:"expectedTotal"`
	ObservedFinal   int64         `json:"observedFinal"`
	ObservedVersion int64         `json:"observedVersion"`
	LostUpdates     int64         `json:"lostUpdates"`
	Elapsed         time.Duration `json:"elapsed"`
	Throughput      float64       `json:"throughput"` // completed ops per second

	collector.Summary
}
