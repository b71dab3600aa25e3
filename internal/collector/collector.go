// Package collector aggregates increment outcomes and computes run metrics.
package collector

import (
	"sync"
	"sync/atomic"
	"time"

	"contend/internal/core"
)

// Summary is the immutable aggregate of one run's outcomes.
// TotalRetries counts extra attempts beyond the first, for successful and
// failed operations alike; Errors only counts operations that gave up.
type Summary struct {
	TotalOps      int64                    `json:"totalOps"`
	Succeeded     int64                    `json:"succeeded"`
	Failed        int64                    `json:"failed"`
	TotalAttempts int64                    `json:"totalAttempts"`
	TotalRetries  int64                    `json:"totalRetries"`
	Errors        map[core.ErrorKind]int64 `json:"errors,omitempty"`
	Latency       DurationStats            `json:"latency"`
}

// Collector accumulates outcomes from any worker concurrently. Accounting is
// lossless: every reported outcome is counted, because the benchmark's whole
// point is comparing exact totals.
//
// The live counters (Ops, Retries, Failures) may be read mid-run by the
// progress printer; Summary must only be taken after the worker pool's join
// barrier.
type Collector struct {
	mu        sync.Mutex
	succeeded int64
	failed    int64
	attempts  int64
	retries   int64
	errors    map[core.ErrorKind]int64
	latencies []time.Duration

	liveOps      atomic.Int64
	liveRetries  atomic.Int64
	liveFailures atomic.Int64
}

func New() *Collector {
	return &Collector{
		errors: make(map[core.ErrorKind]int64),
	}
}

// Report records one outcome. Safe for concurrent use.
func (c *Collector) Report(o core.Outcome) {
	c.mu.Lock()
	if o.Success {
		c.succeeded++
	} else {
		c.failed++
		c.errors[o.Error]++
	}
	c.attempts += int64(o.Attempts)
	if o.Attempts > 1 {
		c.retries += int64(o.Attempts - 1)
	}
	c.latencies = append(c.latencies, o.Latency)
	c.mu.Unlock()

	c.liveOps.Add(1)
	if o.Attempts > 1 {
		c.liveRetries.Add(int64(o.Attempts - 1))
	}
	if !o.Success {
		c.liveFailures.Add(1)
	}
}

// Ops returns the number of outcomes reported so far.
func (c *Collector) Ops() int64 { return c.liveOps.Load() }

// Retries returns the retries observed so far.
func (c *Collector) Retries() int64 { return c.liveRetries.Load() }

// Failures returns the failed operations observed so far.
func (c *Collector) Failures() int64 { return c.liveFailures.Load() }

// Summary snapshots the aggregate. Call after all workers have joined.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	errors := make(map[core.ErrorKind]int64, len(c.errors))
	for k, v := range c.errors {
		errors[k] = v
	}
	return Summary{
		TotalOps:      c.succeeded + c.failed,
		Succeeded:     c.succeeded,
		Failed:        c.failed,
		TotalAttempts: c.attempts,
		TotalRetries:  c.retries,
		Errors:        errors,
		Latency:       ComputeDurationStats(c.latencies),
	}
}
