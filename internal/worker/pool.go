// Package worker drives the benchmark load: a fixed pool of symmetric
// workers, each issuing a fixed number of sequential increments through the
// configured strategy.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"contend/internal/core"
	"contend/internal/ratelimit"
)

// Config sizes one pool run.
type Config struct {
	Workers    int
	Iterations int // per worker
	Warmup     int // per worker, outcomes discarded
	CounterID  int64
	Limiter    *ratelimit.RateLimiter // nil = no pacing
}

// Pool spawns worker goroutines and joins them. Workers share nothing but
// the strategy and the reporter; a single worker never has two increments in
// flight at once.
type Pool struct {
	cfg      Config
	strategy core.Strategy
	reporter core.Reporter
	nextID   atomic.Int64
	wg       sync.WaitGroup
}

func NewPool(cfg Config, strategy core.Strategy, reporter core.Reporter) *Pool {
	return &Pool{
		cfg:      cfg,
		strategy: strategy,
		reporter: reporter,
	}
}

// Run executes the full load and blocks until every worker has completed its
// iteration count (the join barrier) or ctx is canceled.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		workerID := int(p.nextID.Add(1))
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			defer p.recoverPanic(id)
			p.runWorker(ctx, id)
		}(workerID)
	}
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	total := p.cfg.Warmup + p.cfg.Iterations
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if p.cfg.Limiter != nil {
			if err := p.cfg.Limiter.Wait(ctx); err != nil {
				return
			}
		}
		reporter := p.reporter
		if i < p.cfg.Warmup {
			reporter = core.NullReporter
		}
		outcome := p.strategy.Increment(ctx, p.cfg.CounterID)
		outcome.WorkerID = id
		reporter.Report(outcome)
	}
}

// recoverPanic reports a panicking worker as a fatal outcome so a crashed
// goroutine is counted instead of silently shrinking the load.
func (p *Pool) recoverPanic(id int) {
	if r := recover(); r != nil {
		p.reporter.Report(core.Outcome{
			WorkerID: id,
			Strategy: p.strategy.Name(),
			Success:  false,
			Attempts: 1,
			Error:    core.ErrorFatal,
			Detail:   fmt.Sprintf("panic: %v", r),
		})
	}
}
