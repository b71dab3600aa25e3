package bench

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"contend/internal/collector"
	"contend/internal/core"
	"contend/internal/ratelimit"
	"contend/internal/store"
	"contend/internal/strategy"
	"contend/internal/worker"
)

// Runner executes benchmark runs against a single store.
type Runner struct {
	store store.Store
	clock core.Clock
}

func NewRunner(st store.Store) *Runner {
	return &Runner{store: st, clock: core.RealClock{}}
}

// Run performs one benchmark run. coll may be nil; passing one in lets the
// caller watch live counters (the progress printer does) while the run is in
// flight. The result is assembled only after every worker has joined.
func (r *Runner) Run(ctx context.Context, cfg RunConfig, coll *collector.Collector) (*RunResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if coll == nil {
		coll = collector.New()
	}

	if err := r.store.Reset(ctx, cfg.CounterID); err != nil {
		return nil, fmt.Errorf("resetting counter %d: %w", cfg.CounterID, err)
	}

	strat, err := strategy.New(cfg.Strategy, r.store, cfg.Retry, r.clock)
	if err != nil {
		return nil, err
	}

	var limiter *ratelimit.RateLimiter
	if cfg.RPS > 0 {
		limiter = ratelimit.NewRateLimiter(cfg.RPS)
	}

	pool := worker.NewPool(worker.Config{
		Workers:    cfg.Workers,
		Iterations: cfg.Iterations,
		Warmup:     cfg.Warmup,
		CounterID:  cfg.CounterID,
		Limiter:    limiter,
	}, strat, coll)

	start := r.clock.Now()
	pool.Run(ctx)
	elapsed := r.clock.Since(start)

	// The final read is read-only and must happen even when the run was
	// interrupted, so it does not inherit the (possibly canceled) run ctx.
	value, version, err := r.store.Read(context.Background(), cfg.CounterID)
	if err != nil {
		return nil, fmt.Errorf("reading final counter value: %w", err)
	}

	summary := coll.Summary()

	lost := cfg.ExpectedTotal() - value
	if lost < 0 {
		lost = 0
	}

	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(summary.TotalOps) / elapsed.Seconds()
	}

	return &RunResult{
		RunID:           uuid.NewString(),
		Strategy:        strat.Name(),
		Workers:         cfg.Workers,
		Iterations:      cfg.Iterations,
		ExpectedTotal:   cfg.ExpectedTotal(),
		ObservedFinal:   value,
		ObservedVersion: version,
		LostUpdates:     lost,
		Elapsed:         elapsed,
		Throughput:      throughput,
		Summary:         summary,
	}, nil
}

// RunAll runs base once per kind, sequentially, so each strategy contends
// only with itself. Results come back in the given order.
func (r *Runner) RunAll(ctx context.Context, base RunConfig, kinds []strategy.Kind) ([]*RunResult, error) {
	results := make([]*RunResult, 0, len(kinds))
	for _, kind := range kinds {
		cfg := base
		cfg.Strategy = kind
		result, err := r.Run(ctx, cfg, nil)
		if err != nil {
			return results, fmt.Errorf("running strategy %q: %w", kind, err)
		}
		results = append(results, result)
	}
	return results, nil
}
