package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contend/internal/core"
)

// mockStrategy counts invocations; it can be told to panic once.
type mockStrategy struct {
	calls     atomic.Int64
	delay     time.Duration
	panicOnce atomic.Bool
}

func (m *mockStrategy) Name() string { return "mock" }

func (m *mockStrategy) Increment(ctx context.Context, counterID int64) core.Outcome {
	if m.panicOnce.CompareAndSwap(true, false) {
		panic("strategy exploded")
	}
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return core.Outcome{Strategy: "mock", Success: true, Attempts: 1}
}

// recorder collects reported outcomes.
type recorder struct {
	mu       sync.Mutex
	outcomes []core.Outcome
}

func (r *recorder) Report(o core.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) all() []core.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

func TestPool_RunsFullVolume(t *testing.T) {
	strategy := &mockStrategy{}
	rec := &recorder{}

	pool := NewPool(Config{Workers: 5, Iterations: 20, CounterID: 1}, strategy, rec)
	pool.Run(context.Background())

	if got := strategy.calls.Load(); got != 100 {
		t.Errorf("strategy invoked %d times, want 100", got)
	}
	if got := len(rec.all()); got != 100 {
		t.Errorf("reported %d outcomes, want 100", got)
	}
}

func TestPool_EachWorkerCompletesItsIterations(t *testing.T) {
	strategy := &mockStrategy{}
	rec := &recorder{}

	pool := NewPool(Config{Workers: 4, Iterations: 25, CounterID: 1}, strategy, rec)
	pool.Run(context.Background())

	perWorker := make(map[int]int)
	for _, o := range rec.all() {
		perWorker[o.WorkerID]++
	}
	if len(perWorker) != 4 {
		t.Fatalf("expected 4 distinct worker ids, got %d", len(perWorker))
	}
	for id, n := range perWorker {
		if n != 25 {
			t.Errorf("worker %d reported %d outcomes, want 25", id, n)
		}
	}
}

func TestPool_WarmupOutcomesDiscarded(t *testing.T) {
	strategy := &mockStrategy{}
	rec := &recorder{}

	pool := NewPool(Config{Workers: 3, Iterations: 10, Warmup: 5, CounterID: 1}, strategy, rec)
	pool.Run(context.Background())

	if got := strategy.calls.Load(); got != 45 {
		t.Errorf("strategy invoked %d times, want 45 (warmup included)", got)
	}
	if got := len(rec.all()); got != 30 {
		t.Errorf("reported %d outcomes, want 30 (warmup discarded)", got)
	}
}

func TestPool_RunBlocksUntilJoin(t *testing.T) {
	strategy := &mockStrategy{delay: 5 * time.Millisecond}
	rec := &recorder{}

	pool := NewPool(Config{Workers: 2, Iterations: 3, CounterID: 1}, strategy, rec)
	pool.Run(context.Background())

	// After Run returns every outcome must already be reported: the join
	// barrier admits no stragglers.
	if got := len(rec.all()); got != 6 {
		t.Errorf("outcomes after join = %d, want 6", got)
	}
}

func TestPool_PanicReportedAsFatal(t *testing.T) {
	strategy := &mockStrategy{}
	strategy.panicOnce.Store(true)
	rec := &recorder{}

	pool := NewPool(Config{Workers: 2, Iterations: 5, CounterID: 1}, strategy, rec)
	pool.Run(context.Background())

	fatal := 0
	for _, o := range rec.all() {
		if o.Error == core.ErrorFatal {
			fatal++
		}
	}
	if fatal != 1 {
		t.Errorf("expected exactly 1 fatal outcome from the panic, got %d", fatal)
	}
}

func TestPool_CanceledContextStopsWorkers(t *testing.T) {
	strategy := &mockStrategy{delay: time.Millisecond}
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(Config{Workers: 4, Iterations: 1000, CounterID: 1}, strategy, rec)

	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after context cancellation")
	}

	if got := len(rec.all()); got >= 4000 {
		t.Errorf("expected early stop, but all %d outcomes were reported", got)
	}
}
