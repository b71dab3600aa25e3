package bench

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"contend/internal/collector"
	"contend/internal/retry"
	"contend/internal/store"
	"contend/internal/strategy"
)

func testConfig(kind strategy.Kind) RunConfig {
	return RunConfig{
		Strategy:   kind,
		Workers:    8,
		Iterations: 100,
		CounterID:  1,
		Retry:      retry.Policy{MaxAttempts: 100, BaseDelay: 0, MaxDelay: 0},
	}
}

func TestRunner_CorrectStrategiesConverge(t *testing.T) {
	for _, kind := range []strategy.Kind{
		strategy.KindSerializable,
		strategy.KindAtomic,
		strategy.KindOptimistic,
		strategy.KindAdvisory,
		strategy.KindRowLock,
	} {
		kind := kind
		t.Run(string(kind), func(t *testing.T) {
			runner := NewRunner(store.NewMemoryStore())
			result, err := runner.Run(context.Background(), testConfig(kind), nil)
			if err != nil {
				t.Fatal(err)
			}

			if result.ObservedFinal != result.ExpectedTotal {
				t.Errorf("final = %d, want exactly %d (zero lost updates)",
					result.ObservedFinal, result.ExpectedTotal)
			}
			if result.LostUpdates != 0 {
				t.Errorf("lost updates = %d, want 0", result.LostUpdates)
			}
			if result.Failed != 0 {
				t.Errorf("failed ops = %d, want 0: %v", result.Failed, result.Errors)
			}
			if result.ObservedVersion != result.ExpectedTotal {
				t.Errorf("version = %d, want %d (one bump per write)",
					result.ObservedVersion, result.ExpectedTotal)
			}
		})
	}
}

func TestRunner_AtomicHasNoRetries(t *testing.T) {
	runner := NewRunner(store.NewMemoryStore())
	result, err := runner.Run(context.Background(), testConfig(strategy.KindAtomic), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalRetries != 0 {
		t.Errorf("atomic retries = %d, want 0", result.TotalRetries)
	}
	if result.TotalAttempts != result.TotalOps {
		t.Errorf("attempts = %d, want %d (exactly one per op)",
			result.TotalAttempts, result.TotalOps)
	}
}

func TestRunner_NaiveBoundedByExpected(t *testing.T) {
	runner := NewRunner(store.NewMemoryStoreWithLatency(100 * time.Microsecond))
	cfg := testConfig(strategy.KindNaive)
	cfg.Workers = 4
	cfg.Iterations = 50

	result, err := runner.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.ObservedFinal > result.ExpectedTotal {
		t.Errorf("final %d exceeds expected %d", result.ObservedFinal, result.ExpectedTotal)
	}
	if result.ObservedFinal <= 0 {
		t.Errorf("final %d, expected at least one surviving increment", result.ObservedFinal)
	}
	if result.LostUpdates != result.ExpectedTotal-result.ObservedFinal {
		t.Errorf("lost = %d, want expected-observed = %d",
			result.LostUpdates, result.ExpectedTotal-result.ObservedFinal)
	}
	// Every naive op reports success regardless of the aggregate damage.
	if result.Failed != 0 {
		t.Errorf("naive failed ops = %d, want 0", result.Failed)
	}
}

func TestRunner_ResetsCounterBetweenRuns(t *testing.T) {
	st := store.NewMemoryStore()
	runner := NewRunner(st)

	for i := 0; i < 2; i++ {
		result, err := runner.Run(context.Background(), testConfig(strategy.KindAtomic), nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.ObservedFinal != result.ExpectedTotal {
			t.Fatalf("run %d: final = %d, want %d (stale state from previous run?)",
				i, result.ObservedFinal, result.ExpectedTotal)
		}
	}
}

func TestRunner_WarmupCountsTowardExpectedTotal(t *testing.T) {
	runner := NewRunner(store.NewMemoryStore())
	cfg := testConfig(strategy.KindAtomic)
	cfg.Warmup = 10

	result, err := runner.Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := int64(cfg.Workers) * int64(cfg.Warmup+cfg.Iterations)
	if result.ExpectedTotal != want {
		t.Errorf("expected total = %d, want %d", result.ExpectedTotal, want)
	}
	if result.ObservedFinal != want {
		t.Errorf("final = %d, want %d", result.ObservedFinal, want)
	}
	// Metrics only cover measured iterations.
	if result.TotalOps != int64(cfg.Workers)*int64(cfg.Iterations) {
		t.Errorf("total ops = %d, want %d", result.TotalOps, cfg.Workers*cfg.Iterations)
	}
}

func TestRunner_RunAllSequential(t *testing.T) {
	runner := NewRunner(store.NewMemoryStore())
	kinds := []strategy.Kind{strategy.KindAtomic, strategy.KindOptimistic}

	results, err := runner.RunAll(context.Background(), testConfig(""), kinds)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, kind := range kinds {
		if results[i].Strategy != string(kind) {
			t.Errorf("result %d strategy = %q, want %q", i, results[i].Strategy, kind)
		}
		if results[i].LostUpdates != 0 {
			t.Errorf("%s lost %d updates", kind, results[i].LostUpdates)
		}
	}
}

func TestRunner_InvalidConfig(t *testing.T) {
	runner := NewRunner(store.NewMemoryStore())

	cases := []RunConfig{
		{Strategy: strategy.KindAtomic, Workers: 0, Iterations: 10},
		{Strategy: strategy.KindAtomic, Workers: 1, Iterations: 0},
		{Strategy: strategy.KindAtomic, Workers: 1, Iterations: 1, Warmup: -1},
		{Strategy: "nope", Workers: 1, Iterations: 1},
	}
	for i, cfg := range cases {
		if _, err := runner.Run(context.Background(), cfg, nil); err == nil {
			t.Errorf("case %d: expected error for invalid config %+v", i, cfg)
		}
	}
}

func TestRunner_LiveCollectorVisible(t *testing.T) {
	runner := NewRunner(store.NewMemoryStore())
	coll := collector.New()

	result, err := runner.Run(context.Background(), testConfig(strategy.KindAtomic), coll)
	if err != nil {
		t.Fatal(err)
	}
	if coll.Ops() != result.TotalOps {
		t.Errorf("caller-supplied collector saw %d ops, result has %d", coll.Ops(), result.TotalOps)
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
}

// TestRunner_FullScenario is the canonical contention benchmark: 10 workers,
// 10,000 iterations each. Run with -short to skip it.
func TestRunner_FullScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full 100k-increment scenario in short mode")
	}

	cfg := RunConfig{
		Workers:    10,
		Iterations: 10_000,
		CounterID:  1,
		Retry:      retry.DefaultPolicy(),
	}

	t.Run("atomic exact with zero retries", func(t *testing.T) {
		runner := NewRunner(store.NewMemoryStore())
		cfg := cfg
		cfg.Strategy = strategy.KindAtomic
		result, err := runner.Run(context.Background(), cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.ObservedFinal != 100_000 {
			t.Errorf("final = %d, want 100000", result.ObservedFinal)
		}
		if result.TotalRetries != 0 || result.Failed != 0 {
			t.Errorf("retries = %d failed = %d, want 0 and 0",
				result.TotalRetries, result.Failed)
		}
	})

	t.Run("optimistic exact with retries under contention", func(t *testing.T) {
		runner := NewRunner(store.NewMemoryStore())
		cfg := cfg
		cfg.Strategy = strategy.KindOptimistic
		result, err := runner.Run(context.Background(), cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.ObservedFinal != 100_000 {
			t.Errorf("final = %d, want 100000", result.ObservedFinal)
		}
		if result.TotalRetries == 0 {
			t.Log("no CAS conflicts at all in a 10-worker run; unusual but legal")
		}
	})

	t.Run("naive loses updates", func(t *testing.T) {
		runner := NewRunner(store.NewMemoryStoreWithLatency(50 * time.Microsecond))
		cfg := cfg
		cfg.Strategy = strategy.KindNaive
		cfg.Iterations = 2_000 // latency makes full 10k runs slow
		result, err := runner.Run(context.Background(), cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.ObservedFinal > result.ExpectedTotal {
			t.Errorf("final %d exceeds expected %d", result.ObservedFinal, result.ExpectedTotal)
		}
		if result.LostUpdates == 0 {
			t.Error("expected measurable loss from the naive strategy under latency")
		}
	})
}

func TestFormatText(t *testing.T) {
	result := &RunResult{
		RunID:         "test-run",
		Strategy:      "optimistic",
		Workers:       10,
		Iterations:    10000,
		ExpectedTotal: 100000,
		ObservedFinal: 100000,
		Elapsed:       2 * time.Second,
		Throughput:    50000,
	}
	result.TotalOps = 100000
	result.Succeeded = 100000

	var buf bytes.Buffer
	FormatText(&buf, result, nil)

	out := buf.String()
	for _, want := range []string{"optimistic", "100,000", "Lost Updates"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	result := &RunResult{RunID: "r", Strategy: "atomic", Elapsed: time.Second}

	var buf bytes.Buffer
	if err := FormatJSON(&buf, result, nil); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"strategy": "atomic"`, `"elapsed": "1s"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("json output missing %s:\n%s", want, buf.String())
		}
	}
}

func TestFormatComparison(t *testing.T) {
	results := []*RunResult{
		{Strategy: "naive", ExpectedTotal: 1000, ObservedFinal: 400, LostUpdates: 600},
		{Strategy: "atomic", ExpectedTotal: 1000, ObservedFinal: 1000},
	}

	var buf bytes.Buffer
	FormatComparison(&buf, results)

	out := buf.String()
	for _, want := range []string{"naive", "atomic", "LOST", "600"} {
		if !strings.Contains(out, want) {
			t.Errorf("comparison output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{100000, "100,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.n); got != tc.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
