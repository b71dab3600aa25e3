package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"contend/internal/bench"
	"contend/internal/collector"
	"contend/internal/config"
	"contend/internal/progress"
	"contend/internal/store"
)

const (
	ExitSuccess            = 0
	ExitExpectationsFailed = 1
	ExitError              = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	strategyName := flag.String("strategy", "", "strategy to run: naive, serializable, atomic, optimistic, advisory, rowlock, or all")
	workers := flag.Int("workers", 0, "number of concurrent workers (overrides config)")
	iterations := flag.Int("iterations", 0, "increments per worker (overrides config)")
	warmup := flag.Int("warmup", -1, "warmup increments per worker before measuring (overrides config)")
	rps := flag.Int("rps", -1, "aggregate rate limit in increments/sec, 0 = unlimited (overrides config)")
	output := flag.String("output", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	storeLatency := flag.Duration("store-latency", -1, "simulated per-operation latency of the in-memory store (overrides config)")
	storeURL := flag.String("store-url", "", "run against a counterd instance at this base URL (overrides config)")
	flag.Parse()

	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		cfg = loaded
	}

	// CLI flags override config file values.
	if *strategyName != "" {
		cfg.Strategies = []string{*strategyName}
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *iterations > 0 {
		cfg.Iterations = *iterations
	}
	if *warmup >= 0 {
		cfg.Warmup = *warmup
	}
	if *rps >= 0 {
		cfg.RPS = *rps
	}
	if *storeLatency >= 0 {
		cfg.Store.Latency = *storeLatency
	}
	if *storeURL != "" {
		cfg.Store.URL = *storeURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	var st store.Store
	if cfg.Store.URL != "" {
		st = store.NewHTTPStore(cfg.Store.URL)
	} else {
		st = store.NewMemoryStoreWithLatency(cfg.Store.Latency)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	interrupted := false
	go func() {
		<-sigCh
		interrupted = true
		if !*quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		}
		cancel()
	}()

	runner := bench.NewRunner(st)
	base := bench.RunConfig{
		Workers:    cfg.Workers,
		Iterations: cfg.Iterations,
		Warmup:     cfg.Warmup,
		RPS:        cfg.RPS,
		CounterID:  cfg.CounterID,
		Retry:      cfg.RetryPolicy(),
	}

	kinds := cfg.Kinds()
	results := make([]*bench.RunResult, 0, len(kinds))
	for _, kind := range kinds {
		runCfg := base
		runCfg.Strategy = kind

		coll := collector.New()
		prog := progress.NewProgress(coll, *quiet)
		prog.Printf("contend: strategy %s, %d workers x %d increments (expecting %d)",
			kind, runCfg.Workers, runCfg.Iterations, runCfg.ExpectedTotal())
		prog.Start()

		result, err := runner.Run(ctx, runCfg, coll)
		prog.Stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		results = append(results, result)

		if ctx.Err() != nil {
			break
		}
	}

	passed := true
	for _, result := range results {
		var checks *collector.CheckResults
		if cfg.Expectations != nil {
			checks = cfg.Expectations.Check(result.Summary, result.LostUpdates)
			if !checks.Passed {
				passed = false
			}
		}
		if *output == "json" {
			if err := bench.FormatJSON(os.Stdout, result, checks); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(ExitError)
			}
		} else {
			bench.FormatText(os.Stdout, result, checks)
		}
	}
	if *output == "text" && len(results) > 1 {
		bench.FormatComparison(os.Stdout, results)
	}

	if interrupted {
		os.Exit(ExitSuccess)
	}
	if !passed {
		if *output == "text" {
			fmt.Fprintln(os.Stderr, "\nExpectations check failed!")
		}
		os.Exit(ExitExpectationsFailed)
	}
	os.Exit(ExitSuccess)
}
