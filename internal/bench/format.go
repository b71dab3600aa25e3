package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"contend/internal/collector"
)

// FormatText writes a run result in human-readable format.
func FormatText(w io.Writer, r *RunResult, checks *collector.CheckResults) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Contend - Counter Contention Results")
	fmt.Fprintln(w, "====================================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Strategy:       %s\n", r.Strategy)
	fmt.Fprintf(w, "Run:            %s\n", r.RunID)
	fmt.Fprintf(w, "Duration:       %v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Workers:        %d x %s iterations\n", r.Workers, formatNumber(int64(r.Iterations)))
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Expected Total: %s\n", formatNumber(r.ExpectedTotal))
	fmt.Fprintf(w, "Final Value:    %s\n", formatNumber(r.ObservedFinal))
	fmt.Fprintf(w, "Lost Updates:   %s\n", formatNumber(r.LostUpdates))
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Operations:     %s (%s ok / %s failed)\n",
		formatNumber(r.TotalOps), formatNumber(r.Succeeded), formatNumber(r.Failed))
	fmt.Fprintf(w, "Attempts:       %s (%s retries)\n",
		formatNumber(r.TotalAttempts), formatNumber(r.TotalRetries))
	fmt.Fprintf(w, "Throughput:     %.1f ops/sec\n", r.Throughput)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Latency:")
	fmt.Fprintf(w, "  Min:    %s\n", collector.FormatDuration(r.Latency.Min))
	fmt.Fprintf(w, "  Avg:    %s\n", collector.FormatDuration(r.Latency.Avg))
	fmt.Fprintf(w, "  P50:    %s\n", collector.FormatDuration(r.Latency.P50))
	fmt.Fprintf(w, "  P90:    %s\n", collector.FormatDuration(r.Latency.P90))
	fmt.Fprintf(w, "  P95:    %s\n", collector.FormatDuration(r.Latency.P95))
	fmt.Fprintf(w, "  P99:    %s\n", collector.FormatDuration(r.Latency.P99))
	fmt.Fprintf(w, "  Max:    %s\n", collector.FormatDuration(r.Latency.Max))

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Errors:")
		for kind, count := range r.Errors {
			fmt.Fprintf(w, "  %-17s %s\n", string(kind)+":", formatNumber(count))
		}
	}

	if checks != nil && len(checks.Results) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Expectations:")
		for _, result := range checks.Results {
			symbol := "✓"
			if !result.Passed {
				symbol = "✗"
			}
			fmt.Fprintf(w, "  %s %s %s (actual: %s)\n",
				symbol, result.Name, result.Expected, result.Actual)
		}
	}
}

// FormatJSON writes a run result in JSON format.
func FormatJSON(w io.Writer, r *RunResult, checks *collector.CheckResults) error {
	output := struct {
		*RunResult
		Elapsed      string                  `json:"elapsed"`
		Expectations *collector.CheckResults `json:"expectations,omitempty"`
	}{
		RunResult:    r,
		Elapsed:      r.Elapsed.Round(time.Millisecond).String(),
		Expectations: checks,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// FormatComparison writes a side-by-side table for a multi-strategy run.
func FormatComparison(w io.Writer, results []*RunResult) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Contend - Strategy Comparison")
	fmt.Fprintln(w, "=============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%-14s %12s %12s %10s %10s %8s %10s %12s\n",
		"STRATEGY", "EXPECTED", "FINAL", "LOST", "RETRIES", "ERRORS", "ELAPSED", "OPS/SEC")
	for _, r := range results {
		fmt.Fprintf(w, "%-14s %12s %12s %10s %10s %8s %10v %12.1f\n",
			r.Strategy,
			formatNumber(r.ExpectedTotal),
			formatNumber(r.ObservedFinal),
			formatNumber(r.LostUpdates),
			formatNumber(r.TotalRetries),
			formatNumber(r.Failed),
			r.Elapsed.Round(time.Millisecond),
			r.Throughput)
	}
}

func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", formatNumber(n/1000), n%1000)
}
