package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expectations defines pass/fail criteria for a finished run. Nil pointer
// fields are not checked, so a config can assert exactly what it cares
// about: a naive run legitimately loses updates, a correctness run must not.
type Expectations struct {
	MaxLostUpdates *int64               `yaml:"max_lost_updates"`
	MaxFailureRate string               `yaml:"max_failure_rate"` // e.g. "0.5%"
	Latency        *LatencyExpectations `yaml:"latency"`
}

// LatencyExpectations defines per-increment latency limits.
type LatencyExpectations struct {
	Avg time.Duration `yaml:"avg"`
	P50 time.Duration `yaml:"p50"`
	P90 time.Duration `yaml:"p90"`
	P95 time.Duration `yaml:"p95"`
	P99 time.Duration `yaml:"p99"`
}

// CheckResult represents the outcome of a single expectation check.
type CheckResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// CheckResults contains all expectation check results.
type CheckResults struct {
	Passed  bool          `json:"passed"`
	Results []CheckResult `json:"results"`
}

// Check evaluates all expectations against a run's summary and its lost
// update count.
func (e *Expectations) Check(s Summary, lostUpdates int64) *CheckResults {
	if e == nil {
		return &CheckResults{Passed: true}
	}

	results := &CheckResults{
		Passed:  true,
		Results: make([]CheckResult, 0),
	}

	if e.MaxLostUpdates != nil {
		results.add(CheckResult{
			Name:     "lost_updates",
			Passed:   lostUpdates <= *e.MaxLostUpdates,
			Expected: fmt.Sprintf("<= %d", *e.MaxLostUpdates),
			Actual:   strconv.FormatInt(lostUpdates, 10),
		})
	}

	if e.MaxFailureRate != "" {
		results.checkFailureRate(e.MaxFailureRate, s)
	}

	if e.Latency != nil {
		results.checkLatency(e.Latency, s.Latency)
	}

	return results
}

func (r *CheckResults) add(c CheckResult) {
	if !c.Passed {
		r.Passed = false
	}
	r.Results = append(r.Results, c)
}

func (r *CheckResults) checkFailureRate(limit string, s Summary) {
	maxRate, err := parsePercentage(limit)
	if err != nil {
		return
	}

	actual := 0.0
	if s.TotalOps > 0 {
		actual = float64(s.Failed) / float64(s.TotalOps) * 100
	}
	r.add(CheckResult{
		Name:     "failure_rate",
		Passed:   actual <= maxRate,
		Expected: limit,
		Actual:   fmt.Sprintf("%.2f%%", actual),
	})
}

func (r *CheckResults) checkLatency(limits *LatencyExpectations, actual DurationStats) {
	checks := []struct {
		name  string
		limit time.Duration
		got   time.Duration
	}{
		{"latency.avg", limits.Avg, actual.Avg},
		{"latency.p50", limits.P50, actual.P50},
		{"latency.p90", limits.P90, actual.P90},
		{"latency.p95", limits.P95, actual.P95},
		{"latency.p99", limits.P99, actual.P99},
	}

	for _, check := range checks {
		if check.limit == 0 {
			continue
		}
		r.add(CheckResult{
			Name:     check.name,
			Passed:   check.got < check.limit,
			Expected: "< " + FormatDuration(check.limit),
			Actual:   FormatDuration(check.got),
		})
	}
}

// Violations returns only the failed check results.
func (r *CheckResults) Violations() []CheckResult {
	violations := make([]CheckResult, 0)
	for _, result := range r.Results {
		if !result.Passed {
			violations = append(violations, result)
		}
	}
	return violations
}

func parsePercentage(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("invalid percentage format: %s", s)
	}
	s = strings.TrimSuffix(s, "%")
	return strconv.ParseFloat(s, 64)
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
