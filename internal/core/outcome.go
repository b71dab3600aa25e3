// Package core defines the fundamental interfaces and types for Contend.
package core

import "time"

// ErrorKind classifies why an increment failed. Empty for successful outcomes.
type ErrorKind string

const (
	ErrorNone           ErrorKind = ""
	ErrorConflict       ErrorKind = "conflict"
	ErrorRetryExhausted ErrorKind = "retry_exhausted"
	ErrorFatal          ErrorKind = "fatal"
)

// Outcome represents a single increment attempt sequence from a worker.
// One Outcome is produced per logical increment, regardless of how many
// attempts the strategy needed internally.
type Outcome struct {
	WorkerID  int
	Strategy  string
	Timestamp time.Time
	Latency   time.Duration
	Success   bool
	Attempts  int // total attempts including the final one; retries = Attempts-1
	Error     ErrorKind
	Detail    string // human-readable error text, empty on success
}

// Reporter is the interface workers use to send outcomes to the Collector.
type Reporter interface {
	Report(Outcome)
}

// NullReporter discards all outcomes (used during warmup).
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(Outcome) {}
