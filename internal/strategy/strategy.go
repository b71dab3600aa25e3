// Package strategy implements the concurrency-control algorithms under
// comparison. Each strategy increments a shared counter by 1 through the
// store contract, trading coordination cost for correctness:
//
//	naive        read-modify-write, no coordination (loses updates)
//	serializable transaction at serializable isolation, retried on conflict
//	atomic       server-side atomic add, single round trip
//	optimistic   version-checked compare-and-swap, retried on conflict
//	advisory     advisory-lock-guarded read-modify-write
//	rowlock      transaction with an exclusive row lock (select-for-update)
package strategy

import (
	"errors"
	"fmt"
	"time"

	"contend/internal/core"
	"contend/internal/retry"
	"contend/internal/store"
)

// Kind names one of the closed set of strategies, selected by configuration.
type Kind string

const (
	KindNaive        Kind = "naive"
	KindSerializable Kind = "serializable"
	KindAtomic       Kind = "atomic"
	KindOptimistic   Kind = "optimistic"
	KindAdvisory     Kind = "advisory"
	KindRowLock      Kind = "rowlock"
)

// Kinds returns every strategy, ordered from weakest to strongest guarantee
// at increasing coordination cost.
func Kinds() []Kind {
	return []Kind{KindNaive, KindSerializable, KindAtomic, KindOptimistic, KindAdvisory, KindRowLock}
}

// New constructs the strategy for kind, bound to st. policy only matters for
// the strategies that retry on contention.
func New(kind Kind, st store.Store, policy retry.Policy, clock core.Clock) (core.Strategy, error) {
	if clock == nil {
		clock = core.RealClock{}
	}
	switch kind {
	case KindNaive:
		return &Naive{store: st, clock: clock}, nil
	case KindSerializable:
		return &Serializable{store: st, retry: retry.New(policy), clock: clock}, nil
	case KindAtomic:
		return &Atomic{store: st, clock: clock}, nil
	case KindOptimistic:
		return &Optimistic{store: st, retry: retry.New(policy), clock: clock}, nil
	case KindAdvisory:
		return &Advisory{store: st, clock: clock}, nil
	case KindRowLock:
		return &RowLock{store: st, clock: clock}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", kind, Kinds())
	}
}

// succeeded builds the Outcome for a completed increment.
func succeeded(clock core.Clock, name string, start time.Time, attempts int) core.Outcome {
	return core.Outcome{
		Strategy:  name,
		Timestamp: start,
		Latency:   clock.Since(start),
		Success:   true,
		Attempts:  attempts,
	}
}

// failed builds the Outcome for an increment that gave up, classifying the
// error into the taxonomy the collector aggregates by.
func failed(clock core.Clock, name string, start time.Time, attempts int, err error) core.Outcome {
	kind := core.ErrorFatal
	switch {
	case errors.Is(err, retry.ErrAttemptsExhausted):
		kind = core.ErrorRetryExhausted
	case errors.Is(err, store.ErrConflict):
		kind = core.ErrorConflict
	}
	return core.Outcome{
		Strategy:  name,
		Timestamp: start,
		Latency:   clock.Since(start),
		Success:   false,
		Attempts:  attempts,
		Error:     kind,
		Detail:    err.Error(),
	}
}
