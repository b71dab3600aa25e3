package strategy

import (
	"context"

	"contend/internal/core"
	"contend/internal/store"
)

// Advisory serializes increments through a session-scoped lock keyed by the
// counter id. Inside the lock a plain read-modify-write is safe: all writers
// queue on the same key. No conflicts, no retries; throughput is bounded by
// lock hand-off latency.
type Advisory struct {
	store store.Store
	clock core.Clock
}

func (a *Advisory) Name() string { return string(KindAdvisory) }

func (a *Advisory) Increment(ctx context.Context, counterID int64) core.Outcome {
	start := a.clock.Now()

	if err := a.guarded(ctx, counterID); err != nil {
		return failed(a.clock, a.Name(), start, 1, err)
	}
	return succeeded(a.clock, a.Name(), start, 1)
}

// guarded holds the advisory lock for the duration of the read-modify-write.
// The deferred release runs on every exit path, including a failed write,
// so a crash inside the critical section can never strand the lock.
func (a *Advisory) guarded(ctx context.Context, counterID int64) error {
	if err := a.store.AcquireAdvisoryLock(ctx, counterID); err != nil {
		return err
	}
	defer a.store.ReleaseAdvisoryLock(counterID)

	value, _, err := a.store.Read(ctx, counterID)
	if err != nil {
		return err
	}
	return a.store.Write(ctx, counterID, value+1)
}
