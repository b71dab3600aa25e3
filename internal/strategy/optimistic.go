package strategy

import (
	"context"

	"contend/internal/core"
	"contend/internal/retry"
	"contend/internal/store"
)

// Optimistic reads the row's version alongside its value and only writes if
// the version is still current (compare-and-swap). A failed swap means
// another writer won the race; that conflict is expected and recoverable, so
// the loop re-reads and tries again under the shared backoff policy instead
// of failing.
type Optimistic struct {
	store store.Store
	retry *retry.Controller
	clock core.Clock
}

func (o *Optimistic) Name() string { return string(KindOptimistic) }

func (o *Optimistic) Increment(ctx context.Context, counterID int64) core.Outcome {
	start := o.clock.Now()

	attempts, err := o.retry.Do(ctx, func() error {
		value, version, err := o.store.Read(ctx, counterID)
		if err != nil {
			return err
		}
		ok, err := o.store.CompareAndSwap(ctx, counterID, version, value+1)
		if err != nil {
			return err
		}
		if !ok {
			return store.ErrConflict
		}
		return nil
	})
	if err != nil {
		return failed(o.clock, o.Name(), start, attempts, err)
	}
	return succeeded(o.clock, o.Name(), start, attempts)
}
