package strategy

import (
	"context"

	"contend/internal/core"
	"contend/internal/store"
)

// Naive is the deliberately broken baseline: read the value, add one in the
// client, write it back with no conflict check. Between the read and the
// write any number of rivals can read the same value, collapsing N concurrent
// increments into 1. The operation itself never fails, so every outcome
// reports success; the damage only shows up as a final value below the
// expected total.
type Naive struct {
	store store.Store
	clock core.Clock
}

func (n *Naive) Name() string { return string(KindNaive) }

func (n *Naive) Increment(ctx context.Context, counterID int64) core.Outcome {
	start := n.clock.Now()

	value, _, err := n.store.Read(ctx, counterID)
	if err != nil {
		return failed(n.clock, n.Name(), start, 1, err)
	}
	if err := n.store.Write(ctx, counterID, value+1); err != nil {
		return failed(n.clock, n.Name(), start, 1, err)
	}
	return succeeded(n.clock, n.Name(), start, 1)
}
