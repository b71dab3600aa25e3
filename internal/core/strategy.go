package core

import "context"

// Strategy is one concurrency-control algorithm for incrementing a shared
// counter by 1. Implementations differ in how (and whether) they coordinate
// with other concurrent writers; all report their result as an Outcome.
//
// A Strategy is shared by every worker in a pool and must be safe for
// concurrent use. It must never take in-process locks around the counter
// itself: coordination has to come from the store's own primitives so the
// measured behavior reflects the store-level mechanism, not accidental
// client-side synchronization.
type Strategy interface {
	// Name identifies the strategy in outcomes and reports.
	Name() string

	// Increment performs one logical increment of the counter. It never
	// panics on contention: conflicts are resolved (or given up on) inside
	// and reflected in the returned Outcome. WorkerID is left zero; the
	// worker pool fills it in before reporting.
	Increment(ctx context.Context, counterID int64) Outcome
}
