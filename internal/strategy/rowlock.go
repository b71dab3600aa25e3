package strategy

import (
	"context"

	"contend/internal/core"
	"contend/internal/store"
)

// RowLock takes an exclusive lock on the counter row for the duration of the
// transaction (the select-for-update pattern). Writers queue on the row
// itself, so no serializable validation and no retries are needed; the store
// releases the lock at commit.
type RowLock struct {
	store store.Store
	clock core.Clock
}

func (r *RowLock) Name() string { return string(KindRowLock) }

func (r *RowLock) Increment(ctx context.Context, counterID int64) core.Outcome {
	start := r.clock.Now()

	err := r.store.WithTransaction(ctx, store.ReadCommitted, func(tx store.Tx) error {
		value, _, err := tx.ReadForUpdate(counterID)
		if err != nil {
			return err
		}
		return tx.Write(counterID, value+1)
	})
	if err != nil {
		return failed(r.clock, r.Name(), start, 1, err)
	}
	return succeeded(r.clock, r.Name(), start, 1)
}
