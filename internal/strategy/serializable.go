package strategy

import (
	"context"

	"contend/internal/core"
	"contend/internal/retry"
	"contend/internal/store"
)

// Serializable wraps the read-modify-write in a transaction at serializable
// isolation. The store aborts conflicting transactions at commit with
// ErrConflict; the whole transaction is then retried under the shared backoff
// policy. Succeeds only once a commit lands.
type Serializable struct {
	store store.Store
	retry *retry.Controller
	clock core.Clock
}

func (s *Serializable) Name() string { return string(KindSerializable) }

func (s *Serializable) Increment(ctx context.Context, counterID int64) core.Outcome {
	start := s.clock.Now()

	attempts, err := s.retry.Do(ctx, func() error {
		return s.store.WithTransaction(ctx, store.Serializable, func(tx store.Tx) error {
			value, _, err := tx.Read(counterID)
			if err != nil {
				return err
			}
			return tx.Write(counterID, value+1)
		})
	})
	if err != nil {
		return failed(s.clock, s.Name(), start, attempts, err)
	}
	return succeeded(s.clock, s.Name(), start, attempts)
}
