// Package store defines the counter store contract and provides concrete
// implementations: an in-memory reference store and an HTTP client for a
// remote counterd service.
//
// The store is the sole arbiter of ordering among concurrent writers. Every
// coordination primitive a strategy may lean on (atomic add, version-checked
// compare-and-swap, serializable transactions, row locks, advisory locks)
// lives behind this contract so strategies never synchronize in-process.
package store

import (
	"context"
	"errors"
)

var (
	// ErrConflict is returned when the store detects a write conflict:
	// a serializable transaction that cannot commit, or a row version that
	// moved underneath an optimistic writer. Always retryable.
	ErrConflict = errors.New("write conflict")

	// ErrNotFound is returned when a counter id has never been created.
	ErrNotFound = errors.New("counter not found")

	// ErrUnsupported is returned by stores that cannot provide a given
	// primitive (the HTTP store has no transactions or advisory locks).
	// Never retryable.
	ErrUnsupported = errors.New("operation not supported by this store")
)

// IsolationLevel selects transaction semantics for WithTransaction.
type IsolationLevel int

const (
	// ReadCommitted provides no commit-time validation; writers rely on
	// explicit row locks (ReadForUpdate) for correctness.
	ReadCommitted IsolationLevel = iota

	// Serializable validates at commit that no row read by the transaction
	// was modified concurrently, aborting with ErrConflict otherwise.
	Serializable
)

// Counter is a point-in-time snapshot of a counter row.
// Version increases by exactly 1 per successful write, on every write path.
type Counter struct {
	ID      int64 `json:"id"`
	Value   int64 `json:"count"`
	Version int64 `json:"version"`
}

// Tx is the handle passed to a WithTransaction body.
// A Tx must only be used from the goroutine that opened it.
type Tx interface {
	// Read returns the row's current value and version without locking it.
	Read(id int64) (value, version int64, err error)

	// ReadForUpdate reads the row under an exclusive row lock that is held
	// until the transaction commits or rolls back. Concurrent writers block
	// in a queue behind the lock.
	ReadForUpdate(id int64) (value, version int64, err error)

	// Write buffers a new value for the row; it is applied atomically at
	// commit, bumping the version by 1.
	Write(id, value int64) error
}

// Store is the narrow contract strategies mutate counters through.
// All implementations must be safe for concurrent use.
type Store interface {
	// Read is a point-in-time read with no side effects.
	Read(ctx context.Context, id int64) (value, version int64, err error)

	// Write unconditionally replaces the value and bumps the version.
	// No conflict check of any kind: this is the naive strategy's hazard.
	Write(ctx context.Context, id, value int64) error

	// IncrementAtomic adds 1 server-side and returns the new value.
	// Cannot be observed mid-flight and never fails due to contention.
	IncrementAtomic(ctx context.Context, id int64) (int64, error)

	// CompareAndSwap updates value and version iff the stored version still
	// equals expectedVersion. On mismatch it returns false with no partial
	// effect; repeated calls with a stale version keep returning false.
	CompareAndSwap(ctx context.Context, id, expectedVersion, newValue int64) (bool, error)

	// WithTransaction runs fn inside a transaction at the given isolation
	// level, committing on nil and rolling back on error. A serialization
	// failure at commit surfaces as ErrConflict.
	WithTransaction(ctx context.Context, level IsolationLevel, fn func(Tx) error) error

	// AcquireAdvisoryLock blocks until the session-scoped lock for key is
	// held, or ctx expires. The key is independent of any row's contents.
	AcquireAdvisoryLock(ctx context.Context, key int64) error

	// ReleaseAdvisoryLock releases a lock taken by AcquireAdvisoryLock.
	// Releasing a lock that is not held is a no-op.
	ReleaseAdvisoryLock(key int64)

	// Reset zeroes the counter's value and version, creating it if needed.
	Reset(ctx context.Context, id int64) error
}
