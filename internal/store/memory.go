package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// row is a single counter row. Its mutex doubles as the row lock: short-held
// by point operations, and pinned across a transaction by ReadForUpdate.
type row struct {
	mu      sync.Mutex
	value   int64
	version int64
}

// MemoryStore implements Store with in-memory state guarded entirely by
// store-side primitives. An optional per-operation latency simulates the
// round trip to a real backing service; without it the read-modify-write
// window of the naive strategy is too narrow to reliably demonstrate loss.
type MemoryStore struct {
	mu      sync.RWMutex
	rows    map[int64]*row
	latency time.Duration

	advMu    sync.Mutex
	advisory map[int64]chan struct{}
}

// NewMemoryStore creates an empty in-memory store with no simulated latency.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithLatency(0)
}

// NewMemoryStoreWithLatency creates a store that sleeps for latency at the
// start of every operation, imitating a networked backing store.
func NewMemoryStoreWithLatency(latency time.Duration) *MemoryStore {
	return &MemoryStore{
		rows:     make(map[int64]*row),
		latency:  latency,
		advisory: make(map[int64]chan struct{}),
	}
}

// simulate models one round trip to the backing service.
func (m *MemoryStore) simulate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	if m.latency > 0 {
		time.Sleep(m.latency)
	}
	return nil
}

// getRow returns the row for id, creating it at value=0 version=0 on first use.
func (m *MemoryStore) getRow(id int64) *row {
	m.mu.RLock()
	r, ok := m.rows[id]
	m.mu.RUnlock()
	if ok {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok = m.rows[id]; !ok {
		r = &row{}
		m.rows[id] = r
	}
	return r
}

func (m *MemoryStore) Read(ctx context.Context, id int64) (int64, int64, error) {
	if err := m.simulate(ctx); err != nil {
		return 0, 0, err
	}
	r := m.getRow(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.version, nil
}

func (m *MemoryStore) Write(ctx context.Context, id, value int64) error {
	if err := m.simulate(ctx); err != nil {
		return err
	}
	r := m.getRow(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
	r.version++
	return nil
}

func (m *MemoryStore) IncrementAtomic(ctx context.Context, id int64) (int64, error) {
	if err := m.simulate(ctx); err != nil {
		return 0, err
	}
	r := m.getRow(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value++
	r.version++
	return r.value, nil
}

func (m *MemoryStore) CompareAndSwap(ctx context.Context, id, expectedVersion, newValue int64) (bool, error) {
	if err := m.simulate(ctx); err != nil {
		return false, err
	}
	r := m.getRow(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != expectedVersion {
		return false, nil
	}
	r.value = newValue
	r.version++
	return true, nil
}

func (m *MemoryStore) Reset(ctx context.Context, id int64) error {
	if err := m.simulate(ctx); err != nil {
		return err
	}
	r := m.getRow(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = 0
	r.version = 0
	return nil
}

// memTx implements Tx against a MemoryStore. Reads record the version first
// observed per row; Serializable commits validate those versions under the
// row locks and abort with ErrConflict if any row moved.
type memTx struct {
	store  *MemoryStore
	level  IsolationLevel
	reads  map[int64]int64 // row id -> version at first read
	writes map[int64]int64 // row id -> pending value
	locked map[int64]*row  // rows pinned by ReadForUpdate
}

func (m *MemoryStore) WithTransaction(ctx context.Context, level IsolationLevel, fn func(Tx) error) error {
	if err := m.simulate(ctx); err != nil {
		return err
	}
	tx := &memTx{
		store:  m,
		level:  level,
		reads:  make(map[int64]int64),
		writes: make(map[int64]int64),
		locked: make(map[int64]*row),
	}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return tx.commit(ctx)
}

func (t *memTx) Read(id int64) (int64, int64, error) {
	r := t.store.getRow(id)
	if _, held := t.locked[id]; !held {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	if _, seen := t.reads[id]; !seen {
		t.reads[id] = r.version
	}
	return r.value, r.version, nil
}

func (t *memTx) ReadForUpdate(id int64) (int64, int64, error) {
	r := t.store.getRow(id)
	if _, held := t.locked[id]; !held {
		r.mu.Lock() // blocks behind concurrent writers holding the row
		t.locked[id] = r
	}
	if _, seen := t.reads[id]; !seen {
		t.reads[id] = r.version
	}
	return r.value, r.version, nil
}

func (t *memTx) Write(id, value int64) error {
	t.writes[id] = value
	return nil
}

// commit applies buffered writes under the row locks. Rows are locked in
// ascending id order so concurrent multi-row transactions cannot deadlock.
func (t *memTx) commit(ctx context.Context) error {
	if err := t.store.simulate(ctx); err != nil {
		t.rollback()
		return err
	}

	touched := make(map[int64]struct{}, len(t.reads)+len(t.writes))
	for id := range t.reads {
		touched[id] = struct{}{}
	}
	for id := range t.writes {
		touched[id] = struct{}{}
	}
	ids := make([]int64, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	acquired := make([]*row, 0, len(ids))
	for _, id := range ids {
		if _, held := t.locked[id]; held {
			continue
		}
		r := t.store.getRow(id)
		r.mu.Lock()
		acquired = append(acquired, r)
	}
	defer func() {
		for _, r := range acquired {
			r.mu.Unlock()
		}
		t.releaseLocked()
	}()

	if t.level == Serializable {
		for id, ver := range t.reads {
			if t.store.getRow(id).version != ver {
				return ErrConflict
			}
		}
	}

	for id, value := range t.writes {
		r := t.store.getRow(id)
		r.value = value
		r.version++
	}
	return nil
}

func (t *memTx) rollback() {
	t.releaseLocked()
	t.writes = nil
}

func (t *memTx) releaseLocked() {
	for id, r := range t.locked {
		r.mu.Unlock()
		delete(t.locked, id)
	}
}

// advisoryChan returns the single-slot channel backing the lock for key.
func (m *MemoryStore) advisoryChan(key int64) chan struct{} {
	m.advMu.Lock()
	defer m.advMu.Unlock()
	ch, ok := m.advisory[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.advisory[key] = ch
	}
	return ch
}

func (m *MemoryStore) AcquireAdvisoryLock(ctx context.Context, key int64) error {
	if err := m.simulate(ctx); err != nil {
		return err
	}
	select {
	case m.advisoryChan(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquiring advisory lock %d: %w", key, ctx.Err())
	}
}

func (m *MemoryStore) ReleaseAdvisoryLock(key int64) {
	select {
	case <-m.advisoryChan(key):
	default: // releasing an unheld lock is a no-op
	}
}
