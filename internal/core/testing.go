package core

import "sync"

// MockWriter captures writes for assertions. Safe for concurrent use, which
// matters because the progress printer writes from its own goroutine.
type MockWriter struct {
	mu  sync.Mutex
	buf []byte
}

func (w *MockWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *MockWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buf)
}
