package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCounterd mimics the counterd API surface with a single counter.
type fakeCounterd struct {
	mu      sync.Mutex
	value   int64
	version int64
}

func (f *fakeCounterd) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/counter/1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			fmt.Fprintf(w, `{"id":1,"count":%d,"version":%d}`, f.value, f.version)
		case http.MethodPut:
			var body struct {
				Value int64 `json:"value"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.value = body.Value
			f.version++
			fmt.Fprintf(w, `{"id":1,"count":%d,"version":%d}`, f.value, f.version)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/counter/1/increment", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.value++
		f.version++
		fmt.Fprintf(w, `{"id":1,"count":%d,"version":%d}`, f.value, f.version)
	})
	mux.HandleFunc("/counter/1/cas", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		// The fake treats any request as stale once version > 0.
		if f.version > 0 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		f.value = 1
		f.version = 1
		fmt.Fprintf(w, `{"id":1,"count":%d,"version":%d}`, f.value, f.version)
	})
	mux.HandleFunc("/counter/1/reset", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.value = 0
		f.version = 0
		fmt.Fprint(w, `{"id":1,"count":0,"version":0}`)
	})
	mux.HandleFunc("/counter/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return mux
}

func TestHTTPStore_ReadAndIncrement(t *testing.T) {
	srv := httptest.NewServer((&fakeCounterd{}).handler())
	defer srv.Close()

	s := NewHTTPStore(srv.URL)
	ctx := context.Background()

	value, version, err := s.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), value)
	assert.Equal(t, int64(0), version)

	newValue, err := s.IncrementAtomic(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), newValue)

	value, version, err = s.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
	assert.Equal(t, int64(1), version)
}

func TestHTTPStore_CompareAndSwap(t *testing.T) {
	srv := httptest.NewServer((&fakeCounterd{}).handler())
	defer srv.Close()

	s := NewHTTPStore(srv.URL)
	ctx := context.Background()

	ok, err := s.CompareAndSwap(ctx, 1, 0, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// Server-side version moved; the same expectation is now stale.
	ok, err = s.CompareAndSwap(ctx, 1, 0, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPStore_Write(t *testing.T) {
	srv := httptest.NewServer((&fakeCounterd{}).handler())
	defer srv.Close()

	s := NewHTTPStore(srv.URL)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, 1, 42))

	value, version, err := s.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
	assert.Equal(t, int64(1), version)
}

func TestHTTPStore_NotFound(t *testing.T) {
	srv := httptest.NewServer((&fakeCounterd{}).handler())
	defer srv.Close()

	s := NewHTTPStore(srv.URL)
	_, _, err := s.Read(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStore_UnsupportedPrimitives(t *testing.T) {
	s := NewHTTPStore("http://unused")
	ctx := context.Background()

	err := s.WithTransaction(ctx, Serializable, func(Tx) error { return nil })
	assert.ErrorIs(t, err, ErrUnsupported)

	err = s.AcquireAdvisoryLock(ctx, 1)
	assert.ErrorIs(t, err, ErrUnsupported)
}
