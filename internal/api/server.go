// Package api exposes a counter store over HTTP for counterd. The surface
// mirrors what the benchmark's HTTP store client consumes: point reads,
// unchecked writes, an atomic increment, and a version-checked
// compare-and-swap that reports conflicts as 409.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"contend/internal/store"
)

type server struct {
	store store.Store
}

// NewServer wires the counter endpoints into a router and exposes a health
// check.
func NewServer(st store.Store) http.Handler {
	s := &server{store: st}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/counter/{id}", func(r chi.Router) {
		r.Get("/", s.getCounter)
		r.Put("/", s.putCounter)
		r.Post("/increment", s.increment)
		r.Post("/cas", s.compareAndSwap)
		r.Post("/reset", s.reset)
	})
	return r
}

func (s *server) counterID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "counter id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *server) getCounter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.counterID(w, r)
	if !ok {
		return
	}
	value, version, err := s.store.Read(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Counter{ID: id, Value: value, Version: version})
}

func (s *server) putCounter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.counterID(w, r)
	if !ok {
		return
	}
	var body struct {
		Value int64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.Write(r.Context(), id, body.Value); err != nil {
		storeError(w, err)
		return
	}
	value, version, err := s.store.Read(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Counter{ID: id, Value: value, Version: version})
}

func (s *server) increment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.counterID(w, r)
	if !ok {
		return
	}
	value, err := s.store.IncrementAtomic(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	_, version, err := s.store.Read(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Counter{ID: id, Value: value, Version: version})
}

func (s *server) compareAndSwap(w http.ResponseWriter, r *http.Request) {
	id, ok := s.counterID(w, r)
	if !ok {
		return
	}
	var body struct {
		ExpectedVersion int64 `json:"expected_version"`
		Value           int64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	swapped, err := s.store.CompareAndSwap(r.Context(), id, body.ExpectedVersion, body.Value)
	if err != nil {
		storeError(w, err)
		return
	}

	value, version, err := s.store.Read(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	status := http.StatusOK
	if !swapped {
		status = http.StatusConflict
	}
	writeJSON(w, status, store.Counter{ID: id, Value: value, Version: version})
}

func (s *server) reset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.counterID(w, r)
	if !ok {
		return
	}
	if err := s.store.Reset(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Counter{ID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
