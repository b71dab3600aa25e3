package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// HTTPStore implements Store against a running counterd service. Only the
// point primitives (read, unchecked write, atomic increment, CAS) exist over
// the wire; transactions and advisory locks are session concepts a stateless
// HTTP API cannot offer, so those return ErrUnsupported.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates a client for the counterd API rooted at baseURL,
// e.g. "http://localhost:8080".
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		base: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (h *HTTPStore) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.base+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// field extracts a required integer field from a JSON response body.
func field(body []byte, path string) (int64, error) {
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return 0, fmt.Errorf("response missing %q field", path)
	}
	return res.Int(), nil
}

func (h *HTTPStore) Read(ctx context.Context, id int64) (int64, int64, error) {
	status, body, err := h.do(ctx, http.MethodGet, fmt.Sprintf("/counter/%d", id), nil)
	if err != nil {
		return 0, 0, err
	}
	if status == http.StatusNotFound {
		return 0, 0, ErrNotFound
	}
	if status != http.StatusOK {
		return 0, 0, fmt.Errorf("read counter %d: status %d", id, status)
	}
	value, err := field(body, "count")
	if err != nil {
		return 0, 0, err
	}
	version, err := field(body, "version")
	if err != nil {
		return 0, 0, err
	}
	return value, version, nil
}

func (h *HTTPStore) Write(ctx context.Context, id, value int64) error {
	payload := struct {
		Value int64 `json:"value"`
	}{Value: value}
	status, _, err := h.do(ctx, http.MethodPut, fmt.Sprintf("/counter/%d", id), payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("write counter %d: status %d", id, status)
	}
	return nil
}

func (h *HTTPStore) IncrementAtomic(ctx context.Context, id int64) (int64, error) {
	status, body, err := h.do(ctx, http.MethodPost, fmt.Sprintf("/counter/%d/increment", id), nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("increment counter %d: status %d", id, status)
	}
	return field(body, "count")
}

func (h *HTTPStore) CompareAndSwap(ctx context.Context, id, expectedVersion, newValue int64) (bool, error) {
	payload := struct {
		ExpectedVersion int64 `json:"expected_version"`
		Value           int64 `json:"value"`
	}{ExpectedVersion: expectedVersion, Value: newValue}
	status, _, err := h.do(ctx, http.MethodPost, fmt.Sprintf("/counter/%d/cas", id), payload)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusConflict:
		return false, nil
	default:
		return false, fmt.Errorf("cas counter %d: status %d", id, status)
	}
}

func (h *HTTPStore) WithTransaction(ctx context.Context, level IsolationLevel, fn func(Tx) error) error {
	return fmt.Errorf("transactions over http: %w", ErrUnsupported)
}

func (h *HTTPStore) AcquireAdvisoryLock(ctx context.Context, key int64) error {
	return fmt.Errorf("advisory locks over http: %w", ErrUnsupported)
}

func (h *HTTPStore) ReleaseAdvisoryLock(key int64) {}

func (h *HTTPStore) Reset(ctx context.Context, id int64) error {
	status, _, err := h.do(ctx, http.MethodPost, fmt.Sprintf("/counter/%d/reset", id), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("reset counter %d: status %d", id, status)
	}
	return nil
}
