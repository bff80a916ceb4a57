package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pithecene-io/resdump/adapter"
	"github.com/pithecene-io/resdump/iox"
)

func testEvent() *adapter.DumpNormalizedEvent {
	return &adapter.DumpNormalizedEvent{
		ContractVersion: "0.1.0",
		EventType:       adapter.EventTypeDumpNormalized,
		Source:          "cqpc.bin",
		Device:          "mlx5_0",
		Kind:            "binary",
		Width:           32,
		WordCount:       42,
		StoragePath:     "device=mlx5_0/kind=binary/day=2026-10-17",
		Timestamp:       "2026-10-17T12:00:00Z",
		DurationMs:      15,
	}
}

func newAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	if cfg.Backoff == 0 {
		cfg.Backoff = time.Millisecond
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { iox.DiscardClose(a) })
	return a
}

func TestPublish_Success(t *testing.T) {
	var received adapter.DumpNormalizedEvent
	var eventHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		eventHeader = r.Header.Get("X-Resdump-Event")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{URL: ts.URL})
	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if received.Source != "cqpc.bin" || received.WordCount != 42 {
		t.Errorf("unexpected event: %+v", received)
	}
	if eventHeader != adapter.EventTypeDumpNormalized {
		t.Errorf("X-Resdump-Event = %q", eventHeader)
	}
}

func TestPublish_CustomHeaders(t *testing.T) {
	var authHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{URL: ts.URL, Headers: map[string]string{"Authorization": "Bearer tok"}})
	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if authHeader != "Bearer tok" {
		t.Errorf("Authorization = %q", authHeader)
	}
}

func TestPublish_DigestHeader(t *testing.T) {
	var digests []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		digests = append(digests, r.Header.Get("X-Resdump-Digest"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{URL: ts.URL})
	ev := testEvent()
	if err := a.Publish(t.Context(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ev.Digest = "ab12"
	if err := a.Publish(t.Context(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(digests) != 2 || digests[0] != "" || digests[1] != "ab12" {
		t.Errorf("digest headers = %q", digests)
	}
}

func TestPublish_StatusHandling(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		retries   int
		wantCalls int32
		wantErr   bool
		wantCode  int
	}{
		{"2xx accepted", []int{http.StatusAccepted}, 2, 1, false, 0},
		{"5xx then ok", []int{http.StatusBadGateway, http.StatusOK}, 2, 2, false, 0},
		{"5xx exhausts", []int{500, 500, 500}, 2, 3, true, 500},
		{"4xx immediate", []int{http.StatusBadRequest}, 3, 1, true, 400},
		{"429 retried", []int{http.StatusTooManyRequests, http.StatusOK}, 1, 2, false, 0},
		{"408 exhausts", []int{http.StatusRequestTimeout}, 1, 2, true, 408},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.statuses[min(int(n), len(tt.statuses))-1])
			}))
			defer ts.Close()

			a := newAdapter(t, Config{URL: ts.URL, Retries: tt.retries})
			err := a.Publish(t.Context(), testEvent())
			if (err != nil) != tt.wantErr {
				t.Fatalf("publish error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantCode != 0 {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != tt.wantCode {
					t.Errorf("expected StatusError %d, got %v", tt.wantCode, err)
				}
			}
		})
	}
}

func TestPublish_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	a := newAdapter(t, Config{URL: ts.URL, Retries: 5, Backoff: time.Second})

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	if err := a.Publish(ctx, testEvent()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "http://localhost", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}

	a, err := New(Config{URL: "http://localhost"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", a.config.Timeout, DefaultTimeout)
	}
}
