package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// testClient builds a Client with no politeness delay and a recording
// sleep hook so backoff behavior can be asserted without real waiting.
func testClient(t *testing.T, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()

	rec := &sleepRecorder{}
	c := New(&http.Client{Timeout: 5 * time.Second}, opts...)
	c.sleep = rec.sleep
	return c, rec
}

// sleepRecorder records every duration passed to the client's sleep hook.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

// recorded returns the recorded waits.
func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

// TestFetchRetry tests the retry and backoff behavior.
func TestFetchRetry(t *testing.T) {
	t.Parallel()

	t.Run("retries 503 then succeeds with increasing backoff", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		c, rec := testClient(t, WithRetryLimit(3), WithBackoff(100*time.Millisecond, time.Minute))

		body, err := c.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("expected success after retries, got %v", err)
		}
		if string(body) != "ok" {
			t.Errorf("unexpected body: %q", body)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}

		// Two backoff waits, strictly increasing. The politeness delay is
		// disabled, so the recorder only saw backoff intervals.
		waits := rec.recorded()
		if len(waits) != 2 {
			t.Fatalf("expected 2 backoff waits, got %d: %v", len(waits), waits)
		}
		if waits[1] <= waits[0] {
			t.Errorf("backoff not strictly increasing: %v", waits)
		}
	})

	t.Run("404 fails immediately without retry", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			mu.Lock()
			attempts++
			mu.Unlock()
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c, rec := testClient(t, WithRetryLimit(5))

		_, err := c.Fetch(context.Background(), srv.URL)
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *Error, got %T: %v", err, err)
		}
		if fetchErr.Kind != KindHTTP4xx {
			t.Errorf("expected http-4xx, got %s", fetchErr.Kind)
		}
		if attempts != 1 {
			t.Errorf("expected exactly 1 attempt, got %d", attempts)
		}
		if len(rec.recorded()) != 0 {
			t.Errorf("expected no backoff waits, got %v", rec.recorded())
		}
	})

	t.Run("429 honors Retry-After hint", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n == 1 {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		c, rec := testClient(t, WithRetryLimit(2), WithBackoff(time.Millisecond, time.Minute))

		if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		waits := rec.recorded()
		if len(waits) != 1 {
			t.Fatalf("expected 1 wait, got %v", waits)
		}
		if waits[0] != 7*time.Second {
			t.Errorf("expected Retry-After of 7s to be honored, got %v", waits[0])
		}
	})

	t.Run("exhausted retries surface last error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c, _ := testClient(t, WithRetryLimit(2), WithBackoff(time.Millisecond, time.Second))

		_, err := c.Fetch(context.Background(), srv.URL)
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if fetchErr.Kind != KindHTTP5xx {
			t.Errorf("expected http-5xx, got %s", fetchErr.Kind)
		}
		if fetchErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", fetchErr.StatusCode)
		}
	})

	t.Run("malformed url fails without network activity", func(t *testing.T) {
		t.Parallel()

		c, rec := testClient(t, WithRetryLimit(3))

		_, err := c.Fetch(context.Background(), "not a url")
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if fetchErr.Kind != KindNetwork {
			t.Errorf("expected network kind, got %s", fetchErr.Kind)
		}
		if len(rec.recorded()) != 0 {
			t.Errorf("expected no waits for malformed url, got %v", rec.recorded())
		}
	})
}

// TestFetchPoliteness tests the per-request politeness delay.
func TestFetchPoliteness(t *testing.T) {
	t.Parallel()

	t.Run("delay drawn from configured bounds", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		c, rec := testClient(t, WithDelayBounds(20*time.Millisecond, 50*time.Millisecond))

		for range 10 {
			if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
				t.Fatalf("fetch failed: %v", err)
			}
		}

		waits := rec.recorded()
		if len(waits) != 10 {
			t.Fatalf("expected 10 delays, got %d", len(waits))
		}
		for _, w := range waits {
			if w < 20*time.Millisecond || w > 50*time.Millisecond {
				t.Errorf("delay %v outside [20ms, 50ms]", w)
			}
		}
	})

	t.Run("no delay when bounds are zero", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		c, rec := testClient(t)
		if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(rec.recorded()) != 0 {
			t.Errorf("expected no delays, got %v", rec.recorded())
		}
	})
}

// TestFetchCancellation tests prompt abort on context cancellation.
func TestFetchCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(&http.Client{Timeout: time.Second}, WithRetryLimit(5))
	_, err := c.Fetch(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

// TestFetchBodyLimit tests that oversized bodies are truncated.
func TestFetchBodyLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 1024))
	}))
	defer srv.Close()

	c, _ := testClient(t, WithMaxBodySize(100))
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(body) != 100 {
		t.Errorf("expected truncated body of 100 bytes, got %d", len(body))
	}
}

// TestFetchHeaders tests User-Agent and custom header propagation.
func TestFetchHeaders(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		mu.Unlock()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, _ := testClient(t,
		WithUserAgent("test-agent/2.0"),
		WithHeaders(map[string]string{"Accept-Language": "de-DE"}),
	)
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if gotUA != "test-agent/2.0" {
		t.Errorf("expected custom user agent, got %q", gotUA)
	}
	if gotLang != "de-DE" {
		t.Errorf("expected custom header, got %q", gotLang)
	}
}
