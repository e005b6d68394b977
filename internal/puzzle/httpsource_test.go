package puzzle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPSourceLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"fen": "` + goodFEN + `", "moves": "e7e5 d2d4"}]`))
	}))
	defer srv.Close()

	puzzles, err := NewHTTPSource(srv.URL, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(puzzles) != 1 || len(puzzles[0].Moves) != 2 {
		t.Fatalf("unexpected collection: %+v", puzzles)
	}
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"fen": "` + goodFEN + `", "moves": "e7e5"}]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil, WithRetry(3), WithTimeout(2*time.Second))
	puzzles, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(puzzles) != 1 {
		t.Fatalf("expected 1 puzzle after retry, got %d", len(puzzles))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestHTTPSourceGivesUpOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL, nil, WithRetry(3)).Load(context.Background()); err == nil {
		t.Fatalf("expected an error for 404")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("404 must not be retried, got %d requests", got)
	}
}

func TestBackoffDuration(t *testing.T) {
	if d := backoffDuration(1); d != 100*time.Millisecond {
		t.Fatalf("attempt 1: %v", d)
	}
	if d := backoffDuration(3); d != 400*time.Millisecond {
		t.Fatalf("attempt 3: %v", d)
	}
	if d := backoffDuration(20); d != backoffDuration(6) {
		t.Fatalf("backoff should cap at attempt 6")
	}
}
