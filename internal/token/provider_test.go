package token

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProvider_AcquireSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"jwt-abc"}`))
	}))
	defer server.Close()

	p := NewProvider(server.URL, 3)

	tok, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if tok != "jwt-abc" {
		t.Errorf("Expected token jwt-abc, got %q", tok)
	}
}

func TestProvider_AcquireRetriesWithBackoff(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"token":"jwt-retry"}`))
	}))
	defer server.Close()

	p := NewProvider(server.URL, 3)
	var slept []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	tok, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if tok != "jwt-retry" {
		t.Errorf("Expected token jwt-retry, got %q", tok)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}

	// Backoff doubles per attempt: 1s then 2s
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("Expected %d sleeps, got %d", len(want), len(slept))
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("Sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestProvider_AcquireSurfacesFinalFailure(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewProvider(server.URL, 3)
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
}

func TestProvider_AcquireRejectsEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p := NewProvider(server.URL, 1)

	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("Expected error for response without a token")
	}
}

func TestProvider_AcquireHonoursContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProvider(server.URL, 5)

	if _, err := p.Acquire(ctx); err == nil {
		t.Fatal("Expected error when context is cancelled")
	}
}

func TestProvider_KeepFreshRefreshesOnInterval(t *testing.T) {
	requests := make(chan struct{}, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- struct{}{}
		w.Write([]byte(`{"token":"jwt-fresh"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewProvider(server.URL, 1)
	go p.KeepFresh(ctx, 5*time.Millisecond)

	// One immediate acquire plus at least one interval refresh
	for i := 0; i < 2; i++ {
		select {
		case <-requests:
		case <-time.After(2 * time.Second):
			t.Fatalf("request %d not observed", i+1)
		}
	}
}

func TestProvider_KeepFreshStopsOnCancel(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"token":"jwt-stop"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewProvider(server.URL, 1)

	done := make(chan struct{})
	go func() {
		p.KeepFresh(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("KeepFresh did not stop on cancellation")
	}
}
