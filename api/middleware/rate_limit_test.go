package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
)

type stubLimiterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newStubLimiterStore() *stubLimiterStore {
	return &stubLimiterStore{counts: map[string]int64{}}
}

func (s *stubLimiterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

func limiterLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func limitedRequest(handler http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/quotes", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitBlocksAboveLimit(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	policy := NewRateLimitPolicy("quotes", time.Minute, 2)
	handler := RateLimit(policy, store, limiterLogger())(okHandler())

	for i := 0; i < 2; i++ {
		if code := limitedRequest(handler, "10.0.0.1:1234", ""); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := limitedRequest(handler, "10.0.0.1:1234", ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once over the limit, got %d", code)
	}
}

func TestRateLimitIsPerIP(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	policy := NewRateLimitPolicy("quotes", time.Minute, 1)
	handler := RateLimit(policy, store, limiterLogger())(okHandler())

	if code := limitedRequest(handler, "10.0.0.1:1234", ""); code != http.StatusOK {
		t.Fatalf("first ip: expected 200, got %d", code)
	}
	if code := limitedRequest(handler, "10.0.0.2:1234", ""); code != http.StatusOK {
		t.Fatalf("second ip: expected 200, got %d", code)
	}
	if code := limitedRequest(handler, "10.0.0.1:1234", ""); code != http.StatusTooManyRequests {
		t.Fatalf("first ip again: expected 429, got %d", code)
	}
}

func TestRateLimitUsesForwardedFor(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	policy := NewRateLimitPolicy("quotes", time.Minute, 1)
	handler := RateLimit(policy, store, limiterLogger())(okHandler())

	limitedRequest(handler, "10.0.0.1:1234", "203.0.113.7, 10.0.0.1")

	if _, ok := store.counts["rl:ip:quotes:203.0.113.7"]; !ok {
		t.Fatalf("expected the forwarded client ip in the key, got %v", store.counts)
	}
}

func TestRateLimitFailsOpenOnStoreErrors(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	store.err = errors.New("connection refused")
	policy := NewRateLimitPolicy("quotes", time.Minute, 1)
	handler := RateLimit(policy, store, limiterLogger())(okHandler())

	for i := 0; i < 5; i++ {
		if code := limitedRequest(handler, "10.0.0.1:1234", ""); code != http.StatusOK {
			t.Fatalf("limiter outage must not block traffic, got %d", code)
		}
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	t.Parallel()

	store := newStubLimiterStore()
	policy := NewRateLimitPolicy("quotes", 0, 0)
	handler := RateLimit(policy, store, limiterLogger())(okHandler())

	for i := 0; i < 10; i++ {
		if code := limitedRequest(handler, "10.0.0.1:1234", ""); code != http.StatusOK {
			t.Fatalf("disabled policy must pass through, got %d", code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store, got %v", store.counts)
	}
}
