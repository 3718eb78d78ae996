package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(srv.Addr(), "", "test:login", limit, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter, srv
}

func TestFixedWindowLimiterEnforcesLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)

	for i := 0; i < 2; i++ {
		if !limiter.Allow("203.0.113.5") {
			t.Fatalf("request %d should be within quota", i+1)
		}
	}
	if limiter.Allow("203.0.113.5") {
		t.Fatal("request over quota should be blocked")
	}
	// Other keys count independently.
	if !limiter.Allow("203.0.113.9") {
		t.Fatal("different key should have its own quota")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	limiter, srv := newTestLimiter(t, 5)
	srv.Close()
	if limiter.Allow("203.0.113.5") {
		t.Fatal("redis failure must deny, not allow")
	}
}

func TestFixedWindowLimiterConstructorValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "p", 1, time.Minute); err == nil {
		t.Fatal("expected error for missing addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 0, time.Minute); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 1, 0); err == nil {
		t.Fatal("expected error for non-positive window")
	}
}

func TestFixedWindowLimiterNilDenies(t *testing.T) {
	var limiter *FixedWindowLimiter
	if limiter.Allow("anything") {
		t.Fatal("nil limiter must deny")
	}
}
