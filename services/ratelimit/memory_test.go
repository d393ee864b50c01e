package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_fixedWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	limiter := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow() failed: %v", err)
		}
		if !ok {
			t.Fatalf("Allow() #%d = false, want true", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow() failed: %v", err)
	}
	if ok {
		t.Error("Allow() over the limit = true, want false")
	}

	// other keys have their own window
	if ok, _ = limiter.Allow(ctx, "user-2"); !ok {
		t.Error("Allow() for another key = false, want true")
	}

	// the window resets after the interval
	now = now.Add(time.Minute + time.Second)
	if ok, _ = limiter.Allow(ctx, "user-1"); !ok {
		t.Error("Allow() after the window reset = false, want true")
	}
}

func TestMemoryLimiter_evictsExpiredWindows(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	limiter := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "active"); err != nil {
		t.Fatalf("Allow() failed: %v", err)
	}
	if _, err := limiter.Allow(ctx, "idle"); err != nil {
		t.Fatalf("Allow() failed: %v", err)
	}
	if len(limiter.windows) != 2 {
		t.Fatalf("len(windows) = %d, want 2", len(limiter.windows))
	}

	// the next request after both windows expire sweeps the idle key out
	now = now.Add(time.Minute + time.Second)
	if _, err := limiter.Allow(ctx, "active"); err != nil {
		t.Fatalf("Allow() failed: %v", err)
	}
	if len(limiter.windows) != 1 {
		t.Errorf("len(windows) = %d, want only the active key", len(limiter.windows))
	}
	if _, ok := limiter.windows["idle"]; ok {
		t.Error("idle window survived the sweep")
	}
}
