package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	limiter := NewRequestLimiter(3, time.Minute, 0)

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	if limiter.Allow() {
		t.Error("request beyond the window cap should be denied")
	}
}

func TestAllowEnforcesRequestDelay(t *testing.T) {
	limiter := NewRequestLimiter(100, time.Minute, 50*time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow() {
		t.Error("second request inside the min delay should be denied")
	}

	time.Sleep(60 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("request after the min delay should be allowed")
	}
}

func TestWaitBlocksUntilSlotOpens(t *testing.T) {
	limiter := NewRequestLimiter(1, 100*time.Millisecond, 0)

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait should return immediately: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("second Wait should eventually succeed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second Wait returned after %v, expected to block for the window", elapsed)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	limiter := NewRequestLimiter(1, time.Hour, 0)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if err == nil {
		t.Fatal("Wait should return the context error when cancelled")
	}
	if err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestWaitNeverRejects(t *testing.T) {
	// A saturated limiter delays but still admits every caller eventually.
	limiter := NewRequestLimiter(2, 80*time.Millisecond, 0)

	for i := 0; i < 5; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d failed: %v", i+1, err)
		}
	}
}

func TestReset(t *testing.T) {
	limiter := NewRequestLimiter(1, time.Hour, time.Hour)
	limiter.Allow()

	if limiter.Allow() {
		t.Fatal("limiter should be saturated before reset")
	}

	limiter.Reset()
	if !limiter.Allow() {
		t.Error("limiter should admit requests after reset")
	}
}

func TestSlidingWindowExpiry(t *testing.T) {
	limiter := NewRequestLimiter(2, 80*time.Millisecond, 0)

	limiter.Allow()
	limiter.Allow()
	if limiter.Allow() {
		t.Fatal("window should be saturated")
	}

	time.Sleep(100 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("old requests should have slid out of the window")
	}
}
