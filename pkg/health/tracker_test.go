package health

import (
	"testing"
	"time"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	tracker := NewTracker(5, time.Minute, nil)
	tracker.Register("api")

	for i := 0; i < 4; i++ {
		tracker.RecordOutcome("api", false, 100*time.Millisecond)
		if !tracker.IsAvailable("api") {
			t.Fatalf("strategy disabled after only %d failures", i+1)
		}
	}

	tracker.RecordOutcome("api", false, 100*time.Millisecond)
	if tracker.IsAvailable("api") {
		t.Error("strategy should be disabled after 5 consecutive failures")
	}

	h, ok := tracker.Snapshot("api")
	if !ok {
		t.Fatal("expected health state for api")
	}
	if !h.Disabled {
		t.Error("snapshot should show Disabled")
	}
	if h.ConsecutiveFailures != 5 {
		t.Errorf("ConsecutiveFailures = %d, want 5", h.ConsecutiveFailures)
	}
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	tracker := NewTracker(5, time.Minute, nil)
	tracker.Register("embed")

	for i := 0; i < 4; i++ {
		tracker.RecordOutcome("embed", false, time.Millisecond)
	}
	tracker.RecordOutcome("embed", true, time.Millisecond)

	h, _ := tracker.Snapshot("embed")
	if h.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d after success, want 0", h.ConsecutiveFailures)
	}

	// Four more failures still should not trip the breaker.
	for i := 0; i < 4; i++ {
		tracker.RecordOutcome("embed", false, time.Millisecond)
	}
	if !tracker.IsAvailable("embed") {
		t.Error("breaker should not trip before the threshold is reached again")
	}
}

func TestBreakerClosesAfterCooldown(t *testing.T) {
	tracker := NewTracker(2, 30*time.Millisecond, nil)
	tracker.Register("scrape")

	tracker.RecordOutcome("scrape", false, time.Millisecond)
	tracker.RecordOutcome("scrape", false, time.Millisecond)
	if tracker.IsAvailable("scrape") {
		t.Fatal("breaker should be open")
	}

	time.Sleep(50 * time.Millisecond)
	if !tracker.IsAvailable("scrape") {
		t.Fatal("breaker should close after the cooldown elapses")
	}

	// Closing the breaker resets the failure count.
	h, _ := tracker.Snapshot("scrape")
	if h.Disabled {
		t.Error("health should no longer be disabled")
	}
	if h.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d after re-enable, want 0", h.ConsecutiveFailures)
	}
}

func TestSuccessRateDecays(t *testing.T) {
	tracker := NewTracker(0, 0, nil)
	tracker.Register("api")

	h, _ := tracker.Snapshot("api")
	if h.SuccessRate != 1.0 {
		t.Fatalf("initial SuccessRate = %v, want 1.0", h.SuccessRate)
	}

	tracker.RecordOutcome("api", false, time.Millisecond)
	h, _ = tracker.Snapshot("api")
	if h.SuccessRate >= 1.0 || h.SuccessRate < 0.89 {
		t.Errorf("SuccessRate after one failure = %v, want 0.9", h.SuccessRate)
	}

	tracker.RecordOutcome("api", true, time.Millisecond)
	h2, _ := tracker.Snapshot("api")
	if h2.SuccessRate <= h.SuccessRate {
		t.Error("SuccessRate should recover after a success")
	}
}

func TestUnknownStrategyIsAvailable(t *testing.T) {
	tracker := NewTracker(0, 0, nil)
	if !tracker.IsAvailable("never-registered") {
		t.Error("unknown strategies default to available")
	}
}

func TestRecordOutcomeRegistersImplicitly(t *testing.T) {
	tracker := NewTracker(0, 0, nil)
	tracker.RecordOutcome("lazy", true, 10*time.Millisecond)

	h, ok := tracker.Snapshot("lazy")
	if !ok {
		t.Fatal("RecordOutcome should create health state")
	}
	if h.TotalAttempts != 1 {
		t.Errorf("TotalAttempts = %d, want 1", h.TotalAttempts)
	}
}

func TestAllReturnsEveryStrategy(t *testing.T) {
	tracker := NewTracker(0, 0, nil)
	tracker.Register("a")
	tracker.Register("b")
	tracker.Register("c")

	if got := len(tracker.All()); got != 3 {
		t.Errorf("All() returned %d entries, want 3", got)
	}
}
