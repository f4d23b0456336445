package health

import (
	"sync"
	"time"

	"reelscraper/pkg/logger"
)

const (
	// emaDecay is the exponential-moving-average decay applied to the
	// success rate and latency on every observation.
	emaDecay = 0.9

	// DefaultFailureThreshold is the consecutive-failure count that trips
	// the circuit breaker.
	DefaultFailureThreshold = 5

	// DefaultCooldown is how long a tripped strategy stays disabled.
	DefaultCooldown = 60 * time.Second
)

// Health is the mutable runtime state tracked per strategy. Snapshot
// copies are returned to callers; internal state is only mutated under
// the tracker mutex.
type Health struct {
	Strategy            string        `json:"strategy"`
	SuccessRate         float64       `json:"success_rate"`
	AvgLatency          time.Duration `json:"avg_latency"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Disabled            bool          `json:"disabled"`
	ReEnableAt          time.Time     `json:"re_enable_at,omitempty"`
	TotalAttempts       int64         `json:"total_attempts"`
}

// Tracker maintains rolling health per strategy and implements the
// circuit breaker. Health lives in memory for the process lifetime only;
// a crash resets breaker state, which is acceptable.
type Tracker struct {
	failureThreshold int
	cooldown         time.Duration
	logger           logger.Logger

	mu       sync.Mutex
	statuses map[string]*Health
}

// NewTracker creates a tracker with the given breaker parameters.
// Zero values fall back to the defaults.
func NewTracker(failureThreshold int, cooldown time.Duration, log logger.Logger) *Tracker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Tracker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		logger:           log,
		statuses:         make(map[string]*Health),
	}
}

// Register creates health state for a strategy. Registering an already
// known strategy is a no-op.
func (t *Tracker) Register(strategy string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.statuses[strategy]; !ok {
		t.statuses[strategy] = &Health{
			Strategy:    strategy,
			SuccessRate: 1.0,
		}
	}
}

// RecordOutcome updates a strategy's health after one attempt. The whole
// update is a single logical operation under the tracker mutex because
// parallel execution permits concurrent writers.
func (t *Tracker) RecordOutcome(strategy string, success bool, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.statuses[strategy]
	if !ok {
		h = &Health{Strategy: strategy, SuccessRate: 1.0}
		t.statuses[strategy] = h
	}

	h.TotalAttempts++
	h.AvgLatency = time.Duration(float64(h.AvgLatency)*emaDecay + float64(latency)*(1-emaDecay))

	if success {
		h.SuccessRate = h.SuccessRate*emaDecay + (1 - emaDecay)
		h.ConsecutiveFailures = 0
		return
	}

	h.SuccessRate = h.SuccessRate * emaDecay
	h.ConsecutiveFailures++

	if !h.Disabled && h.ConsecutiveFailures >= t.failureThreshold {
		h.Disabled = true
		h.ReEnableAt = time.Now().Add(t.cooldown)
		t.logger.WarnWithFields("circuit breaker opened", map[string]interface{}{
			"strategy":             strategy,
			"consecutive_failures": h.ConsecutiveFailures,
			"re_enable_at":         h.ReEnableAt,
		})
	}
}

// IsAvailable reports whether a strategy may be attempted. When the
// cooldown of a disabled strategy has elapsed, the breaker closes here:
// Disabled is cleared and ConsecutiveFailures resets to 0. A strategy is
// never silently re-enabled mid-threshold.
func (t *Tracker) IsAvailable(strategy string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.statuses[strategy]
	if !ok {
		return true
	}
	if !h.Disabled {
		return true
	}
	if time.Now().Before(h.ReEnableAt) {
		return false
	}

	h.Disabled = false
	h.ReEnableAt = time.Time{}
	h.ConsecutiveFailures = 0
	t.logger.InfoWithFields("circuit breaker closed after cooldown", map[string]interface{}{
		"strategy": strategy,
	})
	return true
}

// Snapshot returns a copy of one strategy's health.
func (t *Tracker) Snapshot(strategy string) (Health, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.statuses[strategy]
	if !ok {
		return Health{}, false
	}
	return *h, true
}

// All returns copies of every tracked strategy's health.
func (t *Tracker) All() []Health {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Health, 0, len(t.statuses))
	for _, h := range t.statuses {
		out = append(out, *h)
	}
	return out
}
