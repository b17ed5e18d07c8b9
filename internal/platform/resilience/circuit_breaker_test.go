package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold int, openTimeout time.Duration, halfOpenMax int) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMax,
	})
	clock := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute, 1)

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("unexpected allow error before threshold: %v", err)
		}
		b.RecordFailure()
	}
	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("unexpected state below threshold: got=%v want=%v", got, CircuitStateClosed)
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("unexpected allow error: %v", err)
	}
	b.RecordFailure()

	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("unexpected state after threshold: got=%v want=%v", got, CircuitStateOpen)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("unexpected allow error while open: got=%v want=%v", err, ErrCircuitOpen)
	}
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute, 1)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("unexpected state: got=%v want=%v", got, CircuitStateClosed)
	}
}

func TestCircuitBreaker_HalfOpenProbeClosesOnSuccess(t *testing.T) {
	b, clock := newTestBreaker(1, time.Minute, 1)

	b.RecordFailure()
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got: %v", err)
	}

	*clock = clock.Add(time.Minute)
	if got := b.State(); got != CircuitStateHalfOpen {
		t.Fatalf("unexpected state after cooldown: got=%v want=%v", got, CircuitStateHalfOpen)
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("probe request should be allowed: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second probe should be rejected, got: %v", err)
	}

	b.RecordSuccess()
	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("unexpected state after probe success: got=%v want=%v", got, CircuitStateClosed)
	}
}

func TestCircuitBreaker_HalfOpenProbeReopensOnFailure(t *testing.T) {
	b, clock := newTestBreaker(1, time.Minute, 2)

	b.RecordFailure()
	*clock = clock.Add(time.Minute)

	if err := b.Allow(); err != nil {
		t.Fatalf("probe request should be allowed: %v", err)
	}
	b.RecordFailure()

	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("unexpected state after probe failure: got=%v want=%v", got, CircuitStateOpen)
	}
}

func TestCircuitBreakerConfig_Normalized(t *testing.T) {
	cfg := CircuitBreakerConfig{}.normalized()
	defaults := DefaultCircuitBreakerConfig()

	if cfg.FailureThreshold != defaults.FailureThreshold {
		t.Fatalf("unexpected failure threshold: got=%d want=%d", cfg.FailureThreshold, defaults.FailureThreshold)
	}
	if cfg.OpenTimeout != defaults.OpenTimeout {
		t.Fatalf("unexpected open timeout: got=%v want=%v", cfg.OpenTimeout, defaults.OpenTimeout)
	}
	if cfg.HalfOpenMaxReq != defaults.HalfOpenMaxReq {
		t.Fatalf("unexpected half-open max: got=%d want=%d", cfg.HalfOpenMaxReq, defaults.HalfOpenMaxReq)
	}
}
