package scheduler

import (
	"testing"
	"time"

	"github.com/ripdaemon/ripd/internal/config"
)

func testTimers() config.Timers {
	return config.Timers{
		PeriodicBase:   10 * time.Second,
		PeriodicJitter: 2 * time.Second,
		RouteTimeout:   30 * time.Second,
		GarbageTimeout: 60 * time.Second,
		TriggerMin:     1 * time.Second,
		TriggerMax:     5 * time.Second,
	}
}

func TestNewSchedulesPeriodicWithinJitterRange(t *testing.T) {
	now := time.Now()
	s := New(testTimers(), now)

	wait := s.periodicDeadline.Sub(now)
	if wait < 8*time.Second || wait > 12*time.Second {
		t.Fatalf("initial periodic wait = %v, want within [8s,12s]", wait)
	}
}

func TestDuePeriodic(t *testing.T) {
	now := time.Now()
	s := New(testTimers(), now)

	if s.DuePeriodic(now) {
		t.Fatal("DuePeriodic() immediately after New(): want false")
	}
	if !s.DuePeriodic(now.Add(20 * time.Second)) {
		t.Fatal("DuePeriodic() well past deadline: want true")
	}
}

func TestTriggeredRateLimiting(t *testing.T) {
	now := time.Now()
	s := New(testTimers(), now)

	if s.DueTriggered(now) {
		t.Fatal("DueTriggered() with nothing pending: want false")
	}

	s.MarkChanged()
	if !s.DueTriggered(now) {
		t.Fatal("DueTriggered() right after MarkChanged() with no prior broadcast: want true")
	}

	s.RescheduleTriggered(now)
	if s.TriggeredPending() {
		t.Fatal("TriggeredPending() after RescheduleTriggered(): want false")
	}

	// A change within the rate-limit window coalesces rather than firing immediately.
	s.MarkChanged()
	soon := now.Add(500 * time.Millisecond)
	if s.DueTriggered(soon) {
		t.Fatal("DueTriggered() within rate-limit window: want false")
	}

	later := now.Add(6 * time.Second)
	if !s.DueTriggered(later) {
		t.Fatal("DueTriggered() after rate-limit window elapses: want true")
	}
}

func TestWaitDurationIgnoresTriggerWhenNotPending(t *testing.T) {
	now := time.Now()
	s := New(testTimers(), now)
	s.triggerEarliest = now.Add(1 * time.Millisecond) // would be the minimum if considered
	s.periodicDeadline = now.Add(10 * time.Second)

	if got := s.WaitDuration(now); got != 10*time.Second {
		t.Fatalf("WaitDuration() = %v, want 10s (trigger not pending)", got)
	}
}

func TestWaitDurationUsesEarlierTriggerWhenPending(t *testing.T) {
	now := time.Now()
	s := New(testTimers(), now)
	s.MarkChanged()
	s.triggerEarliest = now.Add(2 * time.Second)
	s.periodicDeadline = now.Add(10 * time.Second)

	if got := s.WaitDuration(now); got != 2*time.Second {
		t.Fatalf("WaitDuration() = %v, want 2s", got)
	}
}

func TestWaitDurationClampsNegativeToZero(t *testing.T) {
	now := time.Now()
	s := New(testTimers(), now)
	s.periodicDeadline = now.Add(-5 * time.Second)

	if got := s.WaitDuration(now); got != 0 {
		t.Fatalf("WaitDuration() = %v, want 0", got)
	}
}
