// Package scheduler tracks the two clocks that drive outbound traffic: the
// jittered periodic broadcast deadline and the rate-limited triggered
// update. It holds no socket or table state — internal/router reads its
// decisions and calls back into it after each broadcast.
package scheduler

import (
	"math/rand"
	"time"

	"github.com/ripdaemon/ripd/internal/config"
)

// Scheduler is the mutable timer state described in spec.md §3
// (SchedulerState) and driven per §4.4. It is owned by the single event
// loop goroutine, like internal/table.Table.
type Scheduler struct {
	timers config.Timers
	rng    *rand.Rand

	periodicDeadline time.Time
	triggerEarliest  time.Time
	triggeredPending bool
}

// New creates a Scheduler with its first periodic deadline jittered from
// now, and a trigger window that allows an immediate triggered update if
// one is owed before the first periodic broadcast.
func New(timers config.Timers, now time.Time) *Scheduler {
	s := &Scheduler{
		timers:          timers,
		rng:             rand.New(rand.NewSource(now.UnixNano())),
		triggerEarliest: now,
	}
	s.periodicDeadline = s.nextPeriodicDeadline(now)
	return s
}

func (s *Scheduler) nextPeriodicDeadline(now time.Time) time.Time {
	jitter := jitterDuration(s.rng, -s.timers.PeriodicJitter, s.timers.PeriodicJitter)
	return now.Add(s.timers.PeriodicBase).Add(jitter)
}

func (s *Scheduler) nextTriggerEarliest(now time.Time) time.Time {
	jitter := jitterDuration(s.rng, s.timers.TriggerMin, s.timers.TriggerMax)
	return now.Add(jitter)
}

// jitterDuration returns a uniformly random duration in [lo, hi).
func jitterDuration(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	span := hi - lo
	return lo + time.Duration(rng.Int63n(int64(span)))
}

// MarkChanged records that the forwarding table changed and a triggered
// update is owed. Multiple calls between broadcasts coalesce into a single
// pending flag.
func (s *Scheduler) MarkChanged() {
	s.triggeredPending = true
}

// DuePeriodic reports whether the periodic deadline has arrived.
func (s *Scheduler) DuePeriodic(now time.Time) bool {
	return !now.Before(s.periodicDeadline)
}

// DueTriggered reports whether a triggered update is owed and the
// rate-limit window has elapsed.
func (s *Scheduler) DueTriggered(now time.Time) bool {
	return s.triggeredPending && !now.Before(s.triggerEarliest)
}

// ReschedulePeriodic advances the periodic deadline after a periodic
// broadcast.
func (s *Scheduler) ReschedulePeriodic(now time.Time) {
	s.periodicDeadline = s.nextPeriodicDeadline(now)
}

// RescheduleTriggered clears the pending flag and advances the rate-limit
// window after a triggered broadcast.
func (s *Scheduler) RescheduleTriggered(now time.Time) {
	s.triggeredPending = false
	s.triggerEarliest = s.nextTriggerEarliest(now)
}

// WaitDuration computes how long the event loop should block on socket
// readiness before it must wake up and re-evaluate timers, per spec.md
// §4.4: the minimum of time-until-periodic-deadline and, only if a trigger
// is pending, time-until-trigger-earliest. Negative results are clamped to
// zero.
func (s *Scheduler) WaitDuration(now time.Time) time.Duration {
	wait := s.periodicDeadline.Sub(now)
	if s.triggeredPending {
		if tw := s.triggerEarliest.Sub(now); tw < wait {
			wait = tw
		}
	}
	if wait < 0 {
		return 0
	}
	return wait
}

// TriggeredPending reports whether a triggered update is currently owed.
func (s *Scheduler) TriggeredPending() bool { return s.triggeredPending }
