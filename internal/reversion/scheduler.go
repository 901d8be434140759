// Package reversion arms the single timer that ends a time-bounded running
// mode. A reversion is Scheduled, then either Fired or Cancelled; a new one
// may only be armed once the previous one has reached one of those states.
package reversion

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSchedulingConflict is returned when Arm is called while a reversion is
// still scheduled. It indicates a controller bug.
var ErrSchedulingConflict = errors.New("scheduling conflict")

// State is the lifecycle state of a reversion.
type State string

const (
	StateScheduled State = "SCHEDULED"
	StateFired     State = "FIRED"
	StateCancelled State = "CANCELLED"
)

// Reversion describes a scheduled or finished reversion.
type Reversion struct {
	RecordID string
	At       time.Time
	State    State
}

type slot struct {
	recordID string
	at       time.Time
	timer    Timer
}

// Scheduler holds at most one pending reversion.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	pending *slot
	last    *Reversion
}

// New creates a Scheduler on the given clock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Arm schedules fire(recordID) at the given instant. Instants in the past fire
// as soon as the clock allows. The callback must call Claim before acting.
func (s *Scheduler) Arm(recordID string, at time.Time, fire func(recordID string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return fmt.Errorf("%w: reversion for record %s is still scheduled", ErrSchedulingConflict, s.pending.recordID)
	}

	d := at.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	p := &slot{recordID: recordID, at: at}
	p.timer = s.clock.AfterFunc(d, func() { fire(recordID) })
	s.pending = p
	return nil
}

// Cancel stops the pending reversion, if any, and reports whether one was
// cancelled. A timer whose callback is already running will fail its Claim.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return false
	}
	s.pending.timer.Stop()
	s.finish(StateCancelled)
	return true
}

// Claim marks the pending reversion for recordID as fired. It returns false
// when that reversion was cancelled or superseded, in which case the caller
// must do nothing.
func (s *Scheduler) Claim(recordID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || s.pending.recordID != recordID {
		return false
	}
	s.finish(StateFired)
	return true
}

// Pending returns the scheduled reversion, if any.
func (s *Scheduler) Pending() (Reversion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return Reversion{}, false
	}
	return Reversion{RecordID: s.pending.recordID, At: s.pending.at, State: StateScheduled}, true
}

// Last returns the most recently finished reversion.
func (s *Scheduler) Last() (Reversion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return Reversion{}, false
	}
	return *s.last, true
}

// finish must be called with mu held.
func (s *Scheduler) finish(state State) {
	s.last = &Reversion{RecordID: s.pending.recordID, At: s.pending.at, State: state}
	s.pending = nil
}
