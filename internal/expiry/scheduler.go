// Package expiry schedules the session-expiry warning.
package expiry

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc matches time.AfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Delay returns max(expiresIn-warningWindow, minimumDelay).
func Delay(expiresIn, warningWindow, minimumDelay time.Duration) time.Duration {
	d := expiresIn - warningWindow
	if d < minimumDelay {
		return minimumDelay
	}
	return d
}

// Scheduler holds at most one pending expiry warning. Scheduling a new
// warning cancels and replaces the previous one.
type Scheduler struct {
	warningWindow time.Duration
	minimumDelay  time.Duration
	afterFunc     AfterFunc

	mu         sync.Mutex
	timer      Timer
	generation uint64
	scheduled  uint64
}

// NewScheduler creates a Scheduler. A nil afterFunc uses time.AfterFunc.
func NewScheduler(warningWindow, minimumDelay time.Duration, afterFunc AfterFunc) *Scheduler {
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	return &Scheduler{
		warningWindow: warningWindow,
		minimumDelay:  minimumDelay,
		afterFunc:     afterFunc,
	}
}

// Schedule arms fire to run once after Delay(expiresIn, ...) and returns the
// delay used. Any previously armed warning is cancelled.
func (s *Scheduler) Schedule(expiresIn time.Duration, fire func()) time.Duration {
	delay := Delay(expiresIn, s.warningWindow, s.minimumDelay)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	s.scheduled++
	gen := s.generation
	s.timer = s.afterFunc(delay, func() {
		// A timer whose Stop lost the race must not fire for a replaced schedule.
		s.mu.Lock()
		if s.generation != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fire()
	})
	return delay
}

// Cancel disarms the pending warning, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

// Pending reports whether a warning is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Scheduled returns how many times Schedule has been called.
func (s *Scheduler) Scheduled() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}
