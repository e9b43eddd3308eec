package engine

import (
	"sync"
	"time"
)

type schedulerState int

const (
	stateIdle schedulerState = iota
	stateDebouncing
	statePolling
)

// Scheduler is the debounce-then-poll timer state machine {Idle, Debouncing,
// Polling}. It owns exactly one live timer: entering a new state always
// cancels the timer owned by the previous one. A trigger starts a quiet
// period; when it elapses the refresh fires and repeats on a fixed interval
// until superseded by the next trigger.
//
// During an execution attempt the scheduler is paused entirely and only
// resumed after the attempt settles.
type Scheduler struct {
	mu       sync.Mutex
	state    schedulerState
	timer    *time.Timer
	debounce time.Duration
	interval time.Duration
	fn       func()
	paused   bool
	stopped  bool
}

func NewScheduler(debounce, interval time.Duration, fn func()) *Scheduler {
	return &Scheduler{debounce: debounce, interval: interval, fn: fn}
}

// Trigger starts (or restarts) the debounce window, cancelling any pending
// debounce or poll timer.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelTimerLocked()
	s.state = stateDebouncing
	if s.paused {
		return // re-armed by Resume
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.stopped || s.paused {
		s.mu.Unlock()
		return
	}
	s.state = statePolling
	s.timer = time.AfterFunc(s.interval, s.fire)
	fn := s.fn
	s.mu.Unlock()

	fn()
}

// Pause cancels the live timer and holds the state machine until Resume.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.cancelTimerLocked()
}

// Resume re-arms the timer appropriate to the held state: a pending debounce
// restarts its quiet period, an interrupted poll cycle resumes its cadence.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.stopped {
		return
	}
	s.paused = false
	switch s.state {
	case stateDebouncing:
		s.timer = time.AfterFunc(s.debounce, s.fire)
	case statePolling:
		s.timer = time.AfterFunc(s.interval, s.fire)
	}
}

// Stop cancels everything permanently.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.state = stateIdle
	s.cancelTimerLocked()
}

// State is exposed for tests.
func (s *Scheduler) polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statePolling
}

func (s *Scheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
