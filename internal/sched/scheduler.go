// Package sched owns at most one pending timer per entity name. Arm always
// replaces, Cancel is idempotent, and a canceled timer's callback is
// guaranteed not to run afterwards. A callback that has already started
// firing completes; cancel never interrupts a running callback.
package sched

import (
	"sync"
	"time"
)

type entry struct {
	timer  *time.Timer
	fireAt time.Time
}

// Scheduler maps entity names to a single cancellable timer handle. It holds
// only names, never entity data; callbacks close over whatever they need.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*entry
}

func New() *Scheduler {
	return &Scheduler{timers: make(map[string]*entry)}
}

// Arm cancels any existing timer for name and schedules fn at fireAt.
// A fireAt at or before now fires on the next scheduling opportunity rather
// than being skipped.
func (s *Scheduler) Arm(name string, fireAt time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[name]; ok {
		old.timer.Stop()
		delete(s.timers, name)
	}
	e := &entry{fireAt: fireAt}
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, func() {
		// The entry must still be the registered one: a Stop that lost the
		// race against the runtime firing the timer is detected here and the
		// callback suppressed, which makes Cancel race-free.
		s.mu.Lock()
		cur, ok := s.timers[name]
		if !ok || cur != e {
			s.mu.Unlock()
			return
		}
		delete(s.timers, name)
		s.mu.Unlock()
		fn()
	})
	s.timers[name] = e
}

// Cancel removes the pending timer for name, if any. Canceling an absent or
// already-fired timer is a no-op.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timers[name]; ok {
		e.timer.Stop()
		delete(s.timers, name)
	}
}

// CancelAll drops every pending timer. Used on shutdown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, name)
	}
}

// Armed reports whether a timer is currently pending for name.
func (s *Scheduler) Armed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

// FireAt returns the pending fire time for name, if armed.
func (s *Scheduler) FireAt(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timers[name]; ok {
		return e.fireAt, true
	}
	return time.Time{}, false
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
