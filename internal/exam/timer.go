package exam

import (
	"sync"
	"time"
)

// AutoSubmitScheduler owns the auto-submit timers, at most one per user
// session. Schedule replaces any existing timer for the user, so resuming a
// session can never double-schedule, and Cancel on submit or teardown
// guarantees a stale timer cannot re-submit a finished or replaced session.
type AutoSubmitScheduler struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
}

// NewAutoSubmitScheduler creates an empty scheduler.
func NewAutoSubmitScheduler() *AutoSubmitScheduler {
	return &AutoSubmitScheduler{timers: make(map[int]*time.Timer)}
}

// Schedule arms fn to fire after d for the user's session, cancelling any
// previously armed timer first. The timer deregisters itself on firing, so
// the fired callback runs at most once per Schedule call.
func (s *AutoSubmitScheduler) Schedule(userID int, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[userID]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		// A reschedule may have replaced us between firing and locking;
		// only the current timer gets to run its callback.
		current := s.timers[userID] == timer
		if current {
			delete(s.timers, userID)
		}
		s.mu.Unlock()

		if current {
			fn()
		}
	})
	s.timers[userID] = timer
}

// Cancel disarms the user's timer if one is pending.
func (s *AutoSubmitScheduler) Cancel(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}
}

// CancelAll disarms every pending timer. Used on shutdown.
func (s *AutoSubmitScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, t := range s.timers {
		t.Stop()
		delete(s.timers, userID)
	}
}
