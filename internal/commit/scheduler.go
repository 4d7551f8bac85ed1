// Package commit owns the debounced write path: rapid local edits are
// coalesced per note and flushed to the store as a single title patch
// or a single new version once the typing settles.
package commit

import (
	"sync"
	"time"
)

// Scheduler is a keyed, cancellable delayed-task primitive. Scheduling
// a key that already has a pending task replaces it, which is exactly
// the reset-on-keystroke behavior a debounce needs.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string)
	CancelAll()
}

type timerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() Scheduler {
	return &timerScheduler{timers: make(map[string]*time.Timer)}
}

func (s *timerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

func (s *timerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

func (s *timerScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
