package store

import (
	"sync"
	"time"
)

// defaultWriteDelay is how long the scheduler waits after the last edit
// before flushing, so rapid successive edits coalesce into one remote write.
const defaultWriteDelay = 2 * time.Second

// Scheduler debounces cloud writes. Schedule may be called from any store
// mutation; only the trailing call within the delay window triggers flush.
type Scheduler struct {
	delay time.Duration
	flush func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewScheduler creates a Scheduler invoking flush after the delay. A
// non-positive delay uses the default.
func NewScheduler(delay time.Duration, flush func()) *Scheduler {
	if delay <= 0 {
		delay = defaultWriteDelay
	}
	return &Scheduler{delay: delay, flush: flush}
}

// Schedule arms (or re-arms) the flush timer.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.flush)
}

// Stop cancels any pending flush.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
