package session

import (
	"slices"
	"sync"
	"time"
)

// Scheduler runs fn once after d. Implementations may call fn on any
// goroutine.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler schedules on the runtime timer
type TimerScheduler struct{}

func (TimerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

type scheduledCall struct {
	due time.Time
	fn  func()
}

// ManualScheduler queues callbacks until the owner runs them. The console
// drives it from its event loop and tests drive it directly.
type ManualScheduler struct {
	mu      sync.Mutex
	now     func() time.Time
	pending []scheduledCall
}

// NewManualScheduler creates an empty queue using the wall clock for due times
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{now: time.Now}
}

func (m *ManualScheduler) After(d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, scheduledCall{due: m.now().Add(d), fn: fn})
}

// Pending reports how many callbacks are waiting
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// NextDue returns the earliest due time, if any callback is waiting
func (m *ManualScheduler) NextDue() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return time.Time{}, false
	}
	next := m.pending[0].due
	for _, c := range m.pending[1:] {
		if c.due.Before(next) {
			next = c.due
		}
	}
	return next, true
}

// RunDue runs every callback due at or before now and returns the count.
// Callbacks run without the scheduler lock held.
func (m *ManualScheduler) RunDue(now time.Time) int {
	m.mu.Lock()
	var due []scheduledCall
	m.pending = slices.DeleteFunc(m.pending, func(c scheduledCall) bool {
		if !c.due.After(now) {
			due = append(due, c)
			return true
		}
		return false
	})
	m.mu.Unlock()

	for _, c := range due {
		c.fn()
	}
	return len(due)
}

// RunAll runs every waiting callback regardless of due time
func (m *ManualScheduler) RunAll() int {
	m.mu.Lock()
	due := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, c := range due {
		c.fn()
	}
	return len(due)
}
