package session

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of answer mutations into at most one flush
// per quiet window (trailing-edge debounce). Each Run call resets the
// single pending timer; the flush callback observes the answer state at
// fire time, not at the moment Run was called. The bounded save rate is
// a property of the construction, independent of input frequency.
type Debouncer struct {
	window time.Duration
	flush  func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration, flush func()) *Debouncer {
	return &Debouncer{window: window, flush: flush}
}

// Run schedules (or reschedules) the flush after the quiet window.
// May be called arbitrarily often.
func (d *Debouncer) Run() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Cancel discards any pending flush without firing it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a flush is currently scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.timer == nil {
		// Cancelled after the timer went off but before we got the lock.
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.flush()
}
