package session

import (
	"sync"
	"time"
)

// countdownState is the explicit expiry state machine. The single-fire
// guarantee is structural: the callback runs only on the armed → fired
// transition, so overlapping ticks cannot double-fire.
type countdownState int

const (
	countdownIdle countdownState = iota // no start timestamp, never ticks
	countdownArmed
	countdownFired
)

// Countdown derives remaining time from a fixed duration and a start
// timestamp. Remaining time is recomputed from the wall clock on every
// read — never decremented — so pauses and delayed ticks cause no drift.
type Countdown struct {
	startedAt time.Time
	duration  time.Duration
	onExpire  func()

	mu    sync.Mutex
	state countdownState
	done  chan struct{}
	once  sync.Once
}

// NewCountdown creates a countdown. A zero startedAt leaves the countdown
// idle: Remaining reports the full duration and onExpire never fires.
// Call Start to begin ticking and Stop to release the ticker.
func NewCountdown(startedAt time.Time, duration time.Duration, onExpire func()) *Countdown {
	c := &Countdown{
		startedAt: startedAt,
		duration:  duration,
		onExpire:  onExpire,
		state:     countdownIdle,
		done:      make(chan struct{}),
	}
	if !startedAt.IsZero() {
		c.state = countdownArmed
	}
	return c
}

// Remaining returns max(0, duration - (now - start)).
func (c *Countdown) Remaining() time.Duration {
	if c.startedAt.IsZero() {
		return c.duration
	}
	remaining := c.duration - time.Since(c.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Start launches the 1 Hz tick loop. No-op for an idle countdown.
// If the deadline already passed, the expiry callback fires on the
// first tick.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.state != countdownArmed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	go c.run()
}

func (c *Countdown) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.Remaining() > 0 {
				continue
			}
			if c.fire() {
				return
			}
		}
	}
}

// fire transitions armed → fired and invokes the callback. Returns true
// when the tick loop should exit (fired now or previously).
func (c *Countdown) fire() bool {
	c.mu.Lock()
	if c.state != countdownArmed {
		c.mu.Unlock()
		return true
	}
	c.state = countdownFired
	c.mu.Unlock()

	if c.onExpire != nil {
		c.onExpire()
	}
	return true
}

// Fired reports whether the expiry callback has run.
func (c *Countdown) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == countdownFired
}

// Stop releases the tick loop. Safe to call multiple times and
// regardless of whether Start was called.
func (c *Countdown) Stop() {
	c.once.Do(func() { close(c.done) })
}
