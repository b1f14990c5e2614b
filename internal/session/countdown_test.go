package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownRemaining(t *testing.T) {
	c := NewCountdown(time.Now().Add(-30*time.Second), time.Minute, nil)
	defer c.Stop()

	got := c.Remaining()
	if got <= 25*time.Second || got > 30*time.Second {
		t.Errorf("Remaining = %v, want ~30s", got)
	}
}

func TestCountdownRemainingClampsAtZero(t *testing.T) {
	c := NewCountdown(time.Now().Add(-2*time.Minute), time.Minute, nil)
	defer c.Stop()

	if got := c.Remaining(); got != 0 {
		t.Errorf("Remaining past deadline = %v, want 0", got)
	}
}

func TestCountdownZeroStartIsIdle(t *testing.T) {
	var fired atomic.Int32
	c := NewCountdown(time.Time{}, 50*time.Millisecond, func() { fired.Add(1) })
	defer c.Stop()

	if got := c.Remaining(); got != 50*time.Millisecond {
		t.Errorf("idle Remaining = %v, want full duration", got)
	}

	c.Start()
	time.Sleep(1500 * time.Millisecond)

	if n := fired.Load(); n != 0 {
		t.Errorf("idle countdown fired %d times, want 0", n)
	}
	if c.Fired() {
		t.Error("idle countdown reports Fired")
	}
}

func TestCountdownFiresExactlyOnce(t *testing.T) {
	var fired atomic.Int32
	c := NewCountdown(time.Now().Add(-time.Second), 100*time.Millisecond, func() { fired.Add(1) })
	defer c.Stop()

	c.Start()

	// The 1 Hz ticker fires at most three times in this window; the
	// armed → fired transition must collapse them to one callback.
	time.Sleep(3500 * time.Millisecond)

	if n := fired.Load(); n != 1 {
		t.Errorf("expiry callback ran %d times, want 1", n)
	}
	if !c.Fired() {
		t.Error("Fired = false after expiry")
	}
}

func TestCountdownStopBeforeExpiry(t *testing.T) {
	var fired atomic.Int32
	c := NewCountdown(time.Now(), 500*time.Millisecond, func() { fired.Add(1) })

	c.Start()
	c.Stop()
	time.Sleep(1500 * time.Millisecond)

	if n := fired.Load(); n != 0 {
		t.Errorf("stopped countdown fired %d times, want 0", n)
	}

	// Stop is idempotent.
	c.Stop()
}
