package session

import (
	"testing"
	"time"
)

func TestManagerPutGetRemove(t *testing.T) {
	m := NewManager()
	s, _ := newTestSession()
	defer s.Close()

	if _, ok := m.Get(testAttemptID); ok {
		t.Fatal("empty manager returned a session")
	}

	m.Put(s)
	got, ok := m.Get(testAttemptID)
	if !ok || got != s {
		t.Fatal("Get after Put did not return the registered session")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	m.Remove(testAttemptID)
	if _, ok := m.Get(testAttemptID); ok {
		t.Error("Get after Remove returned a session")
	}
}

func TestManagerPutReplacesExisting(t *testing.T) {
	m := NewManager()
	first, _ := newTestSession()
	second, _ := newTestSession()
	defer second.Close()

	m.Put(first)
	m.Put(second)

	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after replacing", m.Len())
	}
	got, _ := m.Get(testAttemptID)
	if got != second {
		t.Error("replaced session still registered")
	}
}

func TestSessionCloseDetachesFromManager(t *testing.T) {
	m := NewManager()
	s, _ := newTestSession(func(o *Options) {
		o.OnClose = m.Remove
	})
	m.Put(s)

	s.Close()

	if m.Len() != 0 {
		t.Errorf("Len after Close = %d, want 0", m.Len())
	}
}

func TestSessionRestoresSavedAnswers(t *testing.T) {
	s, _ := newTestSession(func(o *Options) {
		o.Saved = map[string]string{
			qSingle.String():     "opt-a",
			qCompletion.String(): "harbour",
		}
	})
	defer s.Close()

	answers := s.Answers()
	if len(answers) != 2 {
		t.Fatalf("restored %d answers, want 2", len(answers))
	}
	if answers[qSingle] != "opt-a" || answers[qCompletion] != "harbour" {
		t.Errorf("restored answers = %v", answers)
	}
}

func TestSessionExpirySubmitsAutomatically(t *testing.T) {
	s, deps := newTestSession(func(o *Options) {
		o.Attempt.StartedAt = time.Now().Add(-time.Hour)
		o.Attempt.DurationSec = 60
	})

	// The 1 Hz tick notices the passed deadline and force-submits.
	deadline := time.Now().Add(3 * time.Second)
	for !s.Submitted() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	if !s.Submitted() {
		t.Fatal("expired session never auto-submitted")
	}
	if deps.finalizer.count() != 1 {
		t.Fatalf("finalizer called %d times, want 1", deps.finalizer.count())
	}
	if !deps.finalizer.call(0).autoTriggered {
		t.Error("expiry submission not flagged auto-triggered")
	}
	if got := deps.finalizer.call(0).timeUsed; got != time.Minute {
		t.Errorf("timeUsed = %v, want capped at the full duration", got)
	}
}
