package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitSuccess(t *testing.T) {
	s, deps := newTestSession()

	if err := s.SetAnswer(qSingle, "opt-a"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	if err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !s.Submitted() {
		t.Error("Submitted = false after successful submit")
	}
	if deps.saver.count() != 1 {
		t.Errorf("saver called %d times, want 1", deps.saver.count())
	}
	if deps.finalizer.count() != 1 {
		t.Fatalf("finalizer called %d times, want 1", deps.finalizer.count())
	}

	call := deps.finalizer.call(0)
	if call.attemptID != testAttemptID {
		t.Errorf("finalized attempt %v, want %v", call.attemptID, testAttemptID)
	}
	if call.autoTriggered {
		t.Error("manual submit reported as auto-triggered")
	}
	if call.timeUsed < 0 || call.timeUsed > time.Hour {
		t.Errorf("timeUsed = %v, want within attempt duration", call.timeUsed)
	}
}

func TestSubmitIsReentrantSafe(t *testing.T) {
	s, deps := newTestSession()

	if err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("second Submit should be a silent no-op, got %v", err)
	}

	if deps.saver.count() != 1 || deps.finalizer.count() != 1 {
		t.Errorf("duplicate submit reached persistence: saver=%d finalizer=%d, want 1/1",
			deps.saver.count(), deps.finalizer.count())
	}
}

func TestSubmitClosesCapture(t *testing.T) {
	s, _ := newTestSession()

	if err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	err := s.SetAnswer(qSingle, "opt-a")
	if !errors.Is(err, ErrAttemptClosed) {
		t.Errorf("SetAnswer after submit = %v, want ErrAttemptClosed", err)
	}
}

func TestSubmitCancelsPendingAutosave(t *testing.T) {
	s, deps := newTestSession()

	if err := s.SetAnswer(qSingle, "opt-a"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if !s.debouncer.Pending() {
		t.Fatal("expected a pending flush before submit")
	}

	if err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if s.debouncer.Pending() {
		t.Error("pending flush survived submit")
	}
	// Only the synchronous final save landed.
	if deps.saver.count() != 1 {
		t.Errorf("saver called %d times, want exactly the final save", deps.saver.count())
	}
}

func TestSubmitManualFailureIsRetryable(t *testing.T) {
	s, deps := newTestSession()
	deps.saver.setErr(errors.New("redis down"))

	if err := s.Submit(context.Background(), false); err == nil {
		t.Fatal("Submit with failing saver should return the error")
	}
	if s.Submitted() {
		t.Error("failed submit must not latch the done state")
	}

	// The candidate can still change answers and retry.
	if err := s.SetAnswer(qSingle, "opt-b"); err != nil {
		t.Fatalf("SetAnswer after failed submit: %v", err)
	}

	deps.saver.setErr(nil)
	if err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if !s.Submitted() {
		t.Error("retry did not complete the submission")
	}
}

func TestSubmitAutoTriggeredFailureIsSwallowed(t *testing.T) {
	s, deps := newTestSession()
	defer s.Close()
	deps.saver.setErr(errors.New("redis down"))

	if err := s.Submit(context.Background(), true); err != nil {
		t.Errorf("timeout-triggered submit surfaced error %v, want nil", err)
	}
	if s.Submitted() {
		t.Error("failed auto submit must not latch the done state")
	}
}

func TestSubmitFinalizerFailure(t *testing.T) {
	s, deps := newTestSession()
	deps.finalizer.err = errors.New("pg down")

	if err := s.Submit(context.Background(), false); err == nil {
		t.Fatal("Submit with failing finalizer should return the error")
	}
	// The save landed but finalization did not; retry runs both again.
	deps.finalizer.err = nil
	if err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if deps.saver.count() != 2 {
		t.Errorf("saver called %d times across retry, want 2", deps.saver.count())
	}
}
