package session

import (
	"context"
	"sync/atomic"
	"time"
)

// submitGuard is the submission reentrancy latch: idle → in-flight →
// done. A failed manual submission returns to idle so the candidate can
// retry; a successful one is terminal.
type submitGuard struct {
	state atomic.Int32
}

const (
	submitIdle int32 = iota
	submitInFlight
	submitDone
)

func (g *submitGuard) begin() bool {
	return g.state.CompareAndSwap(submitIdle, submitInFlight)
}

func (g *submitGuard) succeed() { g.state.Store(submitDone) }
func (g *submitGuard) fail()    { g.state.Store(submitIdle) }

// active reports whether a submission is in flight or already done.
func (g *submitGuard) active() bool {
	return g.state.Load() != submitIdle
}

// Submit finalizes the attempt. The ordering is load-bearing:
//
//  1. reentrancy guard — a second overlapping call returns immediately;
//  2. cancel the debounced autosave, so no stale in-flight tick can
//     overwrite what we are about to save;
//  3. build the payload from the current answer map and push it
//     synchronously;
//  4. finalize the attempt with the persistence service;
//  5. on success, tear the session down — review is now reachable.
//
// A failed manual submission is returned to the caller for an actionable
// retry. A failed timeout-triggered submission is logged only: the
// candidate has no more time to act on it.
func (s *Session) Submit(ctx context.Context, autoTriggered bool) error {
	if !s.submit.begin() {
		return nil
	}

	s.debouncer.Cancel()

	payload := s.BuildPayload()
	timeUsed := s.timeUsed()

	err := s.saver.SaveAnswers(ctx, payload)
	if err == nil {
		err = s.finalizer.Finalize(ctx, s.attempt.ID, autoTriggered, timeUsed)
	}

	if err != nil {
		s.submit.fail()
		if autoTriggered {
			s.log.Error().Err(err).Msg("Timeout-triggered submission failed")
			return nil
		}
		return err
	}

	s.submit.succeed()
	s.log.Info().
		Bool("auto", autoTriggered).
		Dur("time_used", timeUsed).
		Int("answers", len(payload.Answers)).
		Msg("Attempt submitted")

	s.Close()
	return nil
}

// Submitted reports whether the attempt was successfully finalized.
func (s *Session) Submitted() bool {
	return s.submit.state.Load() == submitDone
}

// timeUsed is wall time since start, capped at the attempt duration.
func (s *Session) timeUsed() time.Duration {
	duration := time.Duration(s.attempt.DurationSec) * time.Second
	if s.attempt.StartedAt.IsZero() {
		return 0
	}
	used := time.Since(s.attempt.StartedAt)
	if used > duration {
		return duration
	}
	return used
}
