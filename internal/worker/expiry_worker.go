package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/repository"
	"github.com/linguaprep/linguaprep-backend/internal/service"
	"github.com/linguaprep/linguaprep-backend/internal/session"
)

const (
	ExpirySweepInterval = 30 * time.Second
	ExpirySweepLimit    = 100
)

// ExpiryWorker sweeps for attempts whose clock ran out without a live
// session firing the countdown: the process restarted mid-attempt, or
// the candidate vanished and never resumed. Attempts with a live
// session go through the normal auto-submit path so pending answers are
// flushed first; orphans are finalized directly.
type ExpiryWorker struct {
	attemptRepo *repository.AttemptRepository
	attempts    *service.AttemptService
	sessions    *session.Manager
	log         zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(
	attemptRepo *repository.AttemptRepository,
	attempts *service.AttemptService,
	sessions *session.Manager,
	log zerolog.Logger,
) *ExpiryWorker {
	return &ExpiryWorker{
		attemptRepo: attemptRepo,
		attempts:    attempts,
		sessions:    sessions,
		log:         log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the periodic sweep loop. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ExpiryWorker started")

	ticker := time.NewTicker(ExpirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpiryWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	overdue, err := w.attemptRepo.ListOverdue(ctx, time.Now(), ExpirySweepLimit)
	if err != nil {
		w.log.Error().Err(err).Msg("Overdue scan failed")
		return
	}

	for i := range overdue {
		a := &overdue[i]

		if sess, ok := w.sessions.Get(a.ID); ok {
			// Live session missed its tick somehow; fire the normal path.
			if err := sess.Submit(ctx, true); err != nil {
				w.log.Error().Err(err).
					Str("attempt_id", a.ID.String()).
					Msg("Auto-submit of live session failed")
			}
			continue
		}

		timeUsed := time.Duration(a.DurationSec) * time.Second
		if err := w.attempts.Finalize(ctx, a.ID, true, timeUsed); err != nil {
			w.log.Error().Err(err).
				Str("attempt_id", a.ID.String()).
				Msg("Finalize of orphaned attempt failed")
			continue
		}

		w.log.Info().
			Str("attempt_id", a.ID.String()).
			Time("deadline", a.Deadline()).
			Msg("Expired orphaned attempt")
	}
}
