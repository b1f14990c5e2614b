package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// Saver pushes the full answer payload to persistence.
type Saver interface {
	SaveAnswers(ctx context.Context, payload model.AutosavePayload) error
}

// Finalizer marks the attempt finished once the last save has landed.
type Finalizer interface {
	Finalize(ctx context.Context, attemptID uuid.UUID, autoTriggered bool, timeUsed time.Duration) error
}

// Uploader stores captured speaking media and returns the serialized
// answer token to be written into the answer map verbatim.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// questionRef is the per-question metadata the session needs for capture
// normalization and payload building.
type questionRef struct {
	SectionID uuid.UUID
	Idx       int
	Skill     model.Skill
	Type      model.QuestionType
}

// Session owns the volatile state of one in-progress attempt: the answer
// map, the countdown, the debounced autosave, and the speaking recorders.
// It is created on start/resume and torn down on submit or expiry; no
// component mutates its state from a persistence response.
type Session struct {
	attempt   model.Attempt
	questions map[uuid.UUID]questionRef

	answers   *AnswerMap
	countdown *Countdown
	debouncer *Debouncer

	recMu     sync.Mutex
	recorders map[uuid.UUID]*Recorder

	saver     Saver
	finalizer Finalizer
	uploader  Uploader
	log       zerolog.Logger

	submit  submitGuard
	onClose func(attemptID uuid.UUID)
}

// Options configures a new Session.
type Options struct {
	Attempt   model.Attempt
	Paper     *model.Paper
	Saved     map[string]string // previously autosaved answers, qid → value
	Window    time.Duration     // autosave quiet window
	Saver     Saver
	Finalizer Finalizer
	Uploader  Uploader
	Logger    zerolog.Logger
	OnClose   func(attemptID uuid.UUID)
}

// New builds a session from an attempt and its paper, restores saved
// answers, and arms the countdown so expiry triggers an automatic
// submission. Call Close when the session ends.
func New(opts Options) *Session {
	s := &Session{
		attempt:   opts.Attempt,
		questions: indexQuestions(opts.Paper),
		answers:   NewAnswerMap(),
		recorders: make(map[uuid.UUID]*Recorder),
		saver:     opts.Saver,
		finalizer: opts.Finalizer,
		uploader:  opts.Uploader,
		log: opts.Logger.With().
			Str("component", "session").
			Str("attempt_id", opts.Attempt.ID.String()).
			Logger(),
		onClose: opts.OnClose,
	}

	s.answers.Restore(opts.Saved)
	s.debouncer = NewDebouncer(opts.Window, s.flushAutosave)

	duration := time.Duration(opts.Attempt.DurationSec) * time.Second
	s.countdown = NewCountdown(opts.Attempt.StartedAt, duration, func() {
		// Timeout-triggered submission: failures are logged, never surfaced,
		// because the candidate can no longer act.
		_ = s.Submit(context.Background(), true)
	})
	s.countdown.Start()

	return s
}

func indexQuestions(paper *model.Paper) map[uuid.UUID]questionRef {
	idx := make(map[uuid.UUID]questionRef)
	if paper == nil {
		return idx
	}
	for _, sec := range paper.Sections {
		for _, grp := range sec.Groups {
			for _, q := range grp.Questions {
				idx[q.ID] = questionRef{
					SectionID: sec.ID,
					Idx:       q.Idx,
					Skill:     q.Skill,
					Type:      q.Type,
				}
			}
		}
	}
	return idx
}

// AttemptID returns the attempt this session belongs to.
func (s *Session) AttemptID() uuid.UUID {
	return s.attempt.ID
}

// Remaining returns the time left on the attempt clock.
func (s *Session) Remaining() time.Duration {
	return s.countdown.Remaining()
}

// Answers exposes the live answer map snapshot (for state endpoints).
func (s *Session) Answers() map[uuid.UUID]string {
	return s.answers.Snapshot()
}

// flushAutosave is the debouncer's trailing-edge callback. The payload
// is pushed even when the snapshot is empty: clearing the last answer
// must still reach persistence so the stored rows are dropped. A failed
// push is logged and superseded by the next tick or the final forced
// save — it never interrupts the candidate.
func (s *Session) flushAutosave() {
	payload := s.BuildPayload()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.saver.SaveAnswers(ctx, payload); err != nil {
		s.log.Warn().Err(err).
			Int64("client_revision", payload.ClientRevision).
			Msg("Autosave push failed, superseded by next tick")
	}
}

// Close releases the countdown ticker, discards pending autosave, and
// detaches the session from its manager.
func (s *Session) Close() {
	s.debouncer.Cancel()
	s.countdown.Stop()
	if s.onClose != nil {
		s.onClose(s.attempt.ID)
	}
}
