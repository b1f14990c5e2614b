package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/config"
	"github.com/linguaprep/linguaprep-backend/internal/model"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
	"github.com/linguaprep/linguaprep-backend/internal/session"
)

// Common attempt errors.
var (
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrAttemptFinished = errors.New("attempt is already finished")
	ErrNotAttemptOwner = errors.New("attempt belongs to another candidate")
)

// AttemptService drives the attempt lifecycle: start/resume, live answer
// capture through in-process sessions, and submission. It is the
// session.Saver and session.Finalizer for every session it creates, so
// autosave pushes land in the Redis mirror and the persist queue, and a
// finished attempt is marked in PostgreSQL and queued for grading.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
	papers      *PaperService
	rdb         *redis.Client
	sessions    *session.Manager
	uploader    session.Uploader
	window      time.Duration
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	papers *PaperService,
	rdb *redis.Client,
	sessions *session.Manager,
	uploader session.Uploader,
	window time.Duration,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		papers:      papers,
		rdb:         rdb,
		sessions:    sessions,
		uploader:    uploader,
		window:      window,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start begins an attempt for a candidate, or resumes the existing one.
// One attempt per (exam, candidate) pair; a second start resolves to the
// original attempt no matter which device it comes from.
func (s *AttemptService) Start(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Attempt, error) {
	paper, err := s.papers.GetPaper(ctx, examID)
	if err != nil {
		return nil, err
	}

	existing, err := s.attemptRepo.GetByExamAndCandidate(ctx, examID, candidateID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing attempt: %w", err)
	}

	if existing != nil {
		if existing.Status.Terminal() {
			return existing, nil
		}
		s.cacheStart(ctx, existing)
		if _, err := s.ensureSession(ctx, existing, paper); err != nil {
			return nil, err
		}
		return existing, nil
	}

	attempt := &model.Attempt{
		ExamID:      examID,
		CandidateID: candidateID,
		Status:      model.AttemptStatusInProgress,
		DurationSec: paper.DurationSec,
		StartedAt:   time.Now(),
	}

	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent start resolved by the unique constraint.
			existing, fetchErr := s.attemptRepo.GetByExamAndCandidate(ctx, examID, candidateID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", fetchErr)
			}
			attempt = existing
		} else {
			return nil, fmt.Errorf("create attempt: %w", err)
		}
	}

	s.cacheStart(ctx, attempt)
	if _, err := s.ensureSession(ctx, attempt, paper); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Int("candidate_id", candidateID).
		Msg("Attempt started")
	return attempt, nil
}

func (s *AttemptService) cacheStart(ctx context.Context, a *model.Attempt) {
	startKey := config.CacheKey.AttemptStartKey(a.ID.String())
	if err := s.rdb.Set(ctx, startKey, a.StartedAt.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to cache start time")
	}
	_ = s.rdb.Set(ctx, config.CacheKey.CandidateActiveAttemptKey(a.CandidateID), a.ID.String(), 0)
}

// ensureSession returns the live session for an attempt, rebuilding it
// from the Redis answer mirror (PostgreSQL fallback) after a restart.
func (s *AttemptService) ensureSession(ctx context.Context, attempt *model.Attempt, paper *model.Paper) (*session.Session, error) {
	if sess, ok := s.sessions.Get(attempt.ID); ok {
		return sess, nil
	}

	if paper == nil {
		var err error
		paper, err = s.papers.GetPaper(ctx, attempt.ExamID)
		if err != nil {
			return nil, err
		}
	}

	saved, err := s.loadSavedAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}

	sess := session.New(session.Options{
		Attempt:   *attempt,
		Paper:     paper,
		Saved:     saved,
		Window:    s.window,
		Saver:     s,
		Finalizer: s,
		Uploader:  s.uploader,
		Logger:    s.log,
		OnClose:   s.sessions.Remove,
	})
	s.sessions.Put(sess)
	return sess, nil
}

// loadSavedAnswers reads the attempt's answer mirror from Redis and, on
// an empty mirror, falls back to the persisted rows and self-heals.
func (s *AttemptService) loadSavedAnswers(ctx context.Context, attemptID uuid.UUID) (map[string]string, error) {
	mirrorKey := config.CacheKey.AttemptAnswersKey(attemptID.String())
	saved, err := s.rdb.HGetAll(ctx, mirrorKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer mirror: %w", err)
	}
	if len(saved) > 0 {
		return saved, nil
	}

	records, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list persisted answers: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	saved = make(map[string]string, len(records))
	fields := make(map[string]interface{}, len(records))
	for _, rec := range records {
		value := rec.SelectedText
		if len(rec.SelectedOptionIDs) > 0 {
			value = strings.Join(rec.SelectedOptionIDs, ",")
		}
		if value == "" {
			continue
		}
		saved[rec.QuestionID.String()] = value
		fields[rec.QuestionID.String()] = value
	}
	if len(fields) > 0 {
		_ = s.rdb.HSet(ctx, mirrorKey, fields)
	}
	return saved, nil
}

// State returns what a reloading client needs: saved answers plus
// remaining time recomputed from the start timestamp. The start time is
// read from Redis with a PostgreSQL fallback and self-heal, so an
// evicted cache never blocks a resume.
func (s *AttemptService) State(ctx context.Context, attemptID uuid.UUID, candidateID int) (*model.AttemptState, error) {
	attempt, err := s.getOwned(ctx, attemptID, candidateID)
	if err != nil {
		return nil, err
	}

	saved, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer mirror: %w", err)
	}
	if saved == nil {
		saved = map[string]string{}
	}

	var startUnix int64
	startKey := config.CacheKey.AttemptStartKey(attemptID.String())
	val, err := s.rdb.Get(ctx, startKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		startUnix = attempt.StartedAt.Unix()
		_ = s.rdb.Set(ctx, startKey, startUnix, 0)
	case err != nil:
		return nil, fmt.Errorf("get start time: %w", err)
	default:
		startUnix, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid start time in cache: %w", err)
		}
	}

	remaining := float64(0)
	if !attempt.Status.Terminal() {
		deadline := time.Unix(startUnix, 0).Add(time.Duration(attempt.DurationSec) * time.Second)
		if until := time.Until(deadline); until > 0 {
			remaining = until.Seconds()
		}
	}

	return &model.AttemptState{
		AttemptID:     attempt.ID,
		Status:        attempt.Status,
		SavedAnswers:  saved,
		RemainingSec:  remaining,
		DurationSec:   attempt.DurationSec,
		StartedAtUnix: startUnix,
	}, nil
}

// SetAnswer routes one answer change through the attempt's live session,
// which normalizes the value and schedules a debounced autosave.
func (s *AttemptService) SetAnswer(ctx context.Context, attemptID uuid.UUID, candidateID int, questionID uuid.UUID, value string) error {
	sess, err := s.activeSession(ctx, attemptID, candidateID)
	if err != nil {
		return err
	}
	return sess.SetAnswer(questionID, value)
}

// Submit finishes an attempt on candidate request.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, candidateID int) error {
	sess, err := s.activeSession(ctx, attemptID, candidateID)
	if err != nil {
		return err
	}
	return sess.Submit(ctx, false)
}

// Session returns the live session for an in-progress attempt after an
// ownership check, rebuilding it if the process restarted.
func (s *AttemptService) Session(ctx context.Context, attemptID uuid.UUID, candidateID int) (*session.Session, error) {
	return s.activeSession(ctx, attemptID, candidateID)
}

func (s *AttemptService) activeSession(ctx context.Context, attemptID uuid.UUID, candidateID int) (*session.Session, error) {
	attempt, err := s.getOwned(ctx, attemptID, candidateID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.Terminal() {
		return nil, ErrAttemptFinished
	}
	return s.ensureSession(ctx, attempt, nil)
}

func (s *AttemptService) getOwned(ctx context.Context, attemptID uuid.UUID, candidateID int) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.CandidateID != candidateID {
		return nil, ErrNotAttemptOwner
	}
	return attempt, nil
}

// GetAttempt returns an attempt after an ownership check.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID uuid.UUID, candidateID int) (*model.Attempt, error) {
	return s.getOwned(ctx, attemptID, candidateID)
}

// ListAttempts returns a candidate's attempts, newest first.
func (s *AttemptService) ListAttempts(ctx context.Context, candidateID int) ([]model.Attempt, error) {
	return s.attemptRepo.ListByCandidate(ctx, candidateID)
}

// SaveAnswers implements session.Saver. The full payload is mirrored
// into the attempt's Redis hash and queued for the persistence worker;
// PostgreSQL is never written on this path.
func (s *AttemptService) SaveAnswers(ctx context.Context, payload model.AutosavePayload) error {
	mirrorKey := config.CacheKey.AttemptAnswersKey(payload.AttemptID.String())

	fields := make(map[string]interface{}, len(payload.Answers))
	for _, a := range payload.Answers {
		value := a.AnswerText
		if len(a.SelectedOptionIDs) > 0 {
			value = strings.Join(a.SelectedOptionIDs, ",")
		}
		fields[a.QuestionID.String()] = value
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, mirrorKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, mirrorKey, fields)
	}
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, encoded)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror and enqueue: %w", err)
	}
	return nil
}

// Finalize implements session.Finalizer. It marks the attempt finished
// in PostgreSQL and queues it for grading. An auto-triggered finish
// (timer expiry) lands as EXPIRED, a manual one as SUBMITTED.
func (s *AttemptService) Finalize(ctx context.Context, attemptID uuid.UUID, autoTriggered bool, timeUsed time.Duration) error {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status.Terminal() {
		return nil
	}

	if err := s.attemptRepo.MarkSubmitted(ctx, attemptID, int(timeUsed.Seconds()), autoTriggered); err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}

	job, err := json.Marshal(model.GradeJob{AttemptID: attemptID, ExamID: attempt.ExamID})
	if err != nil {
		return fmt.Errorf("marshal grade job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.GradeAttemptsQueue, job).Err(); err != nil {
		return fmt.Errorf("enqueue grading: %w", err)
	}

	_ = s.rdb.Del(ctx, config.CacheKey.CandidateActiveAttemptKey(attempt.CandidateID))

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Bool("auto_triggered", autoTriggered).
		Dur("time_used", timeUsed).
		Msg("Attempt finalized")
	return nil
}
