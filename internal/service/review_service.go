package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/model"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
	"github.com/linguaprep/linguaprep-backend/internal/review"
)

// ErrResultNotReady signals the attempt exists but grading has not
// finished yet; the client should poll.
var ErrResultNotReady = errors.New("result is not ready yet")

// Result is the full post-attempt report: every question with the
// candidate's answer reconciled against the key, plus per-skill totals.
type Result struct {
	Attempt model.Attempt  `json:"attempt"`
	Items   []review.Item  `json:"items"`
	Summary review.Summary `json:"summary"`
}

// ReviewService builds the post-attempt review and result report.
type ReviewService struct {
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
	papers      *PaperService
	log         zerolog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	papers *PaperService,
	log zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		papers:      papers,
		log:         log.With().Str("component", "review_service").Logger(),
	}
}

// GetResult assembles the graded report for a candidate's attempt.
// Only a GRADED attempt has a report; SUBMITTED means grading is still
// in the queue.
func (s *ReviewService) GetResult(ctx context.Context, attemptID uuid.UUID, candidateID int) (*Result, error) {
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
	if attempt.Status != model.AttemptStatusGraded {
		return nil, ErrResultNotReady
	}

	paper, err := s.papers.GetPaper(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	records, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	items := review.BuildReview(paper, records)

	var bands []model.SkillBands
	if len(attempt.BandBreakdown) > 0 {
		if err := json.Unmarshal(attempt.BandBreakdown, &bands); err != nil {
			s.log.Warn().Err(err).
				Str("attempt_id", attemptID.String()).
				Msg("Malformed band breakdown, rendering without bands")
			bands = nil
		}
	}

	var overall *model.Band
	if attempt.OverallBand != nil {
		b := model.Band(*attempt.OverallBand)
		overall = &b
	}

	return &Result{
		Attempt: *attempt,
		Items:   items,
		Summary: review.Aggregate(items, bands, overall),
	}, nil
}
