package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, exam_id, candidate_id, started_at, finished_at, status,
	duration_sec, time_used_sec, correct_count, overall_band, band_breakdown`

func scanAttempt(row interface{ Scan(...any) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.ExamID, &a.CandidateID, &a.StartedAt, &a.FinishedAt,
		&a.Status, &a.DurationSec, &a.TimeUsedSec, &a.CorrectCount, &a.OverallBand,
		&a.BandBreakdown)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves a single attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// GetByExamAndCandidate retrieves the attempt for an exam-candidate pair.
func (r *AttemptRepository) GetByExamAndCandidate(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE exam_id = $1 AND candidate_id = $2`, examID, candidateID))
}

// Create inserts a new in-progress attempt. The UNIQUE(exam_id,
// candidate_id) constraint makes starting idempotent: a concurrent start
// returns pgx.ErrNoRows and the caller refetches the existing row.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, candidate_id, status, duration_sec)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, candidate_id) DO NOTHING
		 RETURNING id, started_at`,
		a.ExamID, a.CandidateID, model.AttemptStatusInProgress, a.DurationSec,
	).Scan(&a.ID, &a.StartedAt)
}

// MarkSubmitted finalizes an in-progress attempt. Idempotent: a second
// call finds no IN_PROGRESS row and changes nothing.
func (r *AttemptRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, timeUsedSec int, expired bool) error {
	status := model.AttemptStatusSubmitted
	if expired {
		status = model.AttemptStatusExpired
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, time_used_sec = $2, finished_at = NOW()
		 WHERE id = $3 AND status = $4`,
		status, timeUsedSec, id, model.AttemptStatusInProgress)
	return err
}

// MarkGraded records objective grading output.
func (r *AttemptRepository) MarkGraded(ctx context.Context, id uuid.UUID, correctCount int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts SET status = $1, correct_count = $2
		 WHERE id = $3 AND status IN ($4, $5)`,
		model.AttemptStatusGraded, correctCount, id,
		model.AttemptStatusSubmitted, model.AttemptStatusExpired)
	return err
}

// SetBands stores the productive-skill band payload delivered by the
// grading side.
func (r *AttemptRepository) SetBands(ctx context.Context, id uuid.UUID, overall float64, breakdown []byte) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts SET overall_band = $1, band_breakdown = $2 WHERE id = $3`,
		overall, breakdown, id)
	return err
}

// ListOverdue returns in-progress attempts whose deadline passed before
// the given cutoff. Used by the expiry sweeper as a safety net behind
// the in-process countdown.
func (r *AttemptRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE status = $1
		   AND started_at + make_interval(secs => duration_sec) < $2
		 ORDER BY started_at
		 LIMIT $3`,
		model.AttemptStatusInProgress, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// ListByCandidate retrieves all attempts for a candidate, newest first.
func (r *AttemptRepository) ListByCandidate(ctx context.Context, candidateID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE candidate_id = $1
		 ORDER BY started_at DESC`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
