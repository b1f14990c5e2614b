package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// AnswerRepository handles persisted answer rows.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert creates or updates one answer, guarded by the client revision:
// a push whose revision is lower than the stored one is stale (network
// reordering) and must not overwrite newer state. The guard lives in the
// UPDATE predicate so enforcement is the persistence side's job, exactly
// once, regardless of how many workers race.
func (r *AnswerRepository) Upsert(ctx context.Context, attemptID uuid.UUID, up model.AnswerUpsert, clientRevision int64) error {
	selectedJSON, err := json.Marshal(up.SelectedOptionIDs)
	if err != nil {
		return fmt.Errorf("marshal selected ids: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempt_answers
		   (attempt_id, question_id, section_id, selected_option_ids, answer_text, client_revision)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option_ids = EXCLUDED.selected_option_ids,
		     answer_text = EXCLUDED.answer_text,
		     client_revision = EXCLUDED.client_revision,
		     updated_at = NOW()
		 WHERE attempt_answers.client_revision <= EXCLUDED.client_revision`,
		attemptID, up.QuestionID, up.SectionID, selectedJSON, up.AnswerText, clientRevision)
	return err
}

// DeleteAbsent removes the answer rows a full-snapshot push no longer
// carries: the candidate cleared those answers since the previous push,
// and a surviving row would be reconciled as if it were still given.
// The same revision guard as Upsert keeps a reordered stale snapshot
// from deleting rows a newer push already rewrote.
func (r *AnswerRepository) DeleteAbsent(ctx context.Context, attemptID uuid.UUID, keep []uuid.UUID, clientRevision int64) error {
	ids := make([]string, len(keep))
	for i, id := range keep {
		ids[i] = id.String()
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM attempt_answers
		 WHERE attempt_id = $1
		   AND client_revision <= $2
		   AND NOT (question_id = ANY($3::uuid[]))`,
		attemptID, clientRevision, ids)
	return err
}

// SetGrade records the objective grading verdict for one answer.
// IsCorrect stays NULL for manually banded question types.
func (r *AnswerRepository) SetGrade(ctx context.Context, attemptID, questionID uuid.UUID, isCorrect *bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempt_answers
		 SET is_correct = $1, graded_at = NOW()
		 WHERE attempt_id = $2 AND question_id = $3`,
		isCorrect, attemptID, questionID)
	return err
}

// ListByAttempt returns the attempt's answer records joined with the
// question bank's correct answers and explanations. Records exist only
// for answered questions; the review layer fills in the skipped ones.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT aa.question_id, aa.section_id, aa.selected_option_ids, aa.answer_text,
		        aa.is_correct, aa.graded_at,
		        COALESCE(q.correct_option_ids, '[]'::jsonb),
		        COALESCE(q.correct_answer_text, ''),
		        COALESCE(q.explanation_text, '')
		 FROM attempt_answers aa
		 LEFT JOIN questions q ON q.id = aa.question_id
		 WHERE aa.attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		var (
			rec          model.AnswerRecord
			selectedJSON []byte
			correctJSON  []byte
		)
		if err := rows.Scan(&rec.QuestionID, &rec.SectionID, &selectedJSON, &rec.SelectedText,
			&rec.IsCorrect, &rec.GradedAt, &correctJSON, &rec.CorrectText,
			&rec.ExplanationText); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(selectedJSON, &rec.SelectedOptionIDs); err != nil {
			rec.SelectedOptionIDs = nil
		}
		if err := json.Unmarshal(correctJSON, &rec.CorrectOptionIDs); err != nil {
			rec.CorrectOptionIDs = nil
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
