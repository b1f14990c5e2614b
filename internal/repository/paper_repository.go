package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// PaperRepository reads the exam and question bank tables.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// GetExam retrieves one exam definition.
func (r *PaperRepository) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_sec, status, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.DurationSec, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListExamsByStatus retrieves exams in a given status (cache prewarm).
func (r *PaperRepository) ListExamsByStatus(ctx context.Context, status model.ExamStatus) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, duration_sec, status, created_at, updated_at
		 FROM exams WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.DurationSec, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExamStatus transitions an exam's lifecycle status.
func (r *PaperRepository) UpdateExamStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// GetPaper assembles the full candidate-facing paper: sections in order,
// question groups in order, questions with parsed options. Correct
// answers are never part of the paper (see GetGradingKeys).
func (r *PaperRepository) GetPaper(ctx context.Context, examID uuid.UUID) (*model.Paper, error) {
	exam, err := r.GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	paper := &model.Paper{
		ExamID:      exam.ID,
		Title:       exam.Title,
		DurationSec: exam.DurationSec,
	}

	sections, err := r.listSections(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	for i := range sections {
		groups, err := r.listGroups(ctx, sections[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		sections[i].Groups = groups
	}

	paper.Sections = sections
	return paper, nil
}

func (r *PaperRepository) listSections(ctx context.Context, examID uuid.UUID) ([]model.Section, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, skill, ord,
		        COALESCE(passage_text, ''), COALESCE(audio_url, ''), COALESCE(prompt_text, '')
		 FROM sections WHERE exam_id = $1 ORDER BY ord`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var (
			s        model.Section
			rawSkill string
		)
		if err := rows.Scan(&s.ID, &s.ExamID, &rawSkill, &s.Ord,
			&s.PassageText, &s.AudioURL, &s.PromptText); err != nil {
			return nil, err
		}
		s.Skill = model.ParseSkill(rawSkill)
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *PaperRepository) listGroups(ctx context.Context, sectionID uuid.UUID) ([]model.QuestionGroup, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, section_id, ord, COALESCE(instruction, '')
		 FROM question_groups WHERE section_id = $1 ORDER BY ord`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.QuestionGroup
	for rows.Next() {
		var g model.QuestionGroup
		if err := rows.Scan(&g.ID, &g.SectionID, &g.Ord, &g.Instruction); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		questions, err := r.listQuestions(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Questions = questions
	}
	return groups, nil
}

func (r *PaperRepository) listQuestions(ctx context.Context, groupID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, idx, skill, qtype,
		        COALESCE(prompt_text, ''), COALESCE(options, '[]'::jsonb),
		        COALESCE(explanation_text, '')
		 FROM questions WHERE group_id = $1 ORDER BY idx`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q           model.Question
			rawSkill    string
			rawType     string
			optionsJSON []byte
		)
		if err := rows.Scan(&q.ID, &q.GroupID, &q.Idx, &rawSkill, &rawType,
			&q.PromptText, &optionsJSON, &q.ExplanationText); err != nil {
			return nil, err
		}
		q.Skill = model.ParseSkill(rawSkill)
		q.Type = model.ParseQuestionType(rawType)
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			q.Options = nil
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetGradingKeys returns the objective answer key for every question of
// an exam. Kept apart from GetPaper so correct answers never ride along
// with candidate-facing data.
func (r *PaperRepository) GetGradingKeys(ctx context.Context, examID uuid.UUID) ([]model.GradingKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, COALESCE(q.correct_option_ids, '[]'::jsonb), COALESCE(q.correct_answer_text, '')
		 FROM questions q
		 JOIN question_groups g ON g.id = q.group_id
		 JOIN sections s ON s.id = g.section_id
		 WHERE s.exam_id = $1`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []model.GradingKey
	for rows.Next() {
		var (
			k           model.GradingKey
			correctJSON []byte
		)
		if err := rows.Scan(&k.QuestionID, &correctJSON, &k.CorrectText); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(correctJSON, &k.CorrectOptionIDs); err != nil {
			k.CorrectOptionIDs = nil
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
