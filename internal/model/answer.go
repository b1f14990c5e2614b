package model

import (
	"time"

	"github.com/google/uuid"
)

// AnswerUpsert is one answer in the autosave wire format. Exactly one of
// SelectedOptionIDs or AnswerText carries the value, discriminated by the
// question's type.
type AnswerUpsert struct {
	QuestionID        uuid.UUID `json:"question_id"`
	SectionID         uuid.UUID `json:"section_id"`
	SelectedOptionIDs []string  `json:"selected_option_ids,omitempty"`
	AnswerText        string    `json:"answer_text,omitempty"`
}

// AutosavePayload is one autosave push: the full answer set plus a
// client-declared ordering hint. ClientRevision is the wall clock in
// milliseconds; persistence discards a push whose revision is lower than
// one already applied for the same question.
type AutosavePayload struct {
	AttemptID      uuid.UUID      `json:"attempt_id"`
	Answers        []AnswerUpsert `json:"answers"`
	ClientRevision int64          `json:"client_revision"`
}

// SetAnswerRequest is the payload for the single-answer REST capture path.
type SetAnswerRequest struct {
	Value string `json:"value" binding:"max=20000"`
}

// AnswerRecord is the persisted, graded view of one answer, produced once
// by grading and immutable thereafter. IsCorrect is nil for question
// types requiring manual review.
type AnswerRecord struct {
	QuestionID        uuid.UUID  `json:"question_id"`
	SectionID         uuid.UUID  `json:"section_id"`
	SelectedOptionIDs []string   `json:"selected_option_ids"`
	SelectedText      string     `json:"selected_answer_text"`
	CorrectOptionIDs  []string   `json:"correct_option_ids"`
	CorrectText       string     `json:"correct_answer_text"`
	IsCorrect         *bool      `json:"is_correct"`
	ExplanationText   string     `json:"explanation_text,omitempty"`
	GradedAt          *time.Time `json:"graded_at,omitempty"`
}
