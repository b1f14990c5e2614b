package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam represents a four-skill exam definition.
type Exam struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	DurationSec int        `json:"duration_sec"`
	Status      ExamStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Option is one selectable answer for a choice-family question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a single gradable unit within a question group.
type Question struct {
	ID              uuid.UUID    `json:"id"`
	GroupID         uuid.UUID    `json:"group_id"`
	Idx             int          `json:"idx"`
	Skill           Skill        `json:"skill"`
	Type            QuestionType `json:"type"`
	PromptText      string       `json:"prompt_text"`
	Options         []Option     `json:"options,omitempty"`
	ExplanationText string       `json:"explanation_text,omitempty"`
}

// QuestionGroup is an ordered block of questions sharing one instruction.
type QuestionGroup struct {
	ID          uuid.UUID  `json:"id"`
	SectionID   uuid.UUID  `json:"section_id"`
	Ord         int        `json:"ord"`
	Instruction string     `json:"instruction,omitempty"`
	Questions   []Question `json:"questions"`
}

// Section is a contiguous block of one skill's content. Immutable once
// an attempt starts.
type Section struct {
	ID          uuid.UUID       `json:"id"`
	ExamID      uuid.UUID       `json:"exam_id"`
	Skill       Skill           `json:"skill"`
	Ord         int             `json:"ord"`
	PassageText string          `json:"passage_text,omitempty"`
	AudioURL    string          `json:"audio_url,omitempty"`
	PromptText  string          `json:"prompt_text,omitempty"`
	Groups      []QuestionGroup `json:"question_groups"`
}

// Paper is the full question bank for one exam, sections in skill order.
// Correct answers never appear here; they live in the grading key
// (repository side) and, post-grading, in AnswerRecord rows.
type Paper struct {
	ExamID      uuid.UUID `json:"exam_id"`
	Title       string    `json:"title"`
	DurationSec int       `json:"duration_sec"`
	Sections    []Section `json:"sections"`
}

// GradingKey is the correct answer for one question, kept apart from the
// candidate-facing Question.
type GradingKey struct {
	QuestionID       uuid.UUID `json:"question_id"`
	CorrectOptionIDs []string  `json:"correct_option_ids,omitempty"`
	CorrectText      string    `json:"correct_text,omitempty"`
}
