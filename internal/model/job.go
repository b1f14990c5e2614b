package model

import "github.com/google/uuid"

// GradeJob is one unit of work on the grading queue.
type GradeJob struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	ExamID    uuid.UUID `json:"exam_id"`
}

// BandResult is what the external grading side pushes onto the band
// results queue once it has scored an attempt's productive skills.
type BandResult struct {
	AttemptID   uuid.UUID    `json:"attempt_id"`
	OverallBand Band         `json:"overall_band"`
	Skills      []SkillBands `json:"skills"`
}
