package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates the lifecycle of a test-taking session.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
	AttemptStatusGraded     AttemptStatus = "GRADED"
	AttemptStatusExpired    AttemptStatus = "EXPIRED"
)

// Terminal reports whether the attempt can no longer accept answers.
func (s AttemptStatus) Terminal() bool {
	return s != AttemptStatusInProgress
}

// Attempt identifies one test-taking session, bounded by a start and a
// submit/expiry event.
type Attempt struct {
	ID            uuid.UUID       `json:"id"`
	ExamID        uuid.UUID       `json:"exam_id"`
	CandidateID   int             `json:"candidate_id"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
	Status        AttemptStatus   `json:"status"`
	DurationSec   int             `json:"duration_sec"`
	TimeUsedSec   *int            `json:"time_used_sec,omitempty"`
	CorrectCount  *int            `json:"correct_count,omitempty"`
	OverallBand   *float64        `json:"overall_band,omitempty"`
	BandBreakdown json.RawMessage `json:"band_breakdown,omitempty"`
}

// Deadline is the wall-clock instant at which the attempt expires.
func (a *Attempt) Deadline() time.Time {
	return a.StartedAt.Add(time.Duration(a.DurationSec) * time.Second)
}

// StartAttemptRequest is the payload for starting (or resuming) an attempt.
type StartAttemptRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
}

// AttemptState is what a reloading client needs to rebuild the screen:
// everything answered so far plus derived remaining time. Remaining time
// is recomputed from started_at, never decremented, so it survives
// pauses and reconnects without drift.
type AttemptState struct {
	AttemptID     uuid.UUID         `json:"attempt_id"`
	Status        AttemptStatus     `json:"status"`
	SavedAnswers  map[string]string `json:"saved_answers"`
	RemainingSec  float64           `json:"remaining_sec"`
	DurationSec   int               `json:"duration_sec"`
	StartedAtUnix int64             `json:"started_at_unix"`
}
