package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// RecorderState enumerates the speaking capture state machine:
// none → recording → stopped → uploading → saved, with a parallel
// uploading-file path when the candidate supplies a pre-recorded file.
type RecorderState string

const (
	RecorderNone          RecorderState = "none"
	RecorderRecording     RecorderState = "recording"
	RecorderStopped       RecorderState = "stopped"
	RecorderUploading     RecorderState = "uploading"
	RecorderUploadingFile RecorderState = "uploading-file"
	RecorderSaved         RecorderState = "saved"
)

// mediaSource distinguishes the two mutually exclusive capture paths.
type mediaSource string

const (
	sourceNone   mediaSource = ""
	sourceRecord mediaSource = "record"
	sourceFile   mediaSource = "file"
)

// Recorder errors.
var (
	ErrNotSpeakingQuestion = errors.New("question is not a speaking task")
	ErrRecorderBusy        = errors.New("another capture is already in progress for this question")
	ErrSourceConflict      = errors.New("record and file upload are mutually exclusive until reset")
	ErrInvalidTransition   = errors.New("invalid recorder state transition")
	ErrNoMedia             = errors.New("no captured media to save")
)

// Recorder is the speaking-question media state machine. One recorder
// exists per speaking question; it owns the captured bytes and the
// duration counter, and writes only the final serialized answer token
// into the session's answer map.
type Recorder struct {
	questionID uuid.UUID
	session    *Session

	mu          sync.Mutex
	state       RecorderState
	source      mediaSource
	media       []byte
	filename    string
	contentType string
	recordStart time.Time
	recorded    time.Duration
}

// Recorder returns (creating on first use) the media recorder for a
// speaking question.
func (s *Session) Recorder(questionID uuid.UUID) (*Recorder, error) {
	q, ok := s.questions[questionID]
	if !ok {
		return nil, ErrUnknownQuestion
	}
	if q.Type != model.QuestionTypeSpeakingTask {
		return nil, ErrNotSpeakingQuestion
	}

	s.recMu.Lock()
	defer s.recMu.Unlock()
	rec, ok := s.recorders[questionID]
	if !ok {
		rec = &Recorder{questionID: questionID, session: s, state: RecorderNone}
		s.recorders[questionID] = rec
	}
	return rec, nil
}

// State returns the current state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// DurationSec is the accumulated recording time in whole seconds,
// counting live while recording.
func (r *Recorder) DurationSec() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.recorded
	if r.state == RecorderRecording {
		d += time.Since(r.recordStart)
	}
	return int(d / time.Second)
}

// StartRecording begins a live recording. Rejected while an upload is in
// flight or while the file path is active (mutual exclusion until Reset).
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.source == sourceFile {
		return ErrSourceConflict
	}
	if r.state != RecorderNone {
		return ErrRecorderBusy
	}

	r.state = RecorderRecording
	r.source = sourceRecord
	r.recordStart = time.Now()
	return nil
}

// StopRecording ends the live recording and stores the captured bytes.
func (r *Recorder) StopRecording(data []byte, filename, contentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording {
		return ErrInvalidTransition
	}

	r.recorded += time.Since(r.recordStart)
	r.state = RecorderStopped
	r.media = data
	r.filename = filename
	r.contentType = contentType
	return nil
}

// Save uploads the captured recording and writes the returned serialized
// answer token into the answer map. On upload failure the answer map is
// untouched and the recorder returns to stopped so the candidate can retry.
func (r *Recorder) Save(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state != RecorderStopped {
		r.mu.Unlock()
		return "", ErrInvalidTransition
	}
	if len(r.media) == 0 {
		r.mu.Unlock()
		return "", ErrNoMedia
	}
	r.state = RecorderUploading
	data, filename, contentType := r.media, r.filename, r.contentType
	r.mu.Unlock()

	token, err := r.session.uploader.Upload(ctx, filename, contentType, data)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = RecorderStopped
		return "", err
	}

	if setErr := r.session.SetAnswer(r.questionID, token); setErr != nil {
		r.state = RecorderStopped
		return "", setErr
	}

	r.state = RecorderSaved
	return token, nil
}

// UploadFile runs the pre-recorded file path: none → uploading-file →
// saved. Rejected while a live recording is active.
func (r *Recorder) UploadFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	r.mu.Lock()
	if r.source == sourceRecord {
		r.mu.Unlock()
		return "", ErrSourceConflict
	}
	if r.state != RecorderNone {
		r.mu.Unlock()
		return "", ErrRecorderBusy
	}
	r.state = RecorderUploadingFile
	r.source = sourceFile
	r.mu.Unlock()

	token, err := r.session.uploader.Upload(ctx, filename, contentType, data)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = RecorderNone
		r.source = sourceNone
		return "", err
	}

	if setErr := r.session.SetAnswer(r.questionID, token); setErr != nil {
		r.state = RecorderNone
		r.source = sourceNone
		return "", setErr
	}

	r.media = data
	r.filename = filename
	r.contentType = contentType
	r.state = RecorderSaved
	return token, nil
}

// Reset clears the captured media, zeroes the duration counter, removes
// the answer map entry, and returns to none, releasing the source lock.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.media = nil
	r.filename = ""
	r.contentType = ""
	r.recorded = 0
	r.recordStart = time.Time{}
	r.state = RecorderNone
	r.source = sourceNone

	r.session.clearAnswer(r.questionID)
}
