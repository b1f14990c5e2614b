package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func speakingRecorder(t *testing.T, s *Session) *Recorder {
	t.Helper()
	rec, err := s.Recorder(qSpeaking)
	if err != nil {
		t.Fatalf("Recorder: %v", err)
	}
	return rec
}

func TestRecorderOnlyForSpeakingQuestions(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	if _, err := s.Recorder(qSingle); !errors.Is(err, ErrNotSpeakingQuestion) {
		t.Errorf("Recorder(single choice) = %v, want ErrNotSpeakingQuestion", err)
	}
	if _, err := s.Recorder(uuid.New()); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("Recorder(unknown) = %v, want ErrUnknownQuestion", err)
	}
}

func TestRecorderIsPerQuestionSingleton(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	a := speakingRecorder(t, s)
	b := speakingRecorder(t, s)
	if a != b {
		t.Error("Recorder should return the same instance per question")
	}
}

func TestRecorderHappyPath(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	if got := rec.State(); got != RecorderNone {
		t.Fatalf("initial state = %v, want none", got)
	}

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if got := rec.State(); got != RecorderRecording {
		t.Errorf("state = %v, want recording", got)
	}

	if err := rec.StopRecording([]byte("opus"), "take1.webm", "audio/webm"); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if got := rec.State(); got != RecorderStopped {
		t.Errorf("state = %v, want stopped", got)
	}

	token, err := rec.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if token != "audio:speaking/take1.webm" {
		t.Errorf("token = %q", token)
	}
	if got := rec.State(); got != RecorderSaved {
		t.Errorf("state = %v, want saved", got)
	}

	if v, ok := s.answers.Get(qSpeaking); !ok || v != token {
		t.Errorf("answer map entry = %q, %v; want token", v, ok)
	}
}

func TestRecorderInvalidTransitions(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	if err := rec.StopRecording(nil, "", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Stop before Start = %v, want ErrInvalidTransition", err)
	}
	if _, err := rec.Save(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Save before capture = %v, want ErrInvalidTransition", err)
	}

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := rec.StartRecording(); !errors.Is(err, ErrRecorderBusy) {
		t.Errorf("double Start = %v, want ErrRecorderBusy", err)
	}
}

func TestRecorderSaveWithoutMedia(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := rec.StopRecording(nil, "empty.webm", "audio/webm"); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if _, err := rec.Save(context.Background()); !errors.Is(err, ErrNoMedia) {
		t.Errorf("Save with no bytes = %v, want ErrNoMedia", err)
	}
}

func TestRecorderFailedSaveReverts(t *testing.T) {
	s, deps := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := rec.StopRecording([]byte("opus"), "take1.webm", "audio/webm"); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}

	deps.uploader.err = errors.New("bucket unreachable")
	if _, err := rec.Save(context.Background()); err == nil {
		t.Fatal("Save with failing uploader should error")
	}
	if got := rec.State(); got != RecorderStopped {
		t.Errorf("state after failed save = %v, want stopped (retryable)", got)
	}
	if _, ok := s.answers.Get(qSpeaking); ok {
		t.Error("failed save must not touch the answer map")
	}

	deps.uploader.err = nil
	if _, err := rec.Save(context.Background()); err != nil {
		t.Fatalf("retry Save: %v", err)
	}
	if got := rec.State(); got != RecorderSaved {
		t.Errorf("state after retry = %v, want saved", got)
	}
}

func TestRecorderSourceMutualExclusion(t *testing.T) {
	t.Run("file blocked while recording", func(t *testing.T) {
		s, _ := newTestSession()
		defer s.Close()
		rec := speakingRecorder(t, s)

		if err := rec.StartRecording(); err != nil {
			t.Fatalf("StartRecording: %v", err)
		}
		if _, err := rec.UploadFile(context.Background(), []byte("mp3"), "f.mp3", "audio/mpeg"); !errors.Is(err, ErrSourceConflict) {
			t.Errorf("UploadFile during recording = %v, want ErrSourceConflict", err)
		}
	})

	t.Run("recording blocked after file upload", func(t *testing.T) {
		s, _ := newTestSession()
		defer s.Close()
		rec := speakingRecorder(t, s)

		if _, err := rec.UploadFile(context.Background(), []byte("mp3"), "f.mp3", "audio/mpeg"); err != nil {
			t.Fatalf("UploadFile: %v", err)
		}
		if err := rec.StartRecording(); !errors.Is(err, ErrSourceConflict) {
			t.Errorf("StartRecording after file upload = %v, want ErrSourceConflict", err)
		}
	})
}

func TestRecorderUploadFilePath(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	token, err := rec.UploadFile(context.Background(), []byte("mp3"), "prepared.mp3", "audio/mpeg")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if got := rec.State(); got != RecorderSaved {
		t.Errorf("state = %v, want saved", got)
	}
	if v, ok := s.answers.Get(qSpeaking); !ok || v != token {
		t.Errorf("answer map entry = %q, %v; want token", v, ok)
	}
}

func TestRecorderUploadFileFailureReleasesSource(t *testing.T) {
	s, deps := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	deps.uploader.err = errors.New("bucket unreachable")
	if _, err := rec.UploadFile(context.Background(), []byte("mp3"), "f.mp3", "audio/mpeg"); err == nil {
		t.Fatal("UploadFile with failing uploader should error")
	}
	if got := rec.State(); got != RecorderNone {
		t.Errorf("state after failed upload = %v, want none", got)
	}

	// Failure releases the source lock; live recording is allowed again.
	deps.uploader.err = nil
	if err := rec.StartRecording(); err != nil {
		t.Errorf("StartRecording after failed upload: %v", err)
	}
}

func TestRecorderReset(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := rec.StopRecording([]byte("opus"), "take1.webm", "audio/webm"); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if _, err := rec.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec.Reset()

	if got := rec.State(); got != RecorderNone {
		t.Errorf("state after reset = %v, want none", got)
	}
	if got := rec.DurationSec(); got != 0 {
		t.Errorf("duration after reset = %d, want 0", got)
	}
	if _, ok := s.answers.Get(qSpeaking); ok {
		t.Error("reset must clear the answer map entry")
	}

	// The other source is open again after reset.
	if _, err := rec.UploadFile(context.Background(), []byte("mp3"), "f.mp3", "audio/mpeg"); err != nil {
		t.Errorf("UploadFile after reset: %v", err)
	}
}

func TestRecorderDurationAccumulates(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()
	rec := speakingRecorder(t, s)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if got := rec.DurationSec(); got < 1 {
		t.Errorf("live DurationSec = %d, want >= 1", got)
	}
	if err := rec.StopRecording([]byte("opus"), "t.webm", "audio/webm"); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if got := rec.DurationSec(); got < 1 {
		t.Errorf("stopped DurationSec = %d, want >= 1", got)
	}
}
