package session

import (
	"testing"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

func TestBuildPayloadShapeDiscrimination(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	if err := s.SetAnswer(qSingle, "opt-a"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(qMulti, "a,b"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(qCompletion, "harbour"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	payload := s.BuildPayload()

	if payload.AttemptID != testAttemptID {
		t.Errorf("AttemptID = %v, want %v", payload.AttemptID, testAttemptID)
	}
	if payload.ClientRevision == 0 {
		t.Error("ClientRevision should carry the wall clock, got 0")
	}
	if len(payload.Answers) != 3 {
		t.Fatalf("len(Answers) = %d, want 3", len(payload.Answers))
	}

	byQ := make(map[string]model.AnswerUpsert, len(payload.Answers))
	for _, a := range payload.Answers {
		byQ[a.QuestionID.String()] = a
	}

	single := byQ[qSingle.String()]
	if len(single.SelectedOptionIDs) != 1 || single.SelectedOptionIDs[0] != "opt-a" {
		t.Errorf("single choice ids = %v, want [opt-a]", single.SelectedOptionIDs)
	}
	if single.AnswerText != "" {
		t.Errorf("single choice leaked answer_text %q", single.AnswerText)
	}
	if single.SectionID != testSectionReading {
		t.Errorf("single choice section = %v, want %v", single.SectionID, testSectionReading)
	}

	multi := byQ[qMulti.String()]
	if len(multi.SelectedOptionIDs) != 2 || multi.SelectedOptionIDs[0] != "a" || multi.SelectedOptionIDs[1] != "b" {
		t.Errorf("multi select ids = %v, want [a b]", multi.SelectedOptionIDs)
	}

	completion := byQ[qCompletion.String()]
	if completion.AnswerText != "harbour" {
		t.Errorf("completion text = %q, want \"harbour\"", completion.AnswerText)
	}
	if len(completion.SelectedOptionIDs) != 0 {
		t.Errorf("completion leaked option ids %v", completion.SelectedOptionIDs)
	}
}

func TestBuildPayloadOrderedByQuestionIdx(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	// Insert in reverse paper order.
	if err := s.SetAnswer(qCompletion, "four"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(qMulti, "a"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(qSingle, "opt-a"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	payload := s.BuildPayload()
	if len(payload.Answers) != 3 {
		t.Fatalf("len(Answers) = %d, want 3", len(payload.Answers))
	}

	wantOrder := []string{qSingle.String(), qMulti.String(), qCompletion.String()}
	for i, a := range payload.Answers {
		if a.QuestionID.String() != wantOrder[i] {
			t.Errorf("Answers[%d] = %s, want %s", i, a.QuestionID, wantOrder[i])
		}
	}
}

func TestBuildPayloadSkipsUnknownRestoredIDs(t *testing.T) {
	stray := "cccccccc-0000-0000-0000-000000000099"
	s, _ := newTestSession(func(o *Options) {
		o.Saved = map[string]string{stray: "ghost"}
	})
	defer s.Close()

	payload := s.BuildPayload()
	if len(payload.Answers) != 0 {
		t.Errorf("restored id outside the paper produced %d answers, want 0", len(payload.Answers))
	}
}
