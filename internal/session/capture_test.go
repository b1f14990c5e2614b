package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSetAnswerUnknownQuestion(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	err := s.SetAnswer(uuid.New(), "A")
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("SetAnswer(unknown) = %v, want ErrUnknownQuestion", err)
	}
}

func TestSetAnswerNormalization(t *testing.T) {
	tests := []struct {
		name string
		qid  uuid.UUID
		raw  string
		want string
	}{
		{"single choice stored as-is", qSingle, "opt-a", "opt-a"},
		{"matching keeps leading token", qMatching, "B  The rise of rail", "B"},
		{"matching trims option punctuation", qMatching, "A.", "A"},
		{"matching trims closing paren", qMatching, "C) Harbour trade", "C"},
		{"multi select canonicalized", qMulti, " a , b ,a,,", "a,b"},
		{"completion verbatim", qCompletion, "  harbour  ", "  harbour  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestSession()
			defer s.Close()

			if err := s.SetAnswer(tc.qid, tc.raw); err != nil {
				t.Fatalf("SetAnswer: %v", err)
			}
			got, ok := s.answers.Get(tc.qid)
			if !ok || got != tc.want {
				t.Errorf("stored value = %q, %v; want %q, true", got, ok, tc.want)
			}
		})
	}
}

func TestSetAnswerEmptyClears(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	if err := s.SetAnswer(qSingle, "A"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(qSingle, ""); err != nil {
		t.Fatalf("SetAnswer clear: %v", err)
	}
	if _, ok := s.answers.Get(qSingle); ok {
		t.Error("empty value should clear the answer")
	}
}

func TestSetAnswerSchedulesAutosave(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	if s.debouncer.Pending() {
		t.Fatal("fresh session should have no pending flush")
	}
	if err := s.SetAnswer(qSingle, "A"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if !s.debouncer.Pending() {
		t.Error("mutation should schedule a debounced flush")
	}
}

func TestLeadingToken(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"B", "B"},
		{"B.", "B"},
		{"B)", "B"},
		{"B:", "B"},
		{"B  The rise of rail", "B"},
		{"  C) text", "C"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range tests {
		if got := leadingToken(tc.raw); got != tc.want {
			t.Errorf("leadingToken(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCanonicalIDList(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"a,b", "a,b"},
		{" a , b ", "a,b"},
		{"a,a,b,a", "a,b"},
		{"a,,b,", "a,b"},
		{"", ""},
		{",,,", ""},
		{"b,a", "b,a"}, // order preserved, not sorted
	}

	for _, tc := range tests {
		if got := canonicalIDList(tc.raw); got != tc.want {
			t.Errorf("canonicalIDList(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
