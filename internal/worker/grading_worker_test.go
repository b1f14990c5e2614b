package worker

import (
	"testing"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

func TestJudgeManualKeyGivesNoVerdict(t *testing.T) {
	key := model.GradingKey{} // essay / speaking: nothing to compare against

	if v := judge(&model.AnswerRecord{SelectedText: "my essay"}, key); v != nil {
		t.Errorf("judge(essay) = %v, want nil verdict", *v)
	}
	if v := judge(nil, key); v != nil {
		t.Errorf("judge(nil record, manual key) = %v, want nil verdict", *v)
	}
}

func TestJudgeOptionIDs(t *testing.T) {
	key := model.GradingKey{CorrectOptionIDs: []string{"a", "b"}}

	tests := []struct {
		name string
		rec  *model.AnswerRecord
		want bool
	}{
		{"exact match", &model.AnswerRecord{SelectedOptionIDs: []string{"a", "b"}}, true},
		{"order irrelevant", &model.AnswerRecord{SelectedOptionIDs: []string{"b", "a"}}, true},
		{"subset wrong", &model.AnswerRecord{SelectedOptionIDs: []string{"a"}}, false},
		{"superset wrong", &model.AnswerRecord{SelectedOptionIDs: []string{"a", "b", "c"}}, false},
		{"disjoint wrong", &model.AnswerRecord{SelectedOptionIDs: []string{"c", "d"}}, false},
		{"empty wrong", &model.AnswerRecord{}, false},
		{"missing record wrong", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := judge(tc.rec, key)
			if v == nil {
				t.Fatal("objective key must always yield a verdict")
			}
			if *v != tc.want {
				t.Errorf("judge = %v, want %v", *v, tc.want)
			}
		})
	}
}

func TestJudgeText(t *testing.T) {
	key := model.GradingKey{CorrectText: "Harbour"}

	tests := []struct {
		name string
		rec  *model.AnswerRecord
		want bool
	}{
		{"exact", &model.AnswerRecord{SelectedText: "Harbour"}, true},
		{"case insensitive", &model.AnswerRecord{SelectedText: "harbour"}, true},
		{"surrounding space trimmed", &model.AnswerRecord{SelectedText: "  harbour  "}, true},
		{"wrong word", &model.AnswerRecord{SelectedText: "dock"}, false},
		{"empty answer wrong", &model.AnswerRecord{SelectedText: "   "}, false},
		{"missing record wrong", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := judge(tc.rec, key)
			if v == nil {
				t.Fatal("objective key must always yield a verdict")
			}
			if *v != tc.want {
				t.Errorf("judge = %v, want %v", *v, tc.want)
			}
		})
	}
}

func TestJudgeIDsTakePrecedenceOverText(t *testing.T) {
	key := model.GradingKey{CorrectOptionIDs: []string{"a"}, CorrectText: "Apple"}
	rec := &model.AnswerRecord{SelectedText: "Apple"}

	v := judge(rec, key)
	if v == nil || *v {
		t.Error("id-keyed question must compare ids, not text")
	}
}

func TestSameIDSet(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{[]string{"a"}, []string{"a"}, true},
		{[]string{"a", "b"}, []string{"b", "a"}, true},
		{[]string{"a"}, []string{"b"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
		{nil, nil, false}, // two empty sets never count as a correct answer
		{nil, []string{"a"}, false},
	}

	for _, tc := range tests {
		if got := sameIDSet(tc.a, tc.b); got != tc.want {
			t.Errorf("sameIDSet(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
