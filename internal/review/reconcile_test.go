package review

import (
	"testing"

	"github.com/google/uuid"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

var testOptions = []model.Option{
	{ID: "A", Text: "Apple"},
	{ID: "B", Text: "Banana"},
	{ID: "C", Text: "Cherry"},
}

func TestMapAnswerContent(t *testing.T) {
	optionMap := BuildOptionMap(testOptions)

	tests := []struct {
		name     string
		ids      []string
		fallback string
		want     string
	}{
		{"single id resolves", []string{"A"}, "", "Apple"},
		{"multiple ids join", []string{"A", "B"}, "", "Apple, Banana"},
		{"unknown id renders raw", []string{"A", "zz"}, "", "Apple, zz"},
		{"ids win over fallback", []string{"B"}, "ignored", "Banana"},
		{"blank ids fall through", []string{"", "  "}, "free text", "free text"},
		{"list-shaped fallback decodes", nil, `["A"]`, "Apple"},
		{"list-shaped fallback multi", nil, `["A","C"]`, "Apple, Cherry"},
		{"broken list falls through", nil, `["A`, `["A`},
		{"bare id fallback resolves", nil, "B", "Banana"},
		{"free text verbatim", nil, "my own words", "my own words"},
		{"empty everything", nil, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapAnswerContent(optionMap, tc.ids, tc.fallback)
			if got != tc.want {
				t.Errorf("MapAnswerContent(%v, %q) = %q, want %q", tc.ids, tc.fallback, got, tc.want)
			}
		})
	}
}

func reviewPaper(q1, q2 uuid.UUID) *model.Paper {
	return &model.Paper{
		Sections: []model.Section{
			{
				ID:    uuid.New(),
				Skill: model.SkillReading,
				Groups: []model.QuestionGroup{
					{
						Questions: []model.Question{
							{ID: q1, Idx: 1, Skill: model.SkillReading, Type: model.QuestionTypeSingleChoice, Options: testOptions, PromptText: "q3: First prompt"},
							{ID: q2, Idx: 2, Skill: model.SkillReading, Type: model.QuestionTypeCompletion, PromptText: "Second prompt"},
						},
					},
				},
			},
		},
	}
}

func TestBuildReviewPaperOrder(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	correct := true

	items := BuildReview(reviewPaper(q1, q2), []model.AnswerRecord{
		{
			QuestionID:        q1,
			SelectedOptionIDs: []string{"A"},
			CorrectOptionIDs:  []string{"B"},
			IsCorrect:         &correct,
		},
	})

	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2 (one per paper question)", len(items))
	}

	first := items[0]
	if first.QuestionID != q1 {
		t.Fatalf("items[0] is %v, want paper order", first.QuestionID)
	}
	if !first.Answered {
		t.Error("recorded question not marked answered")
	}
	if first.SelectedText != "Apple" || first.CorrectText != "Banana" {
		t.Errorf("resolved texts = %q / %q, want Apple / Banana", first.SelectedText, first.CorrectText)
	}
	if first.IsCorrect == nil || !*first.IsCorrect {
		t.Error("verdict lost in reconciliation")
	}
	if first.PromptText != "First prompt" {
		t.Errorf("prompt not cleaned: %q", first.PromptText)
	}

	second := items[1]
	if second.Answered {
		t.Error("question without a record marked answered")
	}
	if second.IsCorrect != nil {
		t.Error("skipped question should carry no verdict")
	}
	if second.SelectedText != "" {
		t.Errorf("skipped question selected text = %q, want empty", second.SelectedText)
	}
}

func TestBuildReviewOrphanRecord(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	orphan := uuid.New()

	items := BuildReview(reviewPaper(q1, q2), []model.AnswerRecord{
		{QuestionID: orphan, SelectedText: "stranded"},
	})

	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 2 paper rows + 1 orphan", len(items))
	}

	last := items[2]
	if last.QuestionID != orphan {
		t.Fatalf("orphan row missing")
	}
	if last.Skill != model.SkillUnknown || last.Type != model.QuestionTypeUnknown {
		t.Errorf("orphan metadata = %v/%v, want unknown sentinels", last.Skill, last.Type)
	}
	if !last.Answered || last.SelectedText != "stranded" {
		t.Errorf("orphan answer lost: answered=%v text=%q", last.Answered, last.SelectedText)
	}
}

func TestBuildReviewNilPaper(t *testing.T) {
	rec := uuid.New()
	items := BuildReview(nil, []model.AnswerRecord{{QuestionID: rec, SelectedText: "x"}})

	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Skill != model.SkillUnknown {
		t.Errorf("skill = %v, want unknown sentinel", items[0].Skill)
	}
}
